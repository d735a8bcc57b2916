// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package testutil provides content-hashing helpers shared by tests that
// verify a file's bytes survive a round trip through a CFS image
// unmodified.
package testutil

import (
	"bytes"
	"io"

	"github.com/rogpeppe/go-internal/dirhash"
)

// HashFile returns the dirhash.Hash1 digest of a single named file's
// content, the same algorithm module checksums use, generalized here to
// one in-memory file instead of a whole module tree. Two reads of the
// same (name, content) pair, one before AddFile and one after ReadFile,
// that produce equal digests never diverged in transit.
func HashFile(name string, content []byte) (string, error) {
	return dirhash.Hash1([]string{name}, func(string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	})
}
