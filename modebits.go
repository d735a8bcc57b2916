// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

import "io/fs"

// modeFromFileMode converts a host fs.FileMode into CFS's 16-bit on-disk
// Inode.Mode encoding: a type bit (ModeDir or ModeRegular) or'd with the
// permission bits. CFS has no on-disk representation for symlinks,
// devices, fifos or sockets (spec.md's Non-goals exclude hard/symbolic
// links entirely), so any non-regular, non-directory source is reported
// as a regular file, matching how a plain byte stream is the only other
// kind of Source CFS accepts.
func modeFromFileMode(mode fs.FileMode) uint16 {
	perm := uint16(mode.Perm())
	if mode.IsDir() {
		return ModeDir | perm
	}
	return ModeRegular | perm
}
