//go:build !windows
// +build !windows

// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

import (
	"io/fs"
	"syscall"
)

// ownerFromFileInfo extracts the uid/gid CFS stores in an Inode from a
// host fs.FileInfo's platform-specific Sys() value.
func ownerFromFileInfo(fi fs.FileInfo) (uid, gid uint16) {
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		return uint16(stat.Uid), uint16(stat.Gid)
	}
	return 0, 0
}
