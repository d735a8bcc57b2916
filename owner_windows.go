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

// ownerFromFileInfo reports a zero uid/gid on Windows, which has no
// equivalent concept exposed via fs.FileInfo.Sys().
func ownerFromFileInfo(fi fs.FileInfo) (uid, gid uint16) {
	return 0, 0
}
