// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

import "errors"

var (
	// ErrShortBuffer is returned by the codec when a byte slice is too small
	// to hold the record being decoded.
	ErrShortBuffer = errors.New("cfs: short buffer")

	// ErrBadMagic is returned when a superblock's magic number doesn't match
	// MagicNumber.
	ErrBadMagic = errors.New("cfs: bad superblock magic")

	// ErrNoFreeInodes is returned by AddDir/AddFile when the inode
	// allocation map is full.
	ErrNoFreeInodes = errors.New("cfs: no free inodes")

	// ErrNoFreeBlocks is returned by AddDir/AddFile when the block
	// allocation map is full.
	ErrNoFreeBlocks = errors.New("cfs: no free blocks")

	// ErrNameTooLong is returned when a dentry name exceeds MaxNameLen
	// bytes after encoding.
	ErrNameTooLong = errors.New("cfs: name too long")

	// ErrFileTooLarge is returned by AddFile when a source's size exceeds
	// the maximum representable with direct blocks only.
	ErrFileTooLarge = errors.New("cfs: file too large for direct blocks")

	// ErrNotDirectory is returned when a directory-only operation targets
	// a non-directory inode. ReadFile also returns it when its target is a
	// directory.
	ErrNotDirectory = errors.New("cfs: not a directory")

	// ErrInvalidBlockSize is returned by Format when blockSize isn't a
	// power of two.
	ErrInvalidBlockSize = errors.New("cfs: block size must be a power of two")

	// ErrDentryNotFound is returned by RemoveDir when the target inode
	// isn't among the parent's entries.
	ErrDentryNotFound = errors.New("cfs: dentry not found")
)
