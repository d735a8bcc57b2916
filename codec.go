// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package cfs implements CFS, a minimal on-disk filesystem that formats a
// backing file into a flat, statically-sized layout: a superblock, two
// allocation bitmaps, a dense inode table and a pool of fixed-size data
// blocks.
//
// Every on-disk record has a bit-exact wire form: scalars are little-endian
// and unaligned, fixed arrays are written element by element, and
// length-prefixed vectors (the bitmaps, the inode table) take their length
// from a DecodeContext rather than encoding it inline, because that length
// is already present in the superblock.
package cfs

import "encoding/binary"

// DecodeContext carries the geometry needed to size the variable-length
// members of an Image (the BAM, the IAM, the InodeList) while decoding
// them. It is populated from a freshly-decoded Superblock before those
// members are parsed; their own on-disk form carries no length prefix.
type DecodeContext struct {
	BlockSize   uint32
	BamBlocks   uint32
	IamBlocks   uint32
	InodeBlocks uint32
	NInodes     uint32
}

// BamBytes returns the length in bytes of the BAM region.
func (c DecodeContext) BamBytes() int {
	return int(c.BamBlocks) * int(c.BlockSize)
}

// IamBytes returns the length in bytes of the IAM region.
func (c DecodeContext) IamBytes() int {
	return int(c.IamBlocks) * int(c.BlockSize)
}

// needLen reports ErrShortBuffer if buf is shorter than n bytes.
func needLen(buf []byte, n int) error {
	if len(buf) < n {
		return ErrShortBuffer
	}
	return nil
}

// le is the single byte order used throughout CFS's on-disk format, per
// spec: "all multibyte scalars are little-endian".
var le = binary.LittleEndian
