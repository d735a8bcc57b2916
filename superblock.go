// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

// MagicNumber identifies a CFS superblock.
const MagicNumber uint32 = 0x0CF5B10C

// SuperBlockHeaderSize is the size, in bytes, of the superblock's fixed
// fields, before padding to a full block.
const SuperBlockHeaderSize = 28

// DefaultBlockSize is used by Format when the caller doesn't request a
// different block size.
const DefaultBlockSize uint32 = 4096

// ReservedBlocks is the number of blocks reserved at the start of the
// device for the superblock.
const ReservedBlocks = 1

// SuperBlock is the geometry record occupying block 0 of a CFS image.
type SuperBlock struct {
	Magic       uint32
	BlockSize   uint32
	BamBlocks   uint32
	IamBlocks   uint32
	InodeBlocks uint32
	NBlocks     uint32
	NInodes     uint32
}

// Encode serializes the superblock, zero-padded to exactly sb.BlockSize
// bytes.
func (sb *SuperBlock) Encode() []byte {
	buf := make([]byte, sb.BlockSize)
	le.PutUint32(buf[0:4], sb.Magic)
	le.PutUint32(buf[4:8], sb.BlockSize)
	le.PutUint32(buf[8:12], sb.BamBlocks)
	le.PutUint32(buf[12:16], sb.IamBlocks)
	le.PutUint32(buf[16:20], sb.InodeBlocks)
	le.PutUint32(buf[20:24], sb.NBlocks)
	le.PutUint32(buf[24:28], sb.NInodes)
	// buf[28:] is already zeroed padding.
	return buf
}

// DecodeSuperBlock parses a superblock from buf, which must be at least
// SuperBlockHeaderSize bytes and at least the decoded BlockSize bytes. The
// returned rest slice begins after the whole superblock block, header and
// padding both, i.e. at the first byte of the BAM.
func DecodeSuperBlock(buf []byte) (SuperBlock, []byte, error) {
	if err := needLen(buf, SuperBlockHeaderSize); err != nil {
		return SuperBlock{}, nil, err
	}

	sb := SuperBlock{
		Magic:       le.Uint32(buf[0:4]),
		BlockSize:   le.Uint32(buf[4:8]),
		BamBlocks:   le.Uint32(buf[8:12]),
		IamBlocks:   le.Uint32(buf[12:16]),
		InodeBlocks: le.Uint32(buf[16:20]),
		NBlocks:     le.Uint32(buf[20:24]),
		NInodes:     le.Uint32(buf[24:28]),
	}

	if sb.Magic != MagicNumber {
		return SuperBlock{}, nil, ErrBadMagic
	}

	if err := needLen(buf, int(sb.BlockSize)); err != nil {
		return SuperBlock{}, nil, err
	}

	return sb, buf[sb.BlockSize:], nil
}

// InodesPerBlock returns how many fixed-size inode records fit in one
// block of this superblock's geometry.
func (sb *SuperBlock) InodesPerBlock() uint32 {
	return sb.BlockSize / InodeSize
}

// DecodeContext returns the geometry needed to decode this superblock's
// sibling regions (BAM, IAM, InodeList).
func (sb *SuperBlock) DecodeContext() DecodeContext {
	return DecodeContext{
		BlockSize:   sb.BlockSize,
		BamBlocks:   sb.BamBlocks,
		IamBlocks:   sb.IamBlocks,
		InodeBlocks: sb.InodeBlocks,
		NInodes:     sb.NInodes,
	}
}
