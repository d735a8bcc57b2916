// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

// Image is the in-memory composite of a CFS metadata prefix: the
// superblock plus the two allocation bitmaps plus the inode table. It
// knows how to compute its own region offsets and to serialize to, or
// parse from, a contiguous byte buffer.
type Image struct {
	SuperBlock SuperBlock
	Bam        *Bitmap
	Iam        *Bitmap
	Inodes     *InodeList
}

// SuperBlockOffset is always 0.
func (img *Image) SuperBlockOffset() int64 {
	return 0
}

// BamOffset is the byte offset of the Block Allocation Map.
func (img *Image) BamOffset() int64 {
	return int64(img.SuperBlock.BlockSize) * ReservedBlocks
}

// IamOffset is the byte offset of the Inode Allocation Map.
func (img *Image) IamOffset() int64 {
	return img.BamOffset() + int64(img.SuperBlock.BamBlocks)*int64(img.SuperBlock.BlockSize)
}

// InodeListOffset is the byte offset of the inode table.
func (img *Image) InodeListOffset() int64 {
	return img.IamOffset() + int64(img.SuperBlock.IamBlocks)*int64(img.SuperBlock.BlockSize)
}

// DataBlocksOffset is the byte offset of the first data block.
func (img *Image) DataBlocksOffset() int64 {
	return img.InodeListOffset() + int64(img.SuperBlock.InodeBlocks)*int64(img.SuperBlock.BlockSize)
}

// MetadataSize is the total size, in bytes, of the metadata prefix
// (everything before the data blocks).
func (img *Image) MetadataSize() int64 {
	return img.DataBlocksOffset()
}

// Encode serializes the full metadata prefix: superblock, BAM, IAM, inode
// table, in that order, matching the on-disk layout in spec.md §6.
func (img *Image) Encode() []byte {
	sb := img.SuperBlock.Encode()
	bam := img.Bam.Bytes()
	iam := img.Iam.Bytes()
	inodes := img.Inodes.Encode()

	buf := make([]byte, 0, len(sb)+len(bam)+len(iam)+len(inodes))
	buf = append(buf, sb...)
	buf = append(buf, bam...)
	buf = append(buf, iam...)
	buf = append(buf, inodes...)
	return buf
}

// DecodeImage parses an Image from buf. The superblock is decoded first;
// its fields then parameterize the decode of the BAM, IAM and InodeList,
// per spec.md §4.1's decode-context design.
func DecodeImage(buf []byte) (*Image, error) {
	sb, rest, err := DecodeSuperBlock(buf)
	if err != nil {
		return nil, err
	}

	ctx := sb.DecodeContext()

	if err := needLen(rest, ctx.BamBytes()); err != nil {
		return nil, err
	}
	bam := bitmapFromBytes(append([]byte(nil), rest[:ctx.BamBytes()]...))
	rest = rest[ctx.BamBytes():]

	if err := needLen(rest, ctx.IamBytes()); err != nil {
		return nil, err
	}
	iam := bitmapFromBytes(append([]byte(nil), rest[:ctx.IamBytes()]...))
	rest = rest[ctx.IamBytes():]

	inodes, _, err := DecodeInodeList(rest, int(ctx.NInodes))
	if err != nil {
		return nil, err
	}

	return &Image{
		SuperBlock: sb,
		Bam:        bam,
		Iam:        iam,
		Inodes:     inodes,
	}, nil
}

// Geometry bundles the computed quantities that derive from a device
// length and a block size (spec.md §4.3), plus the region offsets they
// imply. It's returned by Partition.Geometry as the "accessors for region
// offsets and raw geometry" spec.md §6 calls for.
type Geometry struct {
	BlockSize      uint32
	NBlocks        uint32
	BamBlocks      uint32
	IamBlocks      uint32
	InodeBlocks    uint32
	NInodes        uint32
	InodesPerBlock uint32

	SuperBlockOffset int64
	BamOffset        int64
	IamOffset        int64
	InodeListOffset  int64
	DataBlocksOffset int64
}

// ceilDiv computes ⌈a/b⌉ for non-negative integers using the standard
// (a + b - 1) / b identity, as spec.md §4.3 requires verbatim so that no
// bit or byte is left unaddressable.
func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// computeGeometry derives a full Geometry from a device length and block
// size, per spec.md §4.3. blockSize must be a power of two.
func computeGeometry(deviceLen int64, blockSize uint32) (Geometry, error) {
	if blockSize == 0 || blockSize&(blockSize-1) != 0 {
		return Geometry{}, ErrInvalidBlockSize
	}

	b := uint64(blockSize)
	nblocks := uint64(deviceLen) / b
	bitsPerBlock := b * 8
	bamBlocks := ceilDiv(nblocks, bitsPerBlock)

	inodesPerBlock := b / InodeSize
	ninodes := (nblocks / 4096) * inodesPerBlock

	iamBlocks := ceilDiv(ninodes, bitsPerBlock)
	inodeBlocks := ceilDiv(ninodes*InodeSize, b)

	g := Geometry{
		BlockSize:      blockSize,
		NBlocks:        uint32(nblocks),
		BamBlocks:      uint32(bamBlocks),
		IamBlocks:      uint32(iamBlocks),
		InodeBlocks:    uint32(inodeBlocks),
		NInodes:        uint32(ninodes),
		InodesPerBlock: uint32(inodesPerBlock),
	}

	g.SuperBlockOffset = 0
	g.BamOffset = int64(blockSize) * ReservedBlocks
	g.IamOffset = g.BamOffset + int64(g.BamBlocks)*int64(blockSize)
	g.InodeListOffset = g.IamOffset + int64(g.IamBlocks)*int64(blockSize)
	g.DataBlocksOffset = g.InodeListOffset + int64(g.InodeBlocks)*int64(blockSize)

	return g, nil
}
