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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilDiv(t *testing.T) {
	require.Equal(t, uint64(0), ceilDiv(0, 4096))
	require.Equal(t, uint64(1), ceilDiv(1, 4096))
	require.Equal(t, uint64(1), ceilDiv(4096, 4096))
	require.Equal(t, uint64(2), ceilDiv(4097, 4096))
}

func TestComputeGeometryRejectsNonPowerOfTwoBlockSize(t *testing.T) {
	_, err := computeGeometry(1 << 20, 4097)
	require.ErrorIs(t, err, ErrInvalidBlockSize)

	_, err = computeGeometry(1<<20, 0)
	require.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestComputeGeometryOffsetsAreContiguousAndOrdered(t *testing.T) {
	const blockSize = 4096
	geom, err := computeGeometry(64*1024*1024, blockSize)
	require.NoError(t, err)

	require.Equal(t, int64(0), geom.SuperBlockOffset)
	require.Equal(t, int64(blockSize), geom.BamOffset)
	require.Equal(t, geom.BamOffset+int64(geom.BamBlocks)*blockSize, geom.IamOffset)
	require.Equal(t, geom.IamOffset+int64(geom.IamBlocks)*blockSize, geom.InodeListOffset)
	require.Equal(t, geom.InodeListOffset+int64(geom.InodeBlocks)*blockSize, geom.DataBlocksOffset)

	require.Less(t, geom.DataBlocksOffset, int64(geom.NBlocks)*blockSize+geom.InodeListOffset+1)
}

func TestComputeGeometryFormulas(t *testing.T) {
	const blockSize = 4096
	deviceLen := int64(16 * 4096 * 4096) // 16 "4096-block units"
	geom, err := computeGeometry(deviceLen, blockSize)
	require.NoError(t, err)

	nblocks := uint64(deviceLen) / blockSize
	bitsPerBlock := uint64(blockSize) * 8
	inodesPerBlock := uint64(blockSize) / InodeSize
	ninodes := (nblocks / 4096) * inodesPerBlock

	require.Equal(t, uint32(nblocks), geom.NBlocks)
	require.Equal(t, uint32(ceilDiv(nblocks, bitsPerBlock)), geom.BamBlocks)
	require.Equal(t, uint32(ninodes), geom.NInodes)
	require.Equal(t, uint32(ceilDiv(ninodes, bitsPerBlock)), geom.IamBlocks)
	require.Equal(t, uint32(ceilDiv(ninodes*InodeSize, blockSize)), geom.InodeBlocks)
}

func TestImageEncodeDecodeRoundTrip(t *testing.T) {
	const blockSize = 512
	geom, err := computeGeometry(4096*blockSize, blockSize)
	require.NoError(t, err)

	bam := NewBitmap(int(geom.BamBlocks) * blockSize)
	iam := NewBitmap(int(geom.IamBlocks) * blockSize)
	bam.Set(0)
	iam.Set(int(RootInode))

	inodes := NewInodeList(int(geom.NInodes))
	inodes.Set(RootInode, Inode{Mode: ModeDir | 0o755})

	img := &Image{
		SuperBlock: SuperBlock{
			Magic:       MagicNumber,
			BlockSize:   blockSize,
			BamBlocks:   geom.BamBlocks,
			IamBlocks:   geom.IamBlocks,
			InodeBlocks: geom.InodeBlocks,
			NBlocks:     geom.NBlocks,
			NInodes:     geom.NInodes,
		},
		Bam:    bam,
		Iam:    iam,
		Inodes: inodes,
	}

	buf := img.Encode()
	require.Len(t, buf, int(img.MetadataSize()))

	got, err := DecodeImage(buf)
	require.NoError(t, err)

	require.Equal(t, img.SuperBlock, got.SuperBlock)
	require.Equal(t, img.Bam.Bytes(), got.Bam.Bytes())
	require.Equal(t, img.Iam.Bytes(), got.Iam.Bytes())
	require.Equal(t, img.Inodes.Get(RootInode), got.Inodes.Get(RootInode))
}
