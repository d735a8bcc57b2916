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

func TestSuperBlockEncodeDecodeRoundTrip(t *testing.T) {
	sb := SuperBlock{
		Magic:       MagicNumber,
		BlockSize:   4096,
		BamBlocks:   1,
		IamBlocks:   1,
		InodeBlocks: 2,
		NBlocks:     128,
		NInodes:     16,
	}

	buf := sb.Encode()
	require.Len(t, buf, int(sb.BlockSize))

	got, rest, err := DecodeSuperBlock(buf)
	require.NoError(t, err)
	require.Equal(t, sb, got)
	require.Empty(t, rest)
}

func TestSuperBlockEncodePadsWithZeroes(t *testing.T) {
	sb := SuperBlock{Magic: MagicNumber, BlockSize: 512}
	buf := sb.Encode()

	for _, b := range buf[SuperBlockHeaderSize:] {
		require.Zero(t, b)
	}
}

func TestSuperBlockDecodeBadMagic(t *testing.T) {
	sb := SuperBlock{Magic: 0xdeadbeef, BlockSize: 512}
	buf := sb.Encode()

	_, _, err := DecodeSuperBlock(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestSuperBlockDecodeShortBuffer(t *testing.T) {
	_, _, err := DecodeSuperBlock(make([]byte, 10))
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestSuperBlockInodesPerBlock(t *testing.T) {
	sb := SuperBlock{BlockSize: 4096}
	require.Equal(t, uint32(4096/InodeSize), sb.InodesPerBlock())
}
