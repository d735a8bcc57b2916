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

func TestNeedLen(t *testing.T) {
	require.NoError(t, needLen(make([]byte, 10), 10))
	require.NoError(t, needLen(make([]byte, 10), 4))
	require.ErrorIs(t, needLen(make([]byte, 3), 4), ErrShortBuffer)
}

func TestDecodeContextByteSizes(t *testing.T) {
	ctx := DecodeContext{
		BlockSize:   512,
		BamBlocks:   2,
		IamBlocks:   1,
		InodeBlocks: 3,
		NInodes:     16,
	}

	require.Equal(t, 1024, ctx.BamBytes())
	require.Equal(t, 512, ctx.IamBytes())
}

func TestSuperBlockDecodeContextMatchesFields(t *testing.T) {
	sb := SuperBlock{
		Magic:       MagicNumber,
		BlockSize:   4096,
		BamBlocks:   1,
		IamBlocks:   1,
		InodeBlocks: 2,
		NBlocks:     128,
		NInodes:     16,
	}

	ctx := sb.DecodeContext()
	require.Equal(t, sb.BlockSize, ctx.BlockSize)
	require.Equal(t, sb.BamBlocks, ctx.BamBlocks)
	require.Equal(t, sb.IamBlocks, ctx.IamBlocks)
	require.Equal(t, sb.InodeBlocks, ctx.InodeBlocks)
	require.Equal(t, sb.NInodes, ctx.NInodes)
}
