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

func TestInodeEncodeDecodeRoundTrip(t *testing.T) {
	ino := Inode{
		Mode:      ModeRegular | 0o644,
		NChildren: 0,
		UID:       1000,
		GID:       1000,
		Size:      4096,
		Atime:     1,
		Mtime:     2,
		Ctime:     3,
	}
	for i := range ino.BlkAddr {
		ino.BlkAddr[i] = uint32(i + 10)
	}

	buf := ino.Encode()
	require.Len(t, buf, InodeSize)

	got, rest, err := DecodeInode(buf)
	require.NoError(t, err)
	require.Equal(t, ino, got)
	require.Empty(t, rest)
}

func TestInodeSizeIs64Bytes(t *testing.T) {
	require.Equal(t, 64, InodeSize)
	require.Equal(t, 10, NumDirectBlocks)
}

func TestInodeIsDir(t *testing.T) {
	dir := Inode{Mode: ModeDir | 0o755}
	require.True(t, dir.IsDir())

	file := Inode{Mode: ModeRegular | 0o644}
	require.False(t, file.IsDir())
}

func TestInodeListGetSetClear(t *testing.T) {
	l := NewInodeList(4)
	require.Equal(t, 4, l.Len())

	ino := Inode{Mode: ModeRegular | 0o600, Size: 1}
	l.Set(2, ino)
	require.Equal(t, ino, l.Get(2))

	l.Clear(2)
	require.Equal(t, Inode{}, l.Get(2))
}

func TestInodeListEncodeDecodeRoundTrip(t *testing.T) {
	l := NewInodeList(3)
	l.Set(0, Inode{Mode: ModeDir | 0o755})
	l.Set(1, Inode{Mode: ModeRegular | 0o644, Size: 10})
	l.Set(2, Inode{Mode: ModeRegular | 0o600, Size: 20})

	buf := l.Encode()
	require.Len(t, buf, 3*InodeSize)

	got, rest, err := DecodeInodeList(buf, 3)
	require.NoError(t, err)
	require.Empty(t, rest)
	for i := 0; i < 3; i++ {
		require.Equal(t, l.Get(uint32(i)), got.Get(uint32(i)))
	}
}

func TestInodeListDecodeShortBuffer(t *testing.T) {
	_, _, err := DecodeInodeList(make([]byte, InodeSize), 2)
	require.ErrorIs(t, err, ErrShortBuffer)
}
