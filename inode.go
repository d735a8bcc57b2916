// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

// NumDirectBlocks is the number of direct block addresses carried in each
// inode. Index 0 doubles as a directory's dentry block; regular files
// leave it unused and address their data starting at index 1 (see
// SPEC_FULL.md §0 for why the alternative, file data starting at index 0,
// was not chosen).
const NumDirectBlocks = 10

// InodeSize is the fixed, packed, on-disk size of an Inode record in
// bytes: four uint16 fields (8), four uint32 fields (16) and ten uint32
// block addresses (40).
const InodeSize = 2*4 + 4*4 + 4*NumDirectBlocks

// BadInode is the permanently-allocated, permanently-unreferenced inode
// index reserved at slot 0.
const BadInode uint32 = 0

// RootInode is the inode index of the root directory.
const RootInode uint32 = 1

// Mode bits used by CFS's own create operations. Full POSIX mode
// semantics beyond these are the caller's concern (see modebits.go for
// translating a host fs.FileInfo's mode into this field).
const (
	ModeDir     = 0o040000
	ModeRegular = 0o100000
	ModePerm    = 0o000777
)

// Inode is the fixed-size metadata record for a file or directory.
type Inode struct {
	Mode      uint16
	NChildren uint16 // directories only: dentries stored in blkaddr[0]
	UID       uint16
	GID       uint16
	Size      uint32 // bytes, for files; 0 for directories
	Atime     uint32 // seconds since epoch
	Mtime     uint32
	Ctime     uint32
	BlkAddr   [NumDirectBlocks]uint32
}

// IsDir reports whether the inode's mode bits mark it as a directory.
func (ino *Inode) IsDir() bool {
	return ino.Mode&ModeDir == ModeDir
}

// Encode serializes the inode to its packed 64-byte wire form.
func (ino *Inode) Encode() []byte {
	buf := make([]byte, InodeSize)
	le.PutUint16(buf[0:2], ino.Mode)
	le.PutUint16(buf[2:4], ino.NChildren)
	le.PutUint16(buf[4:6], ino.UID)
	le.PutUint16(buf[6:8], ino.GID)
	le.PutUint32(buf[8:12], ino.Size)
	le.PutUint32(buf[12:16], ino.Atime)
	le.PutUint32(buf[16:20], ino.Mtime)
	le.PutUint32(buf[20:24], ino.Ctime)
	for i, addr := range ino.BlkAddr {
		off := 24 + i*4
		le.PutUint32(buf[off:off+4], addr)
	}
	return buf
}

// DecodeInode parses a single inode record from buf, returning the
// remaining, undecoded bytes.
func DecodeInode(buf []byte) (Inode, []byte, error) {
	if err := needLen(buf, InodeSize); err != nil {
		return Inode{}, nil, err
	}

	var ino Inode
	ino.Mode = le.Uint16(buf[0:2])
	ino.NChildren = le.Uint16(buf[2:4])
	ino.UID = le.Uint16(buf[4:6])
	ino.GID = le.Uint16(buf[6:8])
	ino.Size = le.Uint32(buf[8:12])
	ino.Atime = le.Uint32(buf[12:16])
	ino.Mtime = le.Uint32(buf[16:20])
	ino.Ctime = le.Uint32(buf[20:24])
	for i := range ino.BlkAddr {
		off := 24 + i*4
		ino.BlkAddr[i] = le.Uint32(buf[off : off+4])
	}

	return ino, buf[InodeSize:], nil
}

// InodeList is a dense vector of exactly NInodes inodes, indexed directly
// by inode number. It performs no IAM bookkeeping of its own: callers must
// coordinate the inode allocation map themselves (spec.md §4.4) so that
// allocation policy stays in one place (Partition) while this stays a
// passive array.
type InodeList struct {
	inodes []Inode
}

// NewInodeList returns an InodeList of n zeroed inodes.
func NewInodeList(n int) *InodeList {
	return &InodeList{inodes: make([]Inode, n)}
}

// Len returns the number of inodes in the list.
func (l *InodeList) Len() int {
	return len(l.inodes)
}

// Get returns a copy of inode i.
func (l *InodeList) Get(i uint32) Inode {
	return l.inodes[i]
}

// Set overwrites inode i.
func (l *InodeList) Set(i uint32, ino Inode) {
	l.inodes[i] = ino
}

// Clear zeroes inode slot i.
func (l *InodeList) Clear(i uint32) {
	l.inodes[i] = Inode{}
}

// Encode serializes every inode in order, with no inter-record padding.
func (l *InodeList) Encode() []byte {
	buf := make([]byte, len(l.inodes)*InodeSize)
	for i, ino := range l.inodes {
		copy(buf[i*InodeSize:(i+1)*InodeSize], ino.Encode())
	}
	return buf
}

// DecodeInodeList parses exactly n consecutive inode records from buf.
func DecodeInodeList(buf []byte, n int) (*InodeList, []byte, error) {
	if err := needLen(buf, n*InodeSize); err != nil {
		return nil, nil, err
	}

	l := NewInodeList(n)
	rest := buf
	for i := 0; i < n; i++ {
		var err error
		var ino Inode
		ino, rest, err = DecodeInode(rest)
		if err != nil {
			return nil, nil, err
		}
		l.inodes[i] = ino
	}
	return l, rest, nil
}
