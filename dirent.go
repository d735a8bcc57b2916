// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cfs

// MaxNameLen is the maximum encodable length, in bytes, of a dentry name.
const MaxNameLen = 60

// DirEntrySize is the fixed, packed, on-disk size of a DirEntry record:
// a zero-padded name plus a uint32 inode index.
const DirEntrySize = MaxNameLen + 4

// DirEntry is a single directory entry: a (name, inode index) pair.
// Directories store these packed, in insertion order, inside the block
// addressed by their inode's BlkAddr[0].
type DirEntry struct {
	Name  string
	Inode uint32
}

// newDirEntry validates and constructs a DirEntry, returning
// ErrNameTooLong for names that don't fit in MaxNameLen bytes once
// encoded. Rejects instead of silently truncating.
func newDirEntry(name string, inode uint32) (DirEntry, error) {
	if len(name) > MaxNameLen {
		return DirEntry{}, ErrNameTooLong
	}
	return DirEntry{Name: name, Inode: inode}, nil
}

// Encode serializes the dentry to its packed 64-byte wire form.
func (d DirEntry) Encode() []byte {
	buf := make([]byte, DirEntrySize)
	copy(buf[:MaxNameLen], d.Name)
	le.PutUint32(buf[MaxNameLen:DirEntrySize], d.Inode)
	return buf
}

// DecodeDirEntry parses a single dentry record from buf, returning the
// remaining, undecoded bytes.
func DecodeDirEntry(buf []byte) (DirEntry, []byte, error) {
	if err := needLen(buf, DirEntrySize); err != nil {
		return DirEntry{}, nil, err
	}

	nameBytes := buf[:MaxNameLen]
	end := 0
	for end < len(nameBytes) && nameBytes[end] != 0 {
		end++
	}

	d := DirEntry{
		Name:  string(nameBytes[:end]),
		Inode: le.Uint32(buf[MaxNameLen:DirEntrySize]),
	}

	return d, buf[DirEntrySize:], nil
}
