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
	"bytes"
	"fmt"
	"io"
	"io/fs"
)

// Source is the byte source AddFile ingests a regular file's contents
// and metadata from: spec.md §4.5's "a byte source exposing size, mode,
// uid, gid, atime, mtime, ctime and a streaming read", generalized into a
// Go interface.
type Source interface {
	io.Reader
	Size() int64
	Mode() uint16
	UID() uint16
	GID() uint16
	Atime() uint32
	Mtime() uint32
	Ctime() uint32
}

type bytesSource struct {
	r                   *bytes.Reader
	size                int64
	mode                uint16
	uid, gid            uint16
	atime, mtime, ctime uint32
}

// NewBytesSource wraps an in-memory byte slice as a Source, for callers
// that already have file content and metadata in hand (the common case in
// tests, and for programmatic ingestion that doesn't go through a host
// fs.FS).
func NewBytesSource(data []byte, mode uint16, uid, gid uint16, atime, mtime, ctime uint32) Source {
	return &bytesSource{
		r:     bytes.NewReader(data),
		size:  int64(len(data)),
		mode:  mode,
		uid:   uid,
		gid:   gid,
		atime: atime,
		mtime: mtime,
		ctime: ctime,
	}
}

func (s *bytesSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *bytesSource) Size() int64                { return s.size }
func (s *bytesSource) Mode() uint16               { return s.mode }
func (s *bytesSource) UID() uint16                { return s.uid }
func (s *bytesSource) GID() uint16                { return s.gid }
func (s *bytesSource) Atime() uint32              { return s.atime }
func (s *bytesSource) Mtime() uint32              { return s.mtime }
func (s *bytesSource) Ctime() uint32              { return s.ctime }

type fsFileSource struct {
	io.ReadCloser
	size     int64
	mode     uint16
	uid, gid uint16
	mtime    uint32
}

func (s *fsFileSource) Size() int64  { return s.size }
func (s *fsFileSource) Mode() uint16 { return s.mode }
func (s *fsFileSource) UID() uint16  { return s.uid }
func (s *fsFileSource) GID() uint16  { return s.gid }

// Atime and Ctime aren't exposed by the fs.FileInfo interface (no
// standard Go filesystem abstraction carries them); both fall back to
// Mtime, the same simplification the stdlib's own archive/tar and io/fs
// helpers make when round-tripping through a minimal FileInfo.
func (s *fsFileSource) Atime() uint32 { return s.mtime }
func (s *fsFileSource) Mtime() uint32 { return s.mtime }
func (s *fsFileSource) Ctime() uint32 { return s.mtime }

// FileSourceFromFS adapts a single named file of a host fs.FS into a
// Source, for ingesting real files into a CFS image. It reads exactly one
// file's metadata and opens exactly one file for streaming; it is not a
// directory walker, which discovers and recurses a whole tree and stays
// the responsibility of an external collaborator. Grounded on
// erofs/writer.go's dataForInode, which solves the same single-file
// fs.FS-to-inode-data problem for EROFS images.
func FileSourceFromFS(fsys fs.FS, name string) (Source, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cfs: opening source file %q: %w", name, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cfs: statting source file %q: %w", name, err)
	}

	if fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("cfs: %q is a directory, not a regular file", name)
	}

	uid, gid := ownerFromFileInfo(fi)

	return &fsFileSource{
		ReadCloser: f,
		size:       fi.Size(),
		mode:       modeFromFileMode(fi.Mode()),
		uid:        uid,
		gid:        gid,
		mtime:      uint32(fi.ModTime().Unix()),
	}, nil
}
