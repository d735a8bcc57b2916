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
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Partition binds an in-memory Image to a backing file, performing the
// geometry calculation at format time and implementing the directory and
// file protocol (spec.md §4.5) on top of it.
//
// All Partition operations execute on a single goroutine and perform
// blocking, sequential I/O against the backing file (spec.md §5): there
// are no suspension points inside a method, and each is a single
// synchronous transaction from the caller's perspective. Concurrent use of
// one Partition from multiple goroutines is undefined behaviour.
type Partition struct {
	file  *os.File
	image *Image

	// Logger receives terse diagnostics at the same points the original
	// implementation logged (spec.md §9's "Global state" design note asks
	// for this to be an injected collaborator rather than a process-wide
	// logger). Defaults to a discard logger.
	Logger *log.Logger

	// Clock supplies the current time for directories created by AddDir
	// (AddFile takes its timestamps from the Source). Defaults to
	// time.Now; tests inject a fixed clock for deterministic
	// atime/mtime/ctime assertions.
	Clock func() time.Time
}

// Format computes a CFS geometry from f's current size and blockSize
// (DefaultBlockSize if 0), writes a freshly-initialized image to offset 0
// of f, and returns a Partition bound to it.
func Format(f *os.File, blockSize uint32) (*Partition, error) {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cfs: statting backing file: %w", err)
	}

	geom, err := computeGeometry(info.Size(), blockSize)
	if err != nil {
		return nil, err
	}

	p := &Partition{
		file:   f,
		Logger: log.New(io.Discard, "", 0),
		Clock:  time.Now,
	}

	p.logf("format: device=%d bytes blocksize=%d nblocks=%d bam_blocks=%d iam_blocks=%d inode_blocks=%d ninodes=%d",
		info.Size(), geom.BlockSize, geom.NBlocks, geom.BamBlocks, geom.IamBlocks, geom.InodeBlocks, geom.NInodes)

	bam := NewBitmap(int(geom.BamBlocks) * int(blockSize))
	iam := NewBitmap(int(geom.IamBlocks) * int(blockSize))

	// Reserve block 0 for the root directory's dentry block. A device too
	// small to host any inodes (ninodes=0, e.g. a device under 16 MiB at
	// B=4096, since the ninodes formula floors nblocks/4096) still produces
	// a readable superblock; it just has no usable inode, block or
	// directory beyond what Format itself writes. On it AddDir/AddFile
	// report ErrNoFreeInodes and SetupRootDir reports an inode-out-of-range
	// error, rather than panicking.
	bam.Set(0)

	inodes := NewInodeList(int(geom.NInodes))

	if geom.NInodes > RootInode {
		iam.Set(int(BadInode))
		iam.Set(int(RootInode))

		root := Inode{
			Mode: ModeDir | 0o755,
		}
		// Set explicitly rather than relying on the zero value so that
		// listing the root directory works even before SetupRootDir runs
		// (spec.md §9 item 4: removes a dependency on initialization order).
		root.BlkAddr[0] = 0
		inodes.Set(RootInode, root)
	}

	p.image = &Image{
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

	p.logf("format: bam@%d iam@%d inodes@%d data@%d",
		p.image.BamOffset(), p.image.IamOffset(), p.image.InodeListOffset(), p.image.DataBlocksOffset())

	if err := p.writeCfs(); err != nil {
		return nil, err
	}

	return p, nil
}

// Open parses an existing CFS image from f, failing with ErrBadMagic if
// the superblock's magic number doesn't match.
func Open(f *os.File) (*Partition, error) {
	head := make([]byte, SuperBlockHeaderSize)
	if _, err := f.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("cfs: reading superblock header: %w", err)
	}

	if le.Uint32(head[0:4]) != MagicNumber {
		return nil, ErrBadMagic
	}
	blockSize := le.Uint32(head[4:8])

	sbBuf := make([]byte, blockSize)
	if _, err := f.ReadAt(sbBuf, 0); err != nil {
		return nil, fmt.Errorf("cfs: reading superblock: %w", err)
	}
	sb, _, err := DecodeSuperBlock(sbBuf)
	if err != nil {
		return nil, err
	}

	prefixLen := int64(blockSize) +
		int64(sb.BamBlocks)*int64(blockSize) +
		int64(sb.IamBlocks)*int64(blockSize) +
		int64(sb.InodeBlocks)*int64(blockSize)

	prefix := make([]byte, prefixLen)
	if _, err := f.ReadAt(prefix, 0); err != nil {
		return nil, fmt.Errorf("cfs: reading metadata prefix: %w", err)
	}

	image, err := DecodeImage(prefix)
	if err != nil {
		return nil, err
	}

	return &Partition{
		file:   f,
		image:  image,
		Logger: log.New(io.Discard, "", 0),
		Clock:  time.Now,
	}, nil
}

// Geometry returns this partition's computed geometry and region offsets.
func (p *Partition) Geometry() Geometry {
	sb := p.image.SuperBlock
	return Geometry{
		BlockSize:      sb.BlockSize,
		NBlocks:        sb.NBlocks,
		BamBlocks:      sb.BamBlocks,
		IamBlocks:      sb.IamBlocks,
		InodeBlocks:    sb.InodeBlocks,
		NInodes:        sb.NInodes,
		InodesPerBlock: sb.InodesPerBlock(),

		SuperBlockOffset: p.image.SuperBlockOffset(),
		BamOffset:        p.image.BamOffset(),
		IamOffset:        p.image.IamOffset(),
		InodeListOffset:  p.image.InodeListOffset(),
		DataBlocksOffset: p.image.DataBlocksOffset(),
	}
}

// Stat returns a copy of the inode at inodeIdx.
func (p *Partition) Stat(inodeIdx uint32) (Inode, error) {
	if inodeIdx >= uint32(p.image.Inodes.Len()) {
		return Inode{}, fmt.Errorf("cfs: inode index %d out of range", inodeIdx)
	}
	return p.image.Inodes.Get(inodeIdx), nil
}

// IsInodeAllocated reports whether the Inode Allocation Map marks idx as
// in use. Part of spec.md §6's "accessors for region offsets and raw
// geometry" catch-all, useful to fsck-style diagnostics and tests alike.
func (p *Partition) IsInodeAllocated(idx uint32) bool {
	return p.image.Iam.Get(int(idx))
}

// IsBlockAllocated reports whether the Block Allocation Map marks idx as
// in use.
func (p *Partition) IsBlockAllocated(idx uint32) bool {
	return p.image.Bam.Get(int(idx))
}

// SetupRootDir appends "." and ".." dentries to the root directory,
// both pointing back to the root. Called once, after Format.
func (p *Partition) SetupRootDir() error {
	if err := p.addDentry(RootInode, ".", RootInode); err != nil {
		return err
	}
	return p.addDentry(RootInode, "..", RootInode)
}

// AddDir creates a new, empty subdirectory named name inside the
// directory at parentIdx, returning the new directory's inode index.
func (p *Partition) AddDir(parentIdx uint32, name string) (uint32, error) {
	if len(name) > MaxNameLen {
		return 0, ErrNameTooLong
	}

	childIdx, blk, err := p.allocInodeAndBlock()
	if err != nil {
		return 0, err
	}

	now := uint32(p.Clock().Unix())

	var blkaddr [NumDirectBlocks]uint32
	blkaddr[0] = blk

	ino := Inode{
		Mode:      ModeDir | 0o755,
		NChildren: 0,
		UID:       uint16(os.Getuid()),
		GID:       uint16(os.Getgid()),
		Size:      0,
		Atime:     now,
		Mtime:     now,
		Ctime:     now,
		BlkAddr:   blkaddr,
	}
	p.image.Inodes.Set(childIdx, ino)

	p.logf("add_dir: parent=%d name=%q inode=%d block=%d", parentIdx, name, childIdx, blk)

	if err := p.addDentry(parentIdx, name, childIdx); err != nil {
		return 0, err
	}

	return childIdx, nil
}

// maxFileBlocks is the largest number of direct data blocks a regular
// file can use: ten direct addresses, less one reserved (wasted) slot at
// index 0 that mirrors the directory convention (spec.md §9 item 5).
const maxFileBlocks = NumDirectBlocks - 1

// AddFile creates a new regular file named name inside the directory at
// parentIdx, ingesting its content and metadata from src, and returns the
// new file's inode index.
func (p *Partition) AddFile(parentIdx uint32, name string, src Source) (uint32, error) {
	if len(name) > MaxNameLen {
		return 0, ErrNameTooLong
	}

	blockSize := uint64(p.image.SuperBlock.BlockSize)
	size := src.Size()
	if size < 0 {
		return 0, fmt.Errorf("cfs: negative source size")
	}
	if uint64(size) > maxFileBlocks*blockSize {
		return 0, ErrFileTooLarge
	}

	nblocks := ceilDiv(uint64(size), blockSize)

	rawIdx, ok := p.image.Iam.FirstFree()
	if !ok || rawIdx >= p.image.Inodes.Len() {
		return 0, ErrNoFreeInodes
	}
	p.image.Iam.Set(rawIdx)
	childIdx := uint32(rawIdx)

	var blkaddr [NumDirectBlocks]uint32
	for i := uint64(0); i <= nblocks; i++ {
		blk, ok := p.image.Bam.FirstFree()
		if !ok {
			return 0, ErrNoFreeBlocks
		}
		p.image.Bam.Set(blk)
		blkaddr[i] = uint32(blk)
	}

	buf := make([]byte, blockSize)
	for i := uint64(1); i <= nblocks; i++ {
		for j := range buf {
			buf[j] = 0
		}

		_, err := io.ReadFull(src, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("cfs: reading source data for %q: %w", name, err)
		}

		offset := p.dataBlockOffset(blkaddr[i])
		if err := p.writeBlockAt(offset, buf); err != nil {
			return 0, err
		}
	}

	ino := Inode{
		Mode:      src.Mode(),
		NChildren: 0,
		UID:       src.UID(),
		GID:       src.GID(),
		Size:      uint32(size),
		Atime:     src.Atime(),
		Mtime:     src.Mtime(),
		Ctime:     src.Ctime(),
		BlkAddr:   blkaddr,
	}
	p.image.Inodes.Set(childIdx, ino)

	p.logf("add_file: parent=%d name=%q inode=%d size=%d blocks=%d", parentIdx, name, childIdx, size, nblocks)

	if err := p.addDentry(parentIdx, name, childIdx); err != nil {
		return 0, err
	}

	return childIdx, nil
}

// ListDentries returns the directory entries of the directory at
// parentIdx, in insertion order.
func (p *Partition) ListDentries(parentIdx uint32) ([]DirEntry, error) {
	ino, err := p.Stat(parentIdx)
	if err != nil {
		return nil, err
	}
	if !ino.IsDir() {
		return nil, ErrNotDirectory
	}

	buf, err := p.readBlockAt(p.dataBlockOffset(ino.BlkAddr[0]))
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, ino.NChildren)
	rest := buf
	for i := uint16(0); i < ino.NChildren; i++ {
		var d DirEntry
		d, rest, err = DecodeDirEntry(rest)
		if err != nil {
			return nil, fmt.Errorf("cfs: decoding dentry %d of inode %d: %w", i, parentIdx, err)
		}
		entries = append(entries, d)
	}

	return entries, nil
}

// ReadFile returns the full content of the regular file at inodeIdx.
func (p *Partition) ReadFile(inodeIdx uint32) ([]byte, error) {
	ino, err := p.Stat(inodeIdx)
	if err != nil {
		return nil, err
	}
	if ino.IsDir() {
		return nil, ErrNotDirectory
	}

	blockSize := uint64(p.image.SuperBlock.BlockSize)
	nblocks := ceilDiv(uint64(ino.Size), blockSize)

	out := make([]byte, 0, nblocks*blockSize)
	for i := uint64(1); i <= nblocks; i++ {
		buf, err := p.readBlockAt(p.dataBlockOffset(ino.BlkAddr[i]))
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	return out[:ino.Size], nil
}

// RemoveDir removes the dentry for childIdx from the directory at
// parentIdx, rewrites the parent's dentry block, and frees the child
// inode and its data blocks.
func (p *Partition) RemoveDir(parentIdx, childIdx uint32) error {
	entries, err := p.ListDentries(parentIdx)
	if err != nil {
		return err
	}

	kept := entries[:0:0]
	found := false
	for _, e := range entries {
		if e.Inode == childIdx {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return ErrDentryNotFound
	}

	blockSize := p.image.SuperBlock.BlockSize
	buf := make([]byte, blockSize)
	off := 0
	for _, e := range kept {
		copy(buf[off:off+DirEntrySize], e.Encode())
		off += DirEntrySize
	}

	parent, err := p.Stat(parentIdx)
	if err != nil {
		return err
	}
	if err := p.writeBlockAt(p.dataBlockOffset(parent.BlkAddr[0]), buf); err != nil {
		return err
	}

	parent.NChildren = uint16(len(kept))
	p.image.Inodes.Set(parentIdx, parent)

	p.logf("remove_dir: parent=%d child=%d remaining=%d", parentIdx, childIdx, len(kept))

	return p.removeInode(childIdx)
}

// removeInode frees an inode and every block it holds, including the
// reserved/dentry block at BlkAddr[0]. Uses ⌈size/blocksize⌉ rather than
// the floor division the original implementation used, so the final
// partial block is no longer leaked (spec.md §9 item 2).
func (p *Partition) removeInode(idx uint32) error {
	ino, err := p.Stat(idx)
	if err != nil {
		return err
	}

	p.image.Iam.Clear(int(idx))
	p.image.Inodes.Clear(idx)

	blockSize := uint64(p.image.SuperBlock.BlockSize)
	dataBlocks := ceilDiv(uint64(ino.Size), blockSize)

	for i := uint64(0); i <= dataBlocks; i++ {
		p.image.Bam.Clear(int(ino.BlkAddr[i]))
	}

	return p.writeCfs()
}

// addDentry appends a (name, childIdx) dentry to the directory at
// parentIdx's dentry block, increments its NChildren, and flushes the
// metadata prefix.
func (p *Partition) addDentry(parentIdx uint32, name string, childIdx uint32) error {
	dentry, err := newDirEntry(name, childIdx)
	if err != nil {
		return err
	}

	parent, err := p.Stat(parentIdx)
	if err != nil {
		return err
	}

	offset := p.dataBlockOffset(parent.BlkAddr[0])
	buf, err := p.readBlockAt(offset)
	if err != nil {
		return err
	}

	dentryOffset := int(parent.NChildren) * DirEntrySize
	if dentryOffset+DirEntrySize > len(buf) {
		return fmt.Errorf("cfs: directory inode %d has no room for another dentry", parentIdx)
	}
	copy(buf[dentryOffset:dentryOffset+DirEntrySize], dentry.Encode())

	if err := p.writeBlockAt(offset, buf); err != nil {
		return err
	}

	parent.NChildren++
	p.image.Inodes.Set(parentIdx, parent)

	return p.writeCfs()
}

// dataBlockOffset converts a data block address into an absolute byte
// offset within the backing file.
func (p *Partition) dataBlockOffset(addr uint32) int64 {
	return p.image.DataBlocksOffset() + int64(addr)*int64(p.image.SuperBlock.BlockSize)
}

// readBlockAt reads one full block's worth of bytes starting at offset.
func (p *Partition) readBlockAt(offset int64) ([]byte, error) {
	buf := make([]byte, p.image.SuperBlock.BlockSize)
	if _, err := p.file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("cfs: seeking to offset %d: %w", offset, err)
	}
	if _, err := io.ReadFull(p.file, buf); err != nil {
		return nil, fmt.Errorf("cfs: reading block at offset %d: %w", offset, err)
	}
	return buf, nil
}

// writeBlockAt writes buf (must be exactly one block long) at offset.
func (p *Partition) writeBlockAt(offset int64, buf []byte) error {
	if _, err := p.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("cfs: seeking to offset %d: %w", offset, err)
	}
	if _, err := p.file.Write(buf); err != nil {
		return fmt.Errorf("cfs: writing block at offset %d: %w", offset, err)
	}
	return nil
}

// writeCfs serializes the in-memory Image and writes it at offset 0,
// always seeking there first (spec.md §4.5).
func (p *Partition) writeCfs() error {
	buf := p.image.Encode()
	if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("cfs: seeking to offset 0: %w", err)
	}
	if _, err := p.file.Write(buf); err != nil {
		return fmt.Errorf("cfs: writing metadata prefix: %w", err)
	}
	return nil
}

// allocInodeAndBlock allocates one inode index and one data block,
// marking both bitmaps. Used by AddDir, whose child always needs exactly
// one block (its dentry table).
func (p *Partition) allocInodeAndBlock() (inodeIdx uint32, blockIdx uint32, err error) {
	idx, ok := p.image.Iam.FirstFree()
	if !ok || idx >= p.image.Inodes.Len() {
		return 0, 0, ErrNoFreeInodes
	}
	p.image.Iam.Set(idx)

	blk, ok := p.image.Bam.FirstFree()
	if !ok {
		return 0, 0, ErrNoFreeBlocks
	}
	p.image.Bam.Set(blk)

	return uint32(idx), uint32(blk), nil
}

// logf writes a diagnostic line through Logger, which is never nil on a
// Partition returned by Format or Open.
func (p *Partition) logf(format string, args ...any) {
	p.Logger.Printf(format, args...)
}

// Close flushes buffered writes to durable storage (the fsync
// equivalent spec.md §5 requires) and closes the backing file.
func (p *Partition) Close() error {
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("cfs: syncing backing file: %w", err)
	}
	return p.file.Close()
}
