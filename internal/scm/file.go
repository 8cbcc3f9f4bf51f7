// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// File layout constants.
const (
	// jumpSize is the size of the GOTO instruction
	// that starts each header section: opcode, type tag, int32.
	jumpSize = 2 + 1 + 4
	// sectionHeaderSize is the distance from a section's jump
	// to its content.
	sectionHeaderSize = jumpSize + 1
	// jumpTargetOffset is the offset of the jump target within the jump.
	jumpTargetOffset = 2 + 1
	// modelNameSize is the size of a model name in the model section.
	modelNameSize = 24
	// GlobalsStart is the byte offset of the first global variable.
	GlobalsStart = sectionHeaderSize
)

// A File is a parsed bytecode resource.
// It is immutable once parsed and may be shared by many readers.
type File struct {
	data   []byte
	target Target

	modelSection   uint32
	missionSection uint32
	codeSection    uint32

	models         []string
	mainSize       uint32
	largestMission uint32
	missions       []uint32
}

// Region is a half-open byte range [Start, End) of a [File].
type Region struct {
	Start uint32
	End   uint32
}

// Contains reports whether addr is inside the region.
func (r Region) Contains(addr uint32) bool {
	return r.Start <= addr && addr < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("[%#06x, %#06x)", r.Start, r.End)
}

// Parse parses a bytecode resource.
// Parse keeps a reference to data,
// so the caller must not modify it afterward.
func Parse(data []byte) (*File, error) {
	f := &File{data: data}
	if err := f.parse(); err != nil {
		return nil, fmt.Errorf("parse scm: %v", err)
	}
	return f, nil
}

func (f *File) parse() error {
	if len(f.data) < sectionHeaderSize {
		return errors.New("file too short for header")
	}
	if err := f.checkJump(0); err != nil {
		return fmt.Errorf("globals section: %v", err)
	}
	f.target = Target(f.data[jumpSize])

	modelJump, err := f.jumpTarget(0)
	if err != nil {
		return fmt.Errorf("globals section: %v", err)
	}
	if modelJump < GlobalsStart {
		return fmt.Errorf("model section at %#x overlaps header", modelJump)
	}
	if err := f.checkJump(modelJump); err != nil {
		return fmt.Errorf("model section: %v", err)
	}
	f.modelSection = modelJump + sectionHeaderSize

	missionJump, err := f.jumpTarget(modelJump)
	if err != nil {
		return fmt.Errorf("model section: %v", err)
	}
	if missionJump < f.modelSection {
		return fmt.Errorf("mission section at %#x precedes model section", missionJump)
	}
	if err := f.checkJump(missionJump); err != nil {
		return fmt.Errorf("mission section: %v", err)
	}
	f.missionSection = missionJump + sectionHeaderSize

	f.codeSection, err = f.jumpTarget(missionJump)
	if err != nil {
		return fmt.Errorf("mission section: %v", err)
	}
	if f.codeSection < f.missionSection || f.codeSection > uint32(len(f.data)) {
		return fmt.Errorf("code section at %#x out of range", f.codeSection)
	}

	if err := f.parseModels(missionJump); err != nil {
		return fmt.Errorf("model section: %v", err)
	}
	if err := f.parseMissions(); err != nil {
		return fmt.Errorf("mission section: %v", err)
	}
	return nil
}

func (f *File) checkJump(addr uint32) error {
	if uint64(addr)+sectionHeaderSize > uint64(len(f.data)) {
		return fmt.Errorf("jump at %#x: %w", addr, ErrTruncated)
	}
	op := Opcode(binary.LittleEndian.Uint16(f.data[addr:]))
	if op != opGoto || DataType(f.data[addr+2]) != Int32 {
		return fmt.Errorf("expected jump at %#x (found %v)", addr, op)
	}
	return nil
}

func (f *File) jumpTarget(addr uint32) (uint32, error) {
	target := int32(binary.LittleEndian.Uint32(f.data[addr+jumpTargetOffset:]))
	if target < 0 || int64(target) > int64(len(f.data)) {
		return 0, fmt.Errorf("jump at %#x: target %d out of range", addr, target)
	}
	return uint32(target), nil
}

func (f *File) parseModels(end uint32) error {
	count, err := f.Uint32(f.modelSection)
	if err != nil {
		return err
	}
	start := uint64(f.modelSection) + 4
	if start+uint64(count)*modelNameSize > uint64(end) {
		return fmt.Errorf("%d models do not fit in section", count)
	}
	f.models = make([]string, 0, count)
	for i := range uint64(count) {
		off := start + i*modelNameSize
		f.models = append(f.models, cString(f.data[off:off+modelNameSize]))
	}
	return nil
}

func (f *File) parseMissions() error {
	var header [3]uint32
	for i := range header {
		var err error
		header[i], err = f.Uint32(f.missionSection + uint32(i)*4)
		if err != nil {
			return err
		}
	}
	f.mainSize = header[0]
	f.largestMission = header[1]
	count := header[2]
	if f.mainSize < f.codeSection || f.mainSize > uint32(len(f.data)) {
		return fmt.Errorf("main size %d out of range", f.mainSize)
	}
	tableStart := uint64(f.missionSection) + 12
	if tableStart+uint64(count)*4 > uint64(f.codeSection) {
		return fmt.Errorf("%d mission offsets do not fit in section", count)
	}
	f.missions = make([]uint32, 0, count)
	for i := range uint32(count) {
		off, _ := f.Uint32(uint32(tableStart) + i*4)
		if off < f.mainSize || off >= uint32(len(f.data)) {
			return fmt.Errorf("mission %d offset %#x out of range", i, off)
		}
		if len(f.missions) > 0 && off < f.missions[len(f.missions)-1] {
			return fmt.Errorf("mission %d offset %#x out of order", i, off)
		}
		f.missions = append(f.missions, off)
	}
	return nil
}

// Len returns the size of the file in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Bytes returns the file's contents.
// The caller must not modify the returned slice.
func (f *File) Bytes() []byte {
	return f.data
}

// Target returns the game the file was compiled for.
func (f *File) Target() Target {
	return f.target
}

// GlobalsSize returns the number of bytes of the file
// addressable by global variable operands.
// Global storage spans from the start of the file
// up to the model section's jump;
// offsets below [GlobalsStart] alias the header.
func (f *File) GlobalsSize() uint32 {
	return f.modelSection - sectionHeaderSize
}

// ModelSection returns the offset of the model section's content.
func (f *File) ModelSection() uint32 { return f.modelSection }

// MissionSection returns the offset of the mission section's content.
func (f *File) MissionSection() uint32 { return f.missionSection }

// CodeSection returns the offset of the first instruction
// after the header sections.
func (f *File) CodeSection() uint32 { return f.codeSection }

// Models returns the model names declared in the file.
func (f *File) Models() []string {
	return slices.Clone(f.models)
}

// MainSize returns the size of the main script,
// which starts at offset zero.
func (f *File) MainSize() uint32 { return f.mainSize }

// LargestMission returns the size of the largest mission script
// as declared in the header.
func (f *File) LargestMission() uint32 { return f.largestMission }

// MissionOffsets returns the start offsets of the mission scripts.
func (f *File) MissionOffsets() []uint32 {
	return slices.Clone(f.missions)
}

// MainRegion returns the region occupied by the main script.
func (f *File) MainRegion() Region {
	return Region{Start: 0, End: f.mainSize}
}

// MissionRegion returns the region occupied by the n'th mission script.
func (f *File) MissionRegion(n int) (Region, error) {
	if n < 0 || n >= len(f.missions) {
		return Region{}, fmt.Errorf("mission %d does not exist (file has %d)", n, len(f.missions))
	}
	r := Region{Start: f.missions[n], End: uint32(len(f.data))}
	if n+1 < len(f.missions) {
		r.End = f.missions[n+1]
	}
	return r, nil
}

// RegionOf returns the script region that contains addr:
// the main script or one of the missions.
func (f *File) RegionOf(addr uint32) (Region, bool) {
	if main := f.MainRegion(); main.Contains(addr) {
		return main, true
	}
	i, found := slices.BinarySearch(f.missions, addr)
	if !found {
		i--
	}
	if i < 0 {
		return Region{}, false
	}
	r, err := f.MissionRegion(i)
	if err != nil || !r.Contains(addr) {
		return Region{}, false
	}
	return r, true
}

// Uint8 returns the byte at addr.
func (f *File) Uint8(addr uint32) (uint8, error) {
	if uint64(addr) >= uint64(len(f.data)) {
		return 0, ErrTruncated
	}
	return f.data[addr], nil
}

// Uint16 returns the little-endian 16-bit integer at addr.
func (f *File) Uint16(addr uint32) (uint16, error) {
	if uint64(addr)+2 > uint64(len(f.data)) {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint16(f.data[addr:]), nil
}

// Uint32 returns the little-endian 32-bit integer at addr.
func (f *File) Uint32(addr uint32) (uint32, error) {
	if uint64(addr)+4 > uint64(len(f.data)) {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint32(f.data[addr:]), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
