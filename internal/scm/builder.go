// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// A Builder assembles a bytecode file.
// The zero value is not usable; create Builders with [NewBuilder].
type Builder struct {
	target   Target
	globals  []int32 // cells starting at GlobalsStart
	models   []string
	main     *Code
	missions []*Code
}

// Code is a block of instructions in a [Builder]:
// the main script or a mission.
type Code struct {
	target  Target
	mission bool
	buf     []byte
	fixups  []fixup
	base    uint32
}

// A Label is a position in a [Code] block.
// Operands created with [LabelArg] are resolved to the label's address
// when the file is assembled.
type Label struct {
	code *Code
	pos  int
}

type fixup struct {
	pos   int
	label *Label
}

// NewBuilder returns a new builder for a file with the given target.
func NewBuilder(target Target) *Builder {
	b := &Builder{target: target}
	b.main = &Code{target: target}
	return b
}

// Globals ensures the file has storage for at least n global variables
// after the header, i.e. cells 2 through n+1.
func (b *Builder) Globals(n int) {
	for len(b.globals) < n {
		b.globals = append(b.globals, 0)
	}
}

// SetGlobal sets the initial value of a global variable cell.
// Cells below 2 alias the header and cannot be set.
func (b *Builder) SetGlobal(cell int, v int32) {
	if cell < GlobalsStart/4 {
		panic("SetGlobal: cell aliases header")
	}
	b.Globals(cell - GlobalsStart/4 + 1)
	b.globals[cell-GlobalsStart/4] = v
}

// Model adds a model name to the model section.
func (b *Builder) Model(name string) {
	b.models = append(b.models, name)
}

// Main returns the main script's code block.
func (b *Builder) Main() *Code {
	return b.main
}

// Mission adds a new mission code block.
// Missions are numbered in the order they are added.
func (b *Builder) Mission() *Code {
	c := &Code{target: b.target, mission: true}
	b.missions = append(b.missions, c)
	return c
}

// Label returns a new unplaced label in the block.
func (c *Code) Label() *Label {
	return &Label{code: c, pos: -1}
}

// Mark places l at the current end of the block.
func (c *Code) Mark(l *Label) {
	if l.code != c {
		panic("Mark: label belongs to another block")
	}
	l.pos = len(c.buf)
}

// Here returns a new label placed at the current end of the block.
func (c *Code) Here() *Label {
	l := c.Label()
	c.Mark(l)
	return l
}

// Op appends an instruction.
func (c *Code) Op(op Opcode, args ...Operand) {
	c.buf = binary.LittleEndian.AppendUint16(c.buf, uint16(op))
	for _, a := range args {
		if a.label != nil {
			c.buf = append(c.buf, byte(Int32))
			c.fixups = append(c.fixups, fixup{pos: len(c.buf), label: a.label})
			c.buf = append(c.buf, 0, 0, 0, 0)
			continue
		}
		c.buf = appendOperand(c.buf, a, c.target)
	}
}

// Not appends an instruction with its condition result negated.
func (c *Code) Not(op Opcode, args ...Operand) {
	c.Op(op|NegateMask, args...)
}

// Raw appends bytes to the block verbatim.
func (c *Code) Raw(data ...byte) {
	c.buf = append(c.buf, data...)
}

// Len returns the number of bytes in the block.
func (c *Code) Len() int {
	return len(c.buf)
}

// LabelArg returns an operand holding the address of l.
// References from inside a mission to a label in the same mission
// are encoded relative to the mission's start,
// as negative numbers.
func LabelArg(l *Label) Operand {
	return Operand{Type: Int32, label: l}
}

// Address returns the address of the label in the assembled file.
// Address is only valid after a successful call to [Builder.Bytes].
func (l *Label) Address() uint32 {
	return l.code.base + uint32(l.pos)
}

// Bytes assembles the file.
func (b *Builder) Bytes() ([]byte, error) {
	modelJump := uint32(GlobalsStart + 4*len(b.globals))
	missionJump := modelJump + sectionHeaderSize + 4 + uint32(modelNameSize*len(b.models))
	codeStart := missionJump + sectionHeaderSize + 12 + uint32(4*len(b.missions))

	b.main.base = codeStart
	end := codeStart + uint32(len(b.main.buf))
	mainSize := end
	var largest uint32
	for _, m := range b.missions {
		m.base = end
		end += uint32(len(m.buf))
		largest = max(largest, uint32(len(m.buf)))
	}

	out := make([]byte, 0, end)
	out = appendJump(out, modelJump)
	out = append(out, byte(b.target))
	for _, v := range b.globals {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	out = appendJump(out, missionJump)
	out = append(out, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.models)))
	for _, name := range b.models {
		if len(name) >= modelNameSize {
			return nil, fmt.Errorf("build scm: model name %q too long", name)
		}
		var buf [modelNameSize]byte
		copy(buf[:], name)
		out = append(out, buf[:]...)
	}
	out = appendJump(out, codeStart)
	out = append(out, 0)
	out = binary.LittleEndian.AppendUint32(out, mainSize)
	out = binary.LittleEndian.AppendUint32(out, largest)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.missions)))
	for _, m := range b.missions {
		out = binary.LittleEndian.AppendUint32(out, m.base)
	}
	if uint32(len(out)) != codeStart {
		return nil, errors.New("build scm: header layout mismatch")
	}

	for _, c := range append([]*Code{b.main}, b.missions...) {
		start := len(out)
		out = append(out, c.buf...)
		for _, fx := range c.fixups {
			if fx.label.pos < 0 {
				return nil, fmt.Errorf("build scm: label used at %#x never placed", c.base+uint32(fx.pos))
			}
			addr := int32(fx.label.Address())
			if c.mission && fx.label.code == c && fx.label.pos > 0 {
				addr = -int32(fx.label.pos)
			}
			binary.LittleEndian.PutUint32(out[start+fx.pos:], uint32(addr))
		}
	}
	return out, nil
}

func appendJump(dst []byte, target uint32) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(opGoto))
	dst = append(dst, byte(Int32))
	return binary.LittleEndian.AppendUint32(dst, target)
}
