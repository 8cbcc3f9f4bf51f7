// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rwengine/openrw/internal/scm"
)

// cells is a fixed-size array of 32-bit variable cells.
// Each cell remembers the type of the value last written to it,
// so that reading a cell returns what was written.
type cells struct {
	bits  []uint32
	types []Type
}

func newCells(n int) cells {
	return cells{
		bits:  make([]uint32, n),
		types: make([]Type, n),
	}
}

func (c *cells) len() int {
	return len(c.bits)
}

func (c *cells) check(i int, global bool) error {
	if i < 0 || i >= len(c.bits) {
		return &IndexError{Global: global, Index: i, Len: len(c.bits)}
	}
	return nil
}

func (c *cells) read(i int, global bool) (Value, error) {
	if err := c.check(i, global); err != nil {
		return Value{}, err
	}
	typ := c.types[i]
	if typ == TypeNil {
		typ = TypeInt
	}
	return cellValue(typ, c.bits[i]), nil
}

func (c *cells) write(i int, v Value, global bool) error {
	if err := c.check(i, global); err != nil {
		return err
	}
	if !v.typ.isScalar() {
		return fmt.Errorf("cannot store %v value in a variable", v.typ)
	}
	c.bits[i] = v.cell()
	c.types[i] = v.typ
	return nil
}

func (c *cells) clone() cells {
	return cells{
		bits:  append([]uint32(nil), c.bits...),
		types: append([]Type(nil), c.types...),
	}
}

// Vars is the global variable storage of a [Machine]
// and the access point for thread-local variables.
// Globals are 4-byte cells covering the file
// from its start up to the model section,
// seeded with the file's bytes.
// Global index i corresponds to byte offset 4*i of the file.
type Vars struct {
	globals cells
}

func newVars(f *scm.File) *Vars {
	n := int(f.GlobalsSize() / 4)
	v := &Vars{globals: newCells(n)}
	data := f.Bytes()
	for i := range n {
		v.globals.bits[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return v
}

// NumGlobals returns the number of global variable cells.
func (v *Vars) NumGlobals() int {
	return v.globals.len()
}

// ReadGlobal returns the value of the global variable at the given index.
// Cells that have not been written since the machine started read as integers.
func (v *Vars) ReadGlobal(index int) (Value, error) {
	return v.globals.read(index, true)
}

// WriteGlobal stores a scalar value in the global variable at the given index.
func (v *Vars) WriteGlobal(index int, val Value) error {
	return v.globals.write(index, val, true)
}

// GlobalInt returns the global variable's cell as an integer.
func (v *Vars) GlobalInt(index int) (int32, error) {
	if err := v.globals.check(index, true); err != nil {
		return 0, err
	}
	return int32(v.globals.bits[index]), nil
}

// GlobalFloat returns the global variable's cell as a float.
func (v *Vars) GlobalFloat(index int) (float32, error) {
	if err := v.globals.check(index, true); err != nil {
		return 0, err
	}
	return math.Float32frombits(v.globals.bits[index]), nil
}

// SetGlobalInt stores an integer in the global variable.
func (v *Vars) SetGlobalInt(index int, i int32) error {
	return v.WriteGlobal(index, IntValue(i))
}

// SetGlobalFloat stores a float in the global variable.
func (v *Vars) SetGlobalFloat(index int, f float32) error {
	return v.WriteGlobal(index, FloatValue(f))
}

// ReadLocal returns the value of one of a thread's local variables.
func (v *Vars) ReadLocal(t *Thread, index int) (Value, error) {
	return t.locals.read(index, false)
}

// WriteLocal stores a scalar value in one of a thread's local variables.
func (v *Vars) WriteLocal(t *Thread, index int, val Value) error {
	return t.locals.write(index, val, false)
}

// globalIndex converts a global operand's byte offset to a cell index.
func globalIndex(offset int32) (int, error) {
	if offset%4 != 0 {
		return 0, fmt.Errorf("global variable offset %#x is not 4-byte aligned", offset)
	}
	return int(offset / 4), nil
}
