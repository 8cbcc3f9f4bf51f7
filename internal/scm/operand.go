// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// DataType is the tag byte that precedes an operand in the bytecode.
type DataType uint8

// Operand tags.
const (
	EndOfArgs DataType = 0x00 // end
	Int32     DataType = 0x01 // int32
	GlobalVar DataType = 0x02 // global
	LocalVar  DataType = 0x03 // local
	Int8      DataType = 0x04 // int8
	Int16     DataType = 0x05 // int16
	Float     DataType = 0x06 // float
	String    DataType = 0x09 // string
)

// implicitStringMin is the smallest tag byte
// that begins an untagged text label.
// The tag byte is the first character of the label.
const implicitStringMin = 0x2b

// textSize is the size of a text label in the bytecode.
const textSize = 8

// An Operand is a single decoded argument of an instruction.
type Operand struct {
	// Type is the operand's tag.
	Type DataType
	// Implicit is true if the operand is a text label without a tag byte.
	Implicit bool
	// Int is the value of an integer operand,
	// the byte offset of a global variable operand,
	// or the slot index of a local variable operand.
	Int int32
	// Float is the value of a float operand.
	Float float32
	// Text is the value of a text label operand.
	Text string
	// Offset is the position of the operand in the file.
	Offset uint32

	label *Label
}

// IsVariable reports whether the operand refers to a variable.
func (o Operand) IsVariable() bool {
	return o.Type == GlobalVar || o.Type == LocalVar
}

// IsInt reports whether the operand is an immediate integer.
func (o Operand) IsInt() bool {
	return o.Type == Int8 || o.Type == Int16 || o.Type == Int32
}

// String formats the operand the way disassembly listings show it.
// Globals are shown as $N, where N is the variable's cell index,
// and locals as N@.
func (o Operand) String() string {
	switch o.Type {
	case Int8, Int16, Int32:
		return strconv.FormatInt(int64(o.Int), 10)
	case Float:
		return strconv.FormatFloat(float64(o.Float), 'f', -1, 32)
	case GlobalVar:
		if o.Int%4 != 0 {
			return fmt.Sprintf("$+%d", o.Int)
		}
		return fmt.Sprintf("$%d", o.Int/4)
	case LocalVar:
		return fmt.Sprintf("%d@", o.Int)
	case String:
		return "'" + o.Text + "'"
	case EndOfArgs:
		return "end"
	default:
		return fmt.Sprintf("<%v>", o.Type)
	}
}

// readOperand decodes the operand at addr.
func readOperand(f *File, addr uint32) (Operand, uint32, error) {
	tag, err := f.Uint8(addr)
	if err != nil {
		return Operand{}, addr, err
	}
	op := Operand{Type: DataType(tag), Offset: addr}
	if tag >= implicitStringMin {
		op.Type = String
		op.Implicit = true
	} else {
		addr++
	}

	switch op.Type {
	case EndOfArgs:
		return op, addr, nil
	case Int8:
		v, err := f.Uint8(addr)
		if err != nil {
			return op, addr, err
		}
		op.Int = int32(int8(v))
		return op, addr + 1, nil
	case Int16:
		v, err := f.Uint16(addr)
		if err != nil {
			return op, addr, err
		}
		op.Int = int32(int16(v))
		return op, addr + 2, nil
	case Int32:
		v, err := f.Uint32(addr)
		if err != nil {
			return op, addr, err
		}
		op.Int = int32(v)
		return op, addr + 4, nil
	case GlobalVar, LocalVar:
		v, err := f.Uint16(addr)
		if err != nil {
			return op, addr, err
		}
		op.Int = int32(v)
		return op, addr + 2, nil
	case Float:
		if f.target.wideFloats() {
			v, err := f.Uint32(addr)
			if err != nil {
				return op, addr, err
			}
			op.Float = math.Float32frombits(v)
			return op, addr + 4, nil
		}
		v, err := f.Uint16(addr)
		if err != nil {
			return op, addr, err
		}
		op.Float = float32(int16(v)) / 16
		return op, addr + 2, nil
	case String:
		if uint64(addr)+textSize > uint64(len(f.data)) {
			return op, addr, ErrTruncated
		}
		op.Text = cString(f.data[addr : addr+textSize])
		return op, addr + textSize, nil
	default:
		return op, addr, &UnknownTypeError{Type: tag, Offset: op.Offset}
	}
}

// appendOperand appends the encoding of o to dst.
func appendOperand(dst []byte, o Operand, target Target) []byte {
	if !(o.Type == String && o.Implicit) {
		dst = append(dst, byte(o.Type))
	}
	switch o.Type {
	case Int8:
		dst = append(dst, byte(int8(o.Int)))
	case Int16, GlobalVar, LocalVar:
		dst = binary.LittleEndian.AppendUint16(dst, uint16(o.Int))
	case Int32:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(o.Int))
	case Float:
		if target.wideFloats() {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(o.Float))
		} else {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(math.Round(float64(o.Float)*16))))
		}
	case String:
		var buf [textSize]byte
		copy(buf[:], o.Text)
		dst = append(dst, buf[:]...)
	}
	return dst
}

// IntArg returns an immediate integer operand
// using the smallest encoding that holds v.
func IntArg(v int32) Operand {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return Operand{Type: Int8, Int: v}
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return Operand{Type: Int16, Int: v}
	default:
		return Operand{Type: Int32, Int: v}
	}
}

// FloatArg returns an immediate float operand.
// For targets with fixed-point floats, f is rounded to the nearest 1/16.
func FloatArg(f float32) Operand {
	return Operand{Type: Float, Float: f}
}

// TextArg returns a text label operand.
// Labels that start with a printable character above '*'
// are encoded without a tag byte, as the original compiler does.
// TextArg panics if s is longer than 8 bytes.
func TextArg(s string) Operand {
	if len(s) > textSize {
		panic("TextArg: label longer than 8 bytes")
	}
	return Operand{
		Type:     String,
		Text:     s,
		Implicit: len(s) > 0 && s[0] >= implicitStringMin,
	}
}

// GlobalArg returns an operand referring to the global variable
// stored in the given 4-byte cell.
func GlobalArg(cell int) Operand {
	return Operand{Type: GlobalVar, Int: int32(cell) * 4}
}

// LocalArg returns an operand referring to the given local variable slot.
func LocalArg(slot int) Operand {
	return Operand{Type: LocalVar, Int: int32(slot)}
}

// EndArgs returns the operand that terminates a variable-length argument list.
func EndArgs() Operand {
	return Operand{Type: EndOfArgs}
}
