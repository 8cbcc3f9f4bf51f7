// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rwengine/openrw/internal/world"
)

// Type is the type of a [Value].
type Type uint8

// Value types.
const (
	TypeNil    Type = iota // nil
	TypeInt                // int
	TypeFloat              // float
	TypeText               // text
	TypeHandle             // handle
	TypeVec2               // vec2
	TypeVec3               // vec3
	TypeRGB                // rgb
	TypeRGBA               // rgba
)

// isScalar reports whether values of the type fit in one variable cell.
func (typ Type) isScalar() bool {
	return typ == TypeInt || typ == TypeFloat || typ == TypeHandle
}

// A Value is a script value:
// an immediate operand, the contents of a variable cell,
// or a grouped vector or colour.
// Values are comparable with ==.
// The zero Value has type [TypeNil].
type Value struct {
	typ  Type
	bits [4]uint32
	s    string
}

// IntValue returns an integer value.
func IntValue(i int32) Value {
	return Value{typ: TypeInt, bits: [4]uint32{uint32(i)}}
}

// FloatValue returns a floating-point value.
func FloatValue(f float32) Value {
	return Value{typ: TypeFloat, bits: [4]uint32{math.Float32bits(f)}}
}

// TextValue returns a text label value.
func TextValue(s string) Value {
	return Value{typ: TypeText, s: s}
}

// HandleValue returns an engine object handle value.
func HandleValue(h world.Handle) Value {
	return Value{typ: TypeHandle, bits: [4]uint32{uint32(h)}}
}

// Vec2Value returns a two-component vector value.
func Vec2Value(v world.Vec2) Value {
	return Value{typ: TypeVec2, bits: [4]uint32{
		math.Float32bits(v.X),
		math.Float32bits(v.Y),
	}}
}

// Vec3Value returns a three-component vector value.
func Vec3Value(v world.Vec3) Value {
	return Value{typ: TypeVec3, bits: [4]uint32{
		math.Float32bits(v.X),
		math.Float32bits(v.Y),
		math.Float32bits(v.Z),
	}}
}

// RGBValue returns an opaque colour value.
// The alpha channel of c is ignored.
func RGBValue(c world.Colour) Value {
	return Value{typ: TypeRGB, bits: [4]uint32{uint32(c.R), uint32(c.G), uint32(c.B), 0xff}}
}

// RGBAValue returns a colour value with an alpha channel.
func RGBAValue(c world.Colour) Value {
	return Value{typ: TypeRGBA, bits: [4]uint32{uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A)}}
}

// cellValue returns the value of a variable cell
// interpreted as the given scalar type.
func cellValue(typ Type, bits uint32) Value {
	return Value{typ: typ, bits: [4]uint32{bits}}
}

// Type returns the value's type.
func (v Value) Type() Type {
	return v.typ
}

// Int returns the value as an integer.
// Floats are truncated toward zero.
func (v Value) Int() int32 {
	switch v.typ {
	case TypeInt, TypeHandle:
		return int32(v.bits[0])
	case TypeFloat:
		return int32(v.Float())
	default:
		return 0
	}
}

// Float returns the value as a floating-point number.
func (v Value) Float() float32 {
	switch v.typ {
	case TypeFloat:
		return math.Float32frombits(v.bits[0])
	case TypeInt, TypeHandle:
		return float32(int32(v.bits[0]))
	default:
		return 0
	}
}

// Text returns the text of a text label value
// or the empty string for any other value.
func (v Value) Text() string {
	return v.s
}

// Handle returns the value as an engine object handle.
func (v Value) Handle() world.Handle {
	if v.typ == TypeHandle || v.typ == TypeInt {
		return world.Handle(int32(v.bits[0]))
	}
	return 0
}

// Vec2 returns the value of a vector.
// A three-component vector is projected onto the ground plane.
func (v Value) Vec2() world.Vec2 {
	if v.typ != TypeVec2 && v.typ != TypeVec3 {
		return world.Vec2{}
	}
	return world.Vec2{
		X: math.Float32frombits(v.bits[0]),
		Y: math.Float32frombits(v.bits[1]),
	}
}

// Vec3 returns the value of a vector.
// A two-component vector has a zero Z component.
func (v Value) Vec3() world.Vec3 {
	if v.typ != TypeVec2 && v.typ != TypeVec3 {
		return world.Vec3{}
	}
	return world.Vec3{
		X: math.Float32frombits(v.bits[0]),
		Y: math.Float32frombits(v.bits[1]),
		Z: math.Float32frombits(v.bits[2]),
	}
}

// Colour returns the value of a colour.
func (v Value) Colour() world.Colour {
	if v.typ != TypeRGB && v.typ != TypeRGBA {
		return world.Colour{}
	}
	return world.Colour{
		R: uint8(v.bits[0]),
		G: uint8(v.bits[1]),
		B: uint8(v.bits[2]),
		A: uint8(v.bits[3]),
	}
}

// cell returns the 32-bit cell representation of a scalar value.
func (v Value) cell() uint32 {
	return v.bits[0]
}

func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeInt:
		return strconv.FormatInt(int64(v.Int()), 10)
	case TypeFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case TypeText:
		return strconv.Quote(v.s)
	case TypeHandle:
		return fmt.Sprintf("handle(%d)", v.Int())
	case TypeVec2:
		p := v.Vec2()
		return fmt.Sprintf("(%g, %g)", p.X, p.Y)
	case TypeVec3:
		return v.Vec3().String()
	case TypeRGB:
		c := v.Colour()
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	case TypeRGBA:
		c := v.Colour()
		return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
	default:
		return fmt.Sprintf("<%v>", v.typ)
	}
}
