// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

//go:generate go tool stringer -type=Target,DataType,Kind -linecomment -output=scm_string.go

// Package scm decodes compiled mission-script ("SCM") bytecode.
// It knows the file layout, the operand encoding,
// and the signatures of the instructions,
// but nothing about how instructions are executed.
package scm

import "fmt"

// Opcode is an instruction identifier.
// The high bit of an opcode word in the bytecode is the [NegateMask];
// opcodes in a [Table] never have it set.
type Opcode uint16

// NegateMask is the bit of an opcode word that inverts
// the condition result of a condition instruction.
const NegateMask Opcode = 0x8000

// MaxOpcode is the largest opcode that a [Table] can hold.
const MaxOpcode Opcode = NegateMask - 1

// String formats the opcode as four hex digits, as scripts are written.
func (op Opcode) String() string {
	return fmt.Sprintf("%04X", uint16(op))
}

// Target identifies the game a bytecode file was compiled for.
// It is stored in the byte following the file's first instruction.
type Target uint8

// Known targets.
const (
	NoTarget Target = 0x00 // none
	GTA3     Target = 0xc6 // gta3
	GTAVC    Target = 0x6d // gtavc
	GTASA    Target = 0x73 // gtasa
)

// wideFloats reports whether immediate floats for the target
// are encoded as IEEE 754 single-precision numbers
// instead of 12.4 fixed-point numbers.
func (t Target) wideFloats() bool {
	return t == GTAVC || t == GTASA
}
