// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// opGoto is the unconditional jump that starts each header section.
const opGoto Opcode = 0x0002

// MaxExtraOperands is the largest number of operands
// a variable-length argument list may hold
// beyond the declared arguments.
const MaxExtraOperands = 32

// ErrTruncated is returned when an instruction runs past the end of the file.
var ErrTruncated = errors.New("unexpected end of bytecode")

// ErrTooManyOperands is returned when a variable-length argument list
// exceeds [MaxExtraOperands].
var ErrTooManyOperands = fmt.Errorf("more than %d extra operands", MaxExtraOperands)

// IllegalInstructionError is returned when the decoder encounters
// an opcode that is not in its [Table].
type IllegalInstructionError struct {
	Opcode Opcode
	Offset uint32
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction %v at %#06x", e.Opcode, e.Offset)
}

// UnknownTypeError is returned when the decoder encounters
// an operand tag it does not understand.
type UnknownTypeError struct {
	Type   uint8
	Offset uint32
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown operand type %#02x at %#06x", e.Type, e.Offset)
}

// DecodeError records an error decoding the instruction at Offset.
type DecodeError struct {
	Offset uint32
	Opcode Opcode // zero if the opcode could not be read
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Opcode == 0 {
		return fmt.Sprintf("decode at %#06x: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("decode %v at %#06x: %v", e.Opcode, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// An Instruction is a single decoded instruction.
type Instruction struct {
	Offset    uint32
	Opcode    Opcode // without the negate bit
	Negated   bool
	Signature *Signature
	// Operands holds one operand per declared argument,
	// followed by the extra operands of a variable-length list
	// (without the terminating tag).
	Operands []Operand
	// Next is the offset of the following instruction.
	Next uint32
}

// Extra returns the operands that follow the declared arguments.
func (inst *Instruction) Extra() []Operand {
	return inst.Operands[len(inst.Signature.Args):]
}

// String formats the instruction as a disassembly listing line.
func (inst *Instruction) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "%06x: ", inst.Offset)
	if inst.Negated {
		sb.WriteString("NOT ")
	}
	sb.WriteString(inst.Opcode.String())
	sb.WriteString(" ")
	sb.WriteString(inst.Signature.Name)
	for _, o := range inst.Operands {
		sb.WriteString(" ")
		sb.WriteString(o.String())
	}
	return sb.String()
}

// A Decoder reads instructions from a [File]
// using the signatures in a [Table].
type Decoder struct {
	file  *File
	table *Table
}

// NewDecoder returns a new decoder.
func NewDecoder(f *File, t *Table) *Decoder {
	return &Decoder{file: f, table: t}
}

// File returns the file the decoder reads from.
func (d *Decoder) File() *File { return d.file }

// Table returns the decoder's signature table.
func (d *Decoder) Table() *Table { return d.table }

// Decode decodes the instruction at pc.
// Errors are of type [*DecodeError].
func (d *Decoder) Decode(pc uint32) (*Instruction, error) {
	word, err := d.file.Uint16(pc)
	if err != nil {
		return nil, &DecodeError{Offset: pc, Err: err}
	}
	inst := &Instruction{
		Offset:  pc,
		Opcode:  Opcode(word) &^ NegateMask,
		Negated: Opcode(word)&NegateMask != 0,
	}
	inst.Signature = d.table.Lookup(inst.Opcode)
	if inst.Signature == nil {
		return nil, &DecodeError{
			Offset: pc,
			Opcode: inst.Opcode,
			Err:    &IllegalInstructionError{Opcode: inst.Opcode, Offset: pc},
		}
	}

	addr := pc + 2
	inst.Operands = make([]Operand, 0, len(inst.Signature.Args))
	for range inst.Signature.Args {
		var o Operand
		o, addr, err = readOperand(d.file, addr)
		if err != nil {
			return nil, &DecodeError{Offset: pc, Opcode: inst.Opcode, Err: err}
		}
		if o.Type == EndOfArgs {
			return nil, &DecodeError{
				Offset: pc,
				Opcode: inst.Opcode,
				Err:    fmt.Errorf("argument list ended after %d of %d operands", len(inst.Operands), len(inst.Signature.Args)),
			}
		}
		inst.Operands = append(inst.Operands, o)
	}
	if inst.Signature.Variadic {
		for extra := 0; ; extra++ {
			var o Operand
			o, addr, err = readOperand(d.file, addr)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Opcode: inst.Opcode, Err: err}
			}
			if o.Type == EndOfArgs {
				break
			}
			if extra == MaxExtraOperands {
				return nil, &DecodeError{Offset: pc, Opcode: inst.Opcode, Err: ErrTooManyOperands}
			}
			inst.Operands = append(inst.Operands, o)
		}
	}
	inst.Next = addr
	return inst, nil
}

// Disassemble returns an iterator over the instructions in r,
// decoded one after another.
// Iteration stops after the first error.
func (d *Decoder) Disassemble(r Region) iter.Seq2[*Instruction, error] {
	return func(yield func(*Instruction, error) bool) {
		for pc := r.Start; pc < r.End; {
			inst, err := d.Decode(pc)
			if !yield(inst, err) || err != nil {
				return
			}
			pc = inst.Next
		}
	}
}
