// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rwengine/openrw/internal/scm"
)

// A Handler implements an instruction.
// It reads its arguments and writes its output arguments through c,
// and returns the instruction's condition result,
// which is ignored for instructions that are not conditions.
// A handler reports a failure in the game world (such as a handle
// to an entity that no longer exists) by returning false.
// Misuse of c, or any other integrity problem, is recorded on c
// and kills the thread after the handler returns.
type Handler func(ctx context.Context, c *Call) bool

// intrinsic is the implementation of a control-flow instruction,
// which unlike a [Handler] may change the state of the thread and machine.
type intrinsic func(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error)

type entry struct {
	sig       *scm.Signature
	handler   Handler
	intrinsic intrinsic
}

func (e *entry) bound() bool {
	return e.handler != nil || e.intrinsic != nil
}

// A Table maps opcodes to their signatures and implementations.
// Tables are immutable and may be shared by several machines.
type Table struct {
	sigs    *scm.Table
	entries []entry // indexed by opcode
}

// Bindings collects handlers for a [Table] under construction.
type Bindings struct {
	sigs    *scm.Table
	entries []entry
	errs    []error
}

// NewTable builds a dispatch table from a signature table,
// the control-flow instructions the machine implements itself,
// and the handlers bound by the bind function.
// NewTable returns an error if a handler is bound to an opcode
// that has no signature, to an opcode that is already bound,
// or with parameter kinds that do not match the signature.
// Opcodes that have a signature but no handler are unimplemented:
// they decode and execute as no-ops with a false condition result.
func NewTable(sigs *scm.Table, bind func(b *Bindings)) (*Table, error) {
	var maxOp scm.Opcode
	for sig := range sigs.All() {
		maxOp = max(maxOp, sig.Opcode)
	}
	b := &Bindings{
		sigs:    sigs,
		entries: make([]entry, int(maxOp)+1),
	}
	for sig := range sigs.All() {
		b.entries[sig.Opcode].sig = sig
	}
	bindIntrinsics(b)
	if bind != nil {
		bind(b)
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("build dispatch table: %w", errors.Join(b.errs...))
	}
	return &Table{sigs: sigs, entries: b.entries}, nil
}

// Bind binds a handler to an opcode.
// kinds lists the kinds of the signature's parameters, in order,
// as the handler expects them.
func (b *Bindings) Bind(op scm.Opcode, h Handler, kinds ...scm.Kind) {
	if h == nil {
		b.errs = append(b.errs, fmt.Errorf("bind %v: nil handler", op))
		return
	}
	e, err := b.check(op, kinds)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	e.handler = h
}

func (b *Bindings) bindIntrinsic(op scm.Opcode, fn intrinsic, kinds ...scm.Kind) {
	if b.sigs.Lookup(op) == nil {
		// Signature tables for other games may not have every control instruction.
		return
	}
	e, err := b.check(op, kinds)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	e.intrinsic = fn
}

func (b *Bindings) check(op scm.Opcode, kinds []scm.Kind) (*entry, error) {
	if op&scm.NegateMask != 0 {
		return nil, fmt.Errorf("bind %v: opcode has negate bit set", op)
	}
	sig := b.sigs.Lookup(op)
	if sig == nil {
		return nil, fmt.Errorf("bind %v: no signature for opcode", op)
	}
	e := &b.entries[op]
	if e.bound() {
		return nil, fmt.Errorf("bind %v %s: opcode bound twice", op, sig.Name)
	}
	have := make([]scm.Kind, 0, len(sig.Params))
	for _, p := range sig.Params {
		have = append(have, p.Kind)
	}
	if !slices.Equal(have, kinds) {
		return nil, fmt.Errorf("bind %v %s: handler expects (%s) but signature has (%s)",
			op, sig.Name, formatKinds(kinds), formatKinds(have))
	}
	return e, nil
}

func formatKinds(kinds []scm.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// Signatures returns the signature table the dispatch table was built from.
func (tab *Table) Signatures() *scm.Table {
	return tab.sigs
}

// Implemented reports whether the opcode has a handler
// or is a control-flow instruction.
func (tab *Table) Implemented(op scm.Opcode) bool {
	e := tab.lookup(op)
	return e != nil && e.bound()
}

// Intrinsic reports whether the opcode is a control-flow instruction
// implemented by the machine.
func (tab *Table) Intrinsic(op scm.Opcode) bool {
	e := tab.lookup(op)
	return e != nil && e.intrinsic != nil
}

func (tab *Table) lookup(op scm.Opcode) *entry {
	op &^= scm.NegateMask
	if int(op) >= len(tab.entries) || tab.entries[op].sig == nil {
		return nil
	}
	return &tab.entries[op]
}
