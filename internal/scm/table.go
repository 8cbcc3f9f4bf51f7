// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	_ "embed"
	"fmt"
	"iter"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed opcodes.toml
var defaultTableData []byte

// A Table maps opcodes to their signatures.
// Tables are immutable once loaded.
type Table struct {
	sigs []*Signature // indexed by opcode
	n    int
}

type tableFile struct {
	Opcodes []opcodeEntry `toml:"opcode"`
}

type opcodeEntry struct {
	ID        int64      `toml:"id"`
	Name      string     `toml:"name"`
	Argc      *int       `toml:"argc"`
	Condition bool       `toml:"condition"`
	Args      []argEntry `toml:"args"`
}

type argEntry struct {
	Name   string   `toml:"name"`
	Type   string   `toml:"type"`
	Entity string   `toml:"entity"`
	Enum   string   `toml:"enum"`
	Out    bool     `toml:"out"`
	Allow  []string `toml:"allow"`
}

// DefaultTable returns the table of instructions the runtime knows,
// parsed from data embedded in the package.
var DefaultTable = sync.OnceValue(func() *Table {
	t, err := LoadTable(defaultTableData)
	if err != nil {
		panic(err)
	}
	return t
})

// LoadTable parses a table of signatures in TOML format.
// Each [[opcode]] entry has an id, a name,
// an argc (negative for a variable-length argument list
// whose fixed part is -argc arguments long),
// an optional condition flag, and one args entry per fixed argument.
func LoadTable(data []byte) (*Table, error) {
	var file tableFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("load opcode table: %v", err)
	}
	t := new(Table)
	var maxOp Opcode
	sigs := make([]*Signature, 0, len(file.Opcodes))
	for i, ent := range file.Opcodes {
		sig, err := ent.signature()
		if err != nil {
			return nil, fmt.Errorf("load opcode table: entry %d: %v", i, err)
		}
		sigs = append(sigs, sig)
		maxOp = max(maxOp, sig.Opcode)
	}
	t.sigs = make([]*Signature, int(maxOp)+1)
	for _, sig := range sigs {
		if prev := t.sigs[sig.Opcode]; prev != nil {
			return nil, fmt.Errorf("load opcode table: %v declared twice (%s and %s)", sig.Opcode, prev.Name, sig.Name)
		}
		t.sigs[sig.Opcode] = sig
		t.n++
	}
	return t, nil
}

func (ent *opcodeEntry) signature() (*Signature, error) {
	if ent.ID < 0 || ent.ID > int64(MaxOpcode) {
		return nil, fmt.Errorf("id %#x out of range", ent.ID)
	}
	sig := &Signature{
		Opcode:    Opcode(ent.ID),
		Name:      ent.Name,
		Condition: ent.Condition,
	}
	if sig.Name == "" {
		return nil, fmt.Errorf("%v: missing name", sig.Opcode)
	}
	if ent.Argc == nil {
		return nil, fmt.Errorf("%v %s: missing argc", sig.Opcode, sig.Name)
	}
	argc := *ent.Argc
	if argc < 0 {
		sig.Variadic = true
		argc = -argc
	}
	if argc != len(ent.Args) {
		return nil, fmt.Errorf("%v %s: argc is %d but %d args declared", sig.Opcode, sig.Name, *ent.Argc, len(ent.Args))
	}
	for i, a := range ent.Args {
		kind, err := parseKind(a.Type)
		if err != nil {
			return nil, fmt.Errorf("%v %s: arg %d: %v", sig.Opcode, sig.Name, i, err)
		}
		sources, err := parseSources(a.Allow)
		if err != nil {
			return nil, fmt.Errorf("%v %s: arg %d: %v", sig.Opcode, sig.Name, i, err)
		}
		if a.Out && sources&FromConst != 0 {
			return nil, fmt.Errorf("%v %s: arg %d: output cannot be a constant", sig.Opcode, sig.Name, i)
		}
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i+1)
		}
		sig.Args = append(sig.Args, Arg{
			Name:    name,
			Kind:    kind,
			Entity:  a.Entity,
			Enum:    a.Enum,
			Out:     a.Out,
			Sources: sources,
		})
	}
	sig.Params = groupParams(sig.Args)
	for _, p := range sig.Params {
		if !p.Kind.IsComposite() {
			continue
		}
		want := KindFloat
		if p.Kind == KindRGB || p.Kind == KindRGBA {
			want = KindInt
		}
		for _, a := range sig.Args[p.First : p.First+p.Count] {
			if a.Kind != want {
				return nil, fmt.Errorf("%v %s: %s component %s is %v (want %v)", sig.Opcode, sig.Name, p.Name, a.Name, a.Kind, want)
			}
		}
	}
	return sig, nil
}

// Lookup returns the signature for the given opcode,
// ignoring the [NegateMask] bit.
// Lookup returns nil if the table has no such opcode.
func (t *Table) Lookup(op Opcode) *Signature {
	op &^= NegateMask
	if int(op) >= len(t.sigs) {
		return nil
	}
	return t.sigs[op]
}

// Len returns the number of signatures in the table.
func (t *Table) Len() int {
	return t.n
}

// All returns an iterator over the table's signatures in opcode order.
func (t *Table) All() iter.Seq[*Signature] {
	return func(yield func(*Signature) bool) {
		for _, sig := range t.sigs {
			if sig != nil && !yield(sig) {
				return
			}
		}
	}
}
