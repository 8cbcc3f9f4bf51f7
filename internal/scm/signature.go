// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package scm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared kind of an argument or parameter.
type Kind uint8

// Argument kinds.
// The composite kinds only appear on [Param] values.
const (
	KindInt    Kind = iota + 1 // INT
	KindFloat                  // FLOAT
	KindText                   // TEXT_LABEL
	KindLabel                  // LABEL
	KindAny                    // ANY
	KindHandle                 // HANDLE
	KindModel                  // MODEL
	KindVec2                   // VEC2
	KindVec3                   // VEC3
	KindRGB                    // RGB
	KindRGBA                   // RGBA
)

// IsComposite reports whether k is a vector or colour kind.
func (k Kind) IsComposite() bool {
	return k >= KindVec2 && k <= KindRGBA
}

// Components returns the number of scalar arguments
// a parameter of kind k is made of.
func (k Kind) Components() int {
	switch k {
	case KindVec2:
		return 2
	case KindVec3, KindRGB:
		return 3
	case KindRGBA:
		return 4
	default:
		return 1
	}
}

func parseKind(s string) (Kind, error) {
	for k := KindInt; k <= KindModel; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown argument type %q", s)
}

// Sources is a set of places an operand may come from.
// The zero value permits every source.
type Sources uint8

// Operand sources.
const (
	FromConst Sources = 1 << iota
	FromGlobal
	FromLocal

	anySource = FromConst | FromGlobal | FromLocal
)

// Allows reports whether the set permits an operand with the given tag.
func (s Sources) Allows(t DataType) bool {
	if s == 0 {
		return true
	}
	switch t {
	case GlobalVar:
		return s&FromGlobal != 0
	case LocalVar:
		return s&FromLocal != 0
	default:
		return s&FromConst != 0
	}
}

func (s Sources) String() string {
	if s == 0 || s == anySource {
		return "any"
	}
	var parts []string
	if s&FromConst != 0 {
		parts = append(parts, "const")
	}
	if s&FromGlobal != 0 {
		parts = append(parts, "global")
	}
	if s&FromLocal != 0 {
		parts = append(parts, "local")
	}
	return strings.Join(parts, "|")
}

func parseSources(names []string) (Sources, error) {
	var s Sources
	for _, name := range names {
		switch name {
		case "const":
			s |= FromConst
		case "global":
			s |= FromGlobal
		case "local":
			s |= FromLocal
		default:
			return 0, fmt.Errorf("unknown operand source %q", name)
		}
	}
	return s, nil
}

// Arg is a single declared argument of an instruction,
// as it is encoded in the bytecode.
type Arg struct {
	Name string
	Kind Kind
	// Entity names the kind of engine object a handle refers to.
	Entity string
	// Enum names the set of values an integer argument takes.
	Enum string
	// Out is true if the instruction writes to the argument.
	// Out arguments must be variables.
	Out bool
	// Sources restricts where the operand may come from.
	Sources Sources
}

// Param is an argument as handlers see it:
// either a single [Arg] or a run of arguments
// grouped into a vector or colour.
type Param struct {
	Name  string
	Kind  Kind
	Out   bool
	First int // index of the first argument in the group
	Count int // number of arguments in the group
}

// Signature describes the arguments of an instruction.
type Signature struct {
	Opcode Opcode
	Name   string
	Args   []Arg
	Params []Param
	// Variadic is true if the declared arguments
	// are followed by a list of operands terminated by an [EndOfArgs] tag.
	Variadic bool
	// Condition is true if the instruction produces a condition result.
	Condition bool
}

// String returns the signature in a compact form,
// e.g. "0053 CREATE_PLAYER(model INT, coord VEC3, player* HANDLE)".
func (sig *Signature) String() string {
	sb := new(strings.Builder)
	sb.WriteString(sig.Opcode.String())
	sb.WriteString(" ")
	sb.WriteString(sig.Name)
	sb.WriteString("(")
	for i, p := range sig.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.Out {
			sb.WriteString("*")
		}
		sb.WriteString(" ")
		sb.WriteString(p.Kind.String())
	}
	if sig.Variadic {
		if len(sig.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	return sb.String()
}

// Argc returns the argument count as stored in signature data:
// the number of declared arguments, negated if the signature is variadic.
func (sig *Signature) Argc() int {
	if sig.Variadic {
		return -len(sig.Args)
	}
	return len(sig.Args)
}

type groupRule struct {
	prefixes []string
	suffix   string
	name     string
	min      int
	kinds    []Kind // indexed by component count
}

var groupRules = []groupRule{
	{[]string{"x", "y", "z"}, "Coord", "coord", 2, []Kind{2: KindVec2, 3: KindVec3}},
	{[]string{"x", "y", "z"}, "Rot", "rotation", 2, []Kind{2: KindVec2, 3: KindVec3}},
	{[]string{"x", "y", "z"}, "Offset", "offset", 2, []Kind{2: KindVec2, 3: KindVec3}},
	{[]string{"x", "y", "z"}, "Radius", "radius", 2, []Kind{2: KindVec2, 3: KindVec3}},
	{[]string{"r", "g", "b", "a"}, "Colour", "colour", 3, []Kind{3: KindRGB, 4: KindRGBA}},
}

// groupParams derives the parameters of a signature from its arguments.
// A run of non-output arguments named xCoord, yCoord[, zCoord]
// (or with the Rot, Offset or Radius suffix) becomes a vector;
// a run of rColour, gColour, bColour[, aColour] becomes a colour.
// Parameter names that occur more than once get a numeric suffix.
func groupParams(args []Arg) []Param {
	var params []Param
	for i := 0; i < len(args); {
		p := Param{
			Name:  args[i].Name,
			Kind:  args[i].Kind,
			Out:   args[i].Out,
			First: i,
			Count: 1,
		}
		if !args[i].Out {
			for _, rule := range groupRules {
				n := rule.match(args[i:])
				if n > 0 {
					p.Name = rule.name
					p.Kind = rule.kinds[n]
					p.Count = n
					break
				}
			}
		}
		params = append(params, p)
		i += p.Count
	}

	counts := make(map[string]int)
	for _, p := range params {
		counts[p.Name]++
	}
	seen := make(map[string]int)
	for i := range params {
		name := params[i].Name
		if counts[name] > 1 {
			params[i].Name = name + strconv.Itoa(seen[name])
			seen[name]++
		}
	}
	return params
}

// match returns the length of the group at the start of args,
// or zero if args does not start with a group.
func (rule groupRule) match(args []Arg) int {
	n := 0
	for n < len(rule.prefixes) && n < len(args) {
		a := args[n]
		if a.Out || a.Name != rule.prefixes[n]+rule.suffix {
			break
		}
		n++
	}
	if n < rule.min {
		return 0
	}
	return n
}
