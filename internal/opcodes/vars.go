// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package opcodes

import (
	"context"
	"errors"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
)

// errDivideByZero kills a thread that divides an integer variable by zero.
var errDivideByZero = errors.New("integer divide by zero")

type arith uint8

const (
	arithSet arith = iota
	arithAdd
	arithSub
	arithMul
	arithDiv
)

type compare uint8

const (
	compareGreater compare = iota
	compareGreaterOrEqual
	compareEqual
)

func bindVars(b *script.Bindings) {
	// 0004-0017: operations with a constant,
	// in groups of four for int and float globals and locals.
	for i, a := range []arith{arithSet, arithAdd, arithSub, arithMul, arithDiv} {
		base := scm.Opcode(0x0004 + 4*i)
		for j := range scm.Opcode(4) {
			bindArith(b, base+j, a, j%2 == 1)
		}
	}
	// 0058-0077: operations between variables,
	// in groups of eight alternating int and float.
	for i, a := range []arith{arithAdd, arithSub, arithMul, arithDiv} {
		base := scm.Opcode(0x0058 + 8*i)
		for j := range scm.Opcode(8) {
			bindArith(b, base+j, a, j%2 == 1)
		}
	}
	// 0084-008B: assignments between variables.
	for op, float := range map[scm.Opcode]bool{
		0x0084: false,
		0x0085: false,
		0x0086: true,
		0x0087: true,
		0x0088: true,
		0x0089: true,
		0x008A: false,
		0x008B: false,
	} {
		bindArith(b, op, arithSet, float)
	}

	// 0018-0037: greater than and greater or equal,
	// in groups of eight for int and float operands.
	for i, cmp := range []compare{compareGreater, compareGreaterOrEqual} {
		base := scm.Opcode(0x0018 + 16*i)
		for j := range scm.Opcode(8) {
			bindCompare(b, base+j, cmp, false)
			bindCompare(b, base+8+j, cmp, true)
		}
	}
	for op := scm.Opcode(0x0038); op <= 0x003C; op++ {
		bindCompare(b, op, compareEqual, false)
	}
	for op := scm.Opcode(0x0042); op <= 0x0046; op++ {
		bindCompare(b, op, compareEqual, true)
	}

	b.Bind(0x0094, absInt, scm.KindInt)
	b.Bind(0x0095, absInt, scm.KindInt)
	b.Bind(0x0096, absFloat, scm.KindFloat)
	b.Bind(0x0097, absFloat, scm.KindFloat)
}

func bindArith(b *script.Bindings, op scm.Opcode, a arith, float bool) {
	if float {
		b.Bind(op, floatArith(a), scm.KindFloat, scm.KindFloat)
	} else {
		b.Bind(op, intArith(a), scm.KindInt, scm.KindInt)
	}
}

func intArith(a arith) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		x, y := c.Int(0), c.Int(1)
		switch a {
		case arithSet:
			x = y
		case arithAdd:
			x += y
		case arithSub:
			x -= y
		case arithMul:
			x *= y
		case arithDiv:
			if y == 0 {
				c.Fail(errDivideByZero)
				return false
			}
			x /= y
		}
		c.SetInt(0, x)
		return false
	}
}

func floatArith(a arith) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		x, y := c.Float(0), c.Float(1)
		switch a {
		case arithSet:
			x = y
		case arithAdd:
			x += y
		case arithSub:
			x -= y
		case arithMul:
			x *= y
		case arithDiv:
			x /= y
		}
		c.SetFloat(0, x)
		return false
	}
}

func bindCompare(b *script.Bindings, op scm.Opcode, cmp compare, float bool) {
	if float {
		b.Bind(op, func(ctx context.Context, c *script.Call) bool {
			return compareValues(cmp, c.Float(0), c.Float(1))
		}, scm.KindFloat, scm.KindFloat)
	} else {
		b.Bind(op, func(ctx context.Context, c *script.Call) bool {
			return compareValues(cmp, c.Int(0), c.Int(1))
		}, scm.KindInt, scm.KindInt)
	}
}

func compareValues[T int32 | float32](cmp compare, x, y T) bool {
	switch cmp {
	case compareGreater:
		return x > y
	case compareGreaterOrEqual:
		return x >= y
	default:
		return x == y
	}
}

func absInt(ctx context.Context, c *script.Call) bool {
	if x := c.Int(0); x < 0 {
		c.SetInt(0, -x)
	}
	return false
}

func absFloat(ctx context.Context, c *script.Call) bool {
	if x := c.Float(0); x < 0 {
		c.SetFloat(0, -x)
	}
	return false
}
