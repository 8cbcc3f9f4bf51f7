// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package opcodes

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/testcontext"
)

const (
	opSetVarInt      scm.Opcode = 0x0004
	opSetVarFloat    scm.Opcode = 0x0005
	opSetLVarInt     scm.Opcode = 0x0006
	opSetLVarFloat   scm.Opcode = 0x0007
	opSetVarToLVar   scm.Opcode = 0x008A
	opSetFVarToLVarF scm.Opcode = 0x0088
)

func TestIntArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   scm.Opcode
		x, y int32
		want int32
	}{
		{"Add", 0x0008, 7, 5, 12},
		{"Sub", 0x000C, 7, 5, 2},
		{"Mul", 0x0010, 7, 5, 35},
		{"Div", 0x0014, 7, 2, 3},
		{"DivNegative", 0x0014, -7, 2, -3},
		{"AddOverflow", 0x0008, 2147483647, 1, -2147483648},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := testcontext.New(t)
			defer cancel()

			b := scm.NewBuilder(scm.GTAVC)
			b.Globals(4)
			main := b.Main()
			// Global form.
			main.Op(opSetVarInt, scm.GlobalArg(3), scm.IntArg(test.x))
			main.Op(test.op, scm.GlobalArg(3), scm.IntArg(test.y))
			// Local form, then copied to a global.
			main.Op(opSetLVarInt, scm.LocalArg(2), scm.IntArg(test.x))
			main.Op(test.op+2, scm.LocalArg(2), scm.IntArg(test.y))
			main.Op(opSetVarToLVar, scm.GlobalArg(4), scm.LocalArg(2))
			// Variable operand form.
			main.Op(opSetVarInt, scm.GlobalArg(5), scm.IntArg(test.x))
			main.Op(opSetVarInt, scm.GlobalArg(2), scm.IntArg(test.y))
			main.Op(0x0058+(test.op-0x0008)*2, scm.GlobalArg(5), scm.GlobalArg(2))
			idle(main)

			m := newTestMachine(t, b)
			m.runMain(t, ctx)
			for _, i := range []int{3, 4, 5} {
				if got := m.globalInt(t, i); got != test.want {
					t.Errorf("$%d = %d; want %d", i, got, test.want)
				}
			}
		})
	}
}

func TestFloatArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   scm.Opcode
		x, y float32
		want float32
	}{
		{"Add", 0x0009, 1.5, 2.25, 3.75},
		{"Sub", 0x000D, 1.5, 2.25, -0.75},
		{"Mul", 0x0011, 1.5, 2.25, 3.375},
		{"Div", 0x0015, 1, 4, 0.25},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := testcontext.New(t)
			defer cancel()

			b := scm.NewBuilder(scm.GTAVC)
			b.Globals(4)
			main := b.Main()
			main.Op(opSetVarFloat, scm.GlobalArg(3), scm.FloatArg(test.x))
			main.Op(test.op, scm.GlobalArg(3), scm.FloatArg(test.y))
			main.Op(opSetLVarFloat, scm.LocalArg(2), scm.FloatArg(test.x))
			main.Op(test.op+2, scm.LocalArg(2), scm.FloatArg(test.y))
			main.Op(opSetFVarToLVarF, scm.GlobalArg(4), scm.LocalArg(2))
			idle(main)

			m := newTestMachine(t, b)
			m.runMain(t, ctx)
			for _, i := range []int{3, 4} {
				if got := m.globalFloat(t, i); got != test.want {
					t.Errorf("$%d = %g; want %g", i, got, test.want)
				}
				v, err := m.Vars().ReadGlobal(i)
				if err != nil {
					t.Fatal(err)
				}
				if v.Type() != script.TypeFloat {
					t.Errorf("$%d has type %v; want %v", i, v.Type(), script.TypeFloat)
				}
			}
		})
	}
}

func TestDivideByZero(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(2)
	b.SetGlobal(3, 10)
	main := b.Main()
	main.Op(0x0014, scm.GlobalArg(3), scm.IntArg(0))
	idle(main)

	m := newTestMachine(t, b)
	id, err := m.Launch(m.File().MainRegion())
	if err != nil {
		t.Fatal(err)
	}
	th := m.Thread(id)
	if err := m.Tick(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(th.Err(), errDivideByZero) {
		t.Errorf("th.Err() = %v; want %v", th.Err(), errDivideByZero)
	}
	if got := m.globalInt(t, 3); got != 10 {
		t.Errorf("$3 = %d after failed divide; want 10", got)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		op   scm.Opcode
		args []scm.Operand
		want bool
	}{
		{"IntGreater", 0x0018, []scm.Operand{scm.GlobalArg(3), scm.IntArg(4)}, true},
		{"IntGreaterEqualValues", 0x0018, []scm.Operand{scm.GlobalArg(3), scm.IntArg(5)}, false},
		{"NumberGreater", 0x001A, []scm.Operand{scm.IntArg(6), scm.GlobalArg(3)}, true},
		{"IntGreaterOrEqual", 0x0028, []scm.Operand{scm.GlobalArg(3), scm.IntArg(5)}, true},
		{"IntGreaterOrEqualFalse", 0x0028, []scm.Operand{scm.GlobalArg(3), scm.IntArg(6)}, false},
		{"IntEqual", 0x0038, []scm.Operand{scm.GlobalArg(3), scm.IntArg(5)}, true},
		{"IntVarEqual", 0x003A, []scm.Operand{scm.GlobalArg(3), scm.GlobalArg(4)}, false},
		{"FloatGreater", 0x0020, []scm.Operand{scm.GlobalArg(5), scm.FloatArg(2)}, true},
		{"FloatGreaterOrEqual", 0x0030, []scm.Operand{scm.GlobalArg(5), scm.FloatArg(2.5)}, true},
		{"FloatNumberGreaterOrEqual", 0x0032, []scm.Operand{scm.FloatArg(2), scm.GlobalArg(5)}, false},
		{"FloatEqual", 0x0042, []scm.Operand{scm.GlobalArg(5), scm.FloatArg(2.5)}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := testcontext.New(t)
			defer cancel()

			b := scm.NewBuilder(scm.GTAVC)
			b.Globals(5)
			b.SetGlobal(3, 5)
			b.SetGlobal(4, -5)
			main := b.Main()
			main.Op(opSetVarFloat, scm.GlobalArg(5), scm.FloatArg(2.5))
			ifTrue(main, test.op, test.args, func(c *scm.Code) {
				c.Op(opSetVarInt, scm.GlobalArg(6), scm.IntArg(1))
			})
			idle(main)

			m := newTestMachine(t, b)
			m.runMain(t, ctx)
			if got := m.globalInt(t, 6) == 1; got != test.want {
				t.Errorf("condition = %t; want %t", got, test.want)
			}
		})
	}
}

func TestAbs(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(3)
	b.SetGlobal(3, -12)
	main := b.Main()
	main.Op(opSetVarFloat, scm.GlobalArg(4), scm.FloatArg(-0.5))
	main.Op(0x0094, scm.GlobalArg(3))
	main.Op(0x0096, scm.GlobalArg(4))
	idle(main)

	m := newTestMachine(t, b)
	m.runMain(t, ctx)
	if got := m.globalInt(t, 3); got != 12 {
		t.Errorf("ABS_VAR_INT(-12) = %d; want 12", got)
	}
	if got := m.globalFloat(t, 4); got != 0.5 {
		t.Errorf("ABS_VAR_FLOAT(-0.5) = %g; want 0.5", got)
	}
}

func TestIntArithmeticProperty(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	properties.Property("add then subtract restores the value", prop.ForAll(
		func(x, y int32) bool {
			b := scm.NewBuilder(scm.GTAVC)
			b.Globals(2)
			main := b.Main()
			main.Op(opSetVarInt, scm.GlobalArg(3), scm.IntArg(x))
			main.Op(0x0008, scm.GlobalArg(3), scm.IntArg(y))
			main.Op(0x000C, scm.GlobalArg(3), scm.IntArg(y))
			idle(main)
			m := newTestMachine(t, b)
			m.runMain(t, ctx)
			return m.globalInt(t, 3) == x
		},
		gen.Int32(),
		gen.Int32(),
	))
	properties.TestingRun(t)
}
