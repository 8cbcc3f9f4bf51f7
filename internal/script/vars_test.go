// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/world"
)

func newTestVars(tb testing.TB, b *scm.Builder) (*Vars, []byte) {
	tb.Helper()
	data, err := b.Bytes()
	if err != nil {
		tb.Fatal(err)
	}
	f, err := scm.Parse(data)
	if err != nil {
		tb.Fatal(err)
	}
	return newVars(f), data
}

func TestVarsSeededFromFile(t *testing.T) {
	b := scm.NewBuilder(scm.GTAVC)
	b.SetGlobal(3, 42)
	b.SetGlobal(5, -1)
	v, data := newTestVars(t, b)

	if got, want := v.NumGlobals(), 6; got != want {
		t.Errorf("v.NumGlobals() = %d; want %d", got, want)
	}
	for i, want := range map[int]int32{3: 42, 4: 0, 5: -1} {
		got, err := v.GlobalInt(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("v.GlobalInt(%d) = %d; want %d", i, got, want)
		}
	}
	// The header is addressable too.
	got, err := v.GlobalInt(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := int32(binary.LittleEndian.Uint32(data)); got != want {
		t.Errorf("v.GlobalInt(0) = %#x; want %#x", got, want)
	}
	if val, err := v.ReadGlobal(3); err != nil || val != IntValue(42) {
		t.Errorf("v.ReadGlobal(3) = %v, %v; want 42, <nil>", val, err)
	}
}

func TestVarsTypes(t *testing.T) {
	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(4)
	v, _ := newTestVars(t, b)

	if err := v.SetGlobalFloat(3, 1.5); err != nil {
		t.Fatal(err)
	}
	if got, err := v.ReadGlobal(3); err != nil || got != FloatValue(1.5) {
		t.Errorf("v.ReadGlobal(3) = %v, %v; want 1.5, <nil>", got, err)
	}
	if got, err := v.GlobalInt(3); err != nil || got != 0x3fc00000 {
		t.Errorf("v.GlobalInt(3) = %#x, %v; want 0x3fc00000, <nil>", got, err)
	}
	if err := v.WriteGlobal(4, HandleValue(9)); err != nil {
		t.Fatal(err)
	}
	if got, err := v.ReadGlobal(4); err != nil || got != HandleValue(9) {
		t.Errorf("v.ReadGlobal(4) = %v, %v; want handle(9), <nil>", got, err)
	}

	for _, val := range []Value{TextValue("HELLO"), Vec3Value(world.Vec3{}), {}} {
		if err := v.WriteGlobal(3, val); err == nil {
			t.Errorf("v.WriteGlobal(3, %v) did not return an error", val)
		}
	}
	if got, err := v.ReadGlobal(3); err != nil || got != FloatValue(1.5) {
		t.Errorf("after failed writes, v.ReadGlobal(3) = %v, %v; want 1.5, <nil>", got, err)
	}

	var ierr *IndexError
	if _, err := v.ReadGlobal(v.NumGlobals()); !errors.As(err, &ierr) {
		t.Errorf("v.ReadGlobal(%d) error = %v; want *IndexError", v.NumGlobals(), err)
	}
	if err := v.SetGlobalInt(-1, 0); !errors.As(err, &ierr) {
		t.Errorf("v.SetGlobalInt(-1) error = %v; want *IndexError", err)
	}
}

func TestLocals(t *testing.T) {
	b := scm.NewBuilder(scm.GTAVC)
	idle(b.Main())
	m := newTestMachine(t, b, &Options{LocalSlots: 20}, nil)
	th := m.launchMain(t)
	if got := th.NumLocals(); got != 20 {
		t.Errorf("th.NumLocals() = %d; want 20", got)
	}
	for i := range th.NumLocals() {
		got, err := m.Vars().ReadLocal(th, i)
		if err != nil || got != IntValue(0) {
			t.Errorf("local %d = %v, %v; want 0, <nil>", i, got, err)
		}
	}
	if err := m.Vars().WriteLocal(th, 19, FloatValue(-2)); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Vars().ReadLocal(th, 19); got != FloatValue(-2) {
		t.Errorf("local 19 = %v; want -2", got)
	}
	if err := m.Vars().WriteLocal(th, 20, IntValue(1)); err == nil {
		t.Error("WriteLocal(20) did not return an error")
	}
}

func TestVarsRoundTrip(t *testing.T) {
	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(16)
	v, _ := newTestVars(t, b)
	n := v.NumGlobals()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	properties.Property("integer writes read back", prop.ForAll(
		func(i int, x int32) bool {
			if err := v.SetGlobalInt(i, x); err != nil {
				return false
			}
			got, err := v.ReadGlobal(i)
			return err == nil && got == IntValue(x)
		},
		gen.IntRange(0, n-1),
		gen.Int32(),
	))
	properties.Property("float writes read back", prop.ForAll(
		func(i int, x float32) bool {
			if err := v.SetGlobalFloat(i, x); err != nil {
				return false
			}
			got, err := v.ReadGlobal(i)
			if err != nil || got != FloatValue(x) {
				return false
			}
			f, err := v.GlobalFloat(i)
			return err == nil && f == x
		},
		gen.IntRange(0, n-1),
		gen.Float32Range(-1e6, 1e6),
	))
	properties.TestingRun(t)
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Value{}, "nil"},
		{IntValue(-3), "-3"},
		{FloatValue(0.5), "0.5"},
		{TextValue("MAIN"), `"MAIN"`},
		{HandleValue(12), "handle(12)"},
		{Vec2Value(world.Vec2{X: 1, Y: 2}), "(1, 2)"},
		{RGBValue(world.Colour{R: 1, G: 2, B: 3, A: 4}), "rgb(1, 2, 3)"},
		{RGBAValue(world.Colour{R: 1, G: 2, B: 3, A: 4}), "rgba(1, 2, 3, 4)"},
	}
	for _, test := range tests {
		if got := test.v.String(); got != test.want {
			t.Errorf("%#v.String() = %q; want %q", test.v, got, test.want)
		}
	}
	if got := RGBValue(world.Colour{A: 4}).Colour().A; got != 0xff {
		t.Errorf("RGBValue(...).Colour().A = %d; want 255", got)
	}
	if got := FloatValue(-2.75).Int(); got != -2 {
		t.Errorf("FloatValue(-2.75).Int() = %d; want -2", got)
	}
}
