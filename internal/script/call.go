// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"fmt"
	"slices"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/world"
)

// A Call is a single execution of an instruction,
// as seen by its [Handler].
// Parameters are addressed by their index in the signature's
// grouped parameter list ([scm.Signature.Params]).
//
// Accessors never panic.
// Using an accessor that does not fit the parameter's kind
// records an error on the Call and returns a zero value;
// the first such error kills the thread once the handler returns.
type Call struct {
	m     *Machine
	t     *Thread
	inst  *scm.Instruction
	args  []argRef
	extra []Value
	err   error
}

// argRef is a resolved declared argument.
type argRef struct {
	op     scm.Operand
	arg    scm.Arg
	global bool // op refers to a global variable
	local  bool // op refers to a local variable
	index  int  // cell index for variables
}

// resolve checks the operands of inst against its signature
// and resolves variable references for thread t.
func (m *Machine) resolve(t *Thread, inst *scm.Instruction) (*Call, error) {
	sig := inst.Signature
	c := &Call{
		m:    m,
		t:    t,
		inst: inst,
		args: make([]argRef, len(sig.Args)),
	}
	for i, arg := range sig.Args {
		op := inst.Operands[i]
		ref := argRef{op: op, arg: arg}
		if !arg.Sources.Allows(op.Type) {
			return nil, fmt.Errorf("argument %d (%s): %v operand not allowed (want %v)", i+1, arg.Name, op.Type, arg.Sources)
		}
		if arg.Out && !op.IsVariable() {
			return nil, fmt.Errorf("argument %d (%s): output must be a variable", i+1, arg.Name)
		}
		if err := checkOperandKind(arg.Kind, op); err != nil {
			return nil, fmt.Errorf("argument %d (%s): %v", i+1, arg.Name, err)
		}
		if op.IsVariable() {
			var err error
			ref.global, ref.local = op.Type == scm.GlobalVar, op.Type == scm.LocalVar
			ref.index, err = m.variableIndex(t, op)
			if err != nil {
				return nil, fmt.Errorf("argument %d (%s): %w", i+1, arg.Name, err)
			}
		}
		c.args[i] = ref
	}
	for i, op := range inst.Extra() {
		v, err := m.operandValue(t, op)
		if err != nil {
			return nil, fmt.Errorf("extra argument %d: %w", i+1, err)
		}
		c.extra = append(c.extra, v)
	}
	return c, nil
}

func checkOperandKind(k scm.Kind, op scm.Operand) error {
	if op.IsVariable() {
		if k == scm.KindText {
			return fmt.Errorf("%v argument cannot be a variable", k)
		}
		return nil
	}
	switch k {
	case scm.KindAny:
		return nil
	case scm.KindText:
		if op.Type != scm.String {
			return fmt.Errorf("%v argument has %v operand", k, op.Type)
		}
	case scm.KindFloat:
		if op.Type != scm.Float {
			return fmt.Errorf("%v argument has %v operand", k, op.Type)
		}
	default:
		if !op.IsInt() {
			return fmt.Errorf("%v argument has %v operand", k, op.Type)
		}
	}
	return nil
}

// variableIndex returns the cell index of a variable operand
// after checking it is inside its storage.
func (m *Machine) variableIndex(t *Thread, op scm.Operand) (int, error) {
	switch op.Type {
	case scm.GlobalVar:
		i, err := globalIndex(op.Int)
		if err != nil {
			return 0, err
		}
		return i, m.vars.globals.check(i, true)
	case scm.LocalVar:
		i := int(op.Int)
		return i, t.locals.check(i, false)
	default:
		return 0, fmt.Errorf("%v operand is not a variable", op.Type)
	}
}

// operandValue returns the value of an operand
// with variables read as the type last stored in them.
func (m *Machine) operandValue(t *Thread, op scm.Operand) (Value, error) {
	switch {
	case op.IsInt():
		return IntValue(op.Int), nil
	case op.Type == scm.Float:
		return FloatValue(op.Float), nil
	case op.Type == scm.String:
		return TextValue(op.Text), nil
	case op.Type == scm.GlobalVar:
		i, err := globalIndex(op.Int)
		if err != nil {
			return Value{}, err
		}
		return m.vars.ReadGlobal(i)
	case op.Type == scm.LocalVar:
		return t.locals.read(int(op.Int), false)
	default:
		return Value{}, fmt.Errorf("unexpected %v operand", op.Type)
	}
}

// scalar returns the value of the declared argument i
// interpreted as the argument's kind.
func (c *Call) scalar(i int) Value {
	ref := &c.args[i]
	if !ref.global && !ref.local {
		switch {
		case ref.op.IsInt() && ref.arg.Kind == scm.KindHandle:
			return HandleValue(world.Handle(ref.op.Int))
		case ref.op.IsInt():
			return IntValue(ref.op.Int)
		case ref.op.Type == scm.Float:
			return FloatValue(ref.op.Float)
		default:
			return TextValue(ref.op.Text)
		}
	}
	store := &c.t.locals
	if ref.global {
		store = &c.m.vars.globals
	}
	switch ref.arg.Kind {
	case scm.KindFloat:
		return cellValue(TypeFloat, store.bits[ref.index])
	case scm.KindHandle:
		return cellValue(TypeHandle, store.bits[ref.index])
	case scm.KindAny:
		v, _ := store.read(ref.index, ref.global)
		return v
	default:
		return cellValue(TypeInt, store.bits[ref.index])
	}
}

// Fail records an error that kills the thread once the handler returns.
// Only the first error is kept.
// Outputs written before the first error stay written;
// later writes are ignored.
func (c *Call) Fail(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

// Err returns the first error recorded on the call.
func (c *Call) Err() error {
	return c.err
}

// Opcode returns the opcode being executed, without the negate bit.
func (c *Call) Opcode() scm.Opcode {
	return c.inst.Opcode
}

// Signature returns the signature of the instruction being executed.
func (c *Call) Signature() *scm.Signature {
	return c.inst.Signature
}

// NumParams returns the number of parameters of the instruction.
func (c *Call) NumParams() int {
	return len(c.inst.Signature.Params)
}

// World returns the world the machine drives.
func (c *Call) World() world.World {
	return c.m.world
}

// ThreadID returns the ID of the thread executing the instruction.
func (c *Call) ThreadID() ThreadID {
	return c.t.id
}

// ThreadName returns the name of the thread executing the instruction.
func (c *Call) ThreadName() string {
	return c.t.name
}

// Mission reports whether the instruction is executed by a mission thread.
func (c *Call) Mission() bool {
	return c.t.mission
}

func (c *Call) param(p int, kinds ...scm.Kind) (scm.Param, bool) {
	params := c.inst.Signature.Params
	if p < 0 || p >= len(params) {
		c.Fail(fmt.Errorf("%s has no parameter %d", c.inst.Signature.Name, p))
		return scm.Param{}, false
	}
	prm := params[p]
	if !slices.Contains(kinds, prm.Kind) {
		c.Fail(fmt.Errorf("%s parameter %d (%s) is %v, not %v", c.inst.Signature.Name, p, prm.Name, prm.Kind, kinds[0]))
		return scm.Param{}, false
	}
	return prm, true
}

// Int returns an integer or model parameter.
func (c *Call) Int(p int) int32 {
	prm, ok := c.param(p, scm.KindInt, scm.KindModel, scm.KindAny)
	if !ok {
		return 0
	}
	return c.scalar(prm.First).Int()
}

// Bool returns an integer parameter as a boolean flag.
func (c *Call) Bool(p int) bool {
	prm, ok := c.param(p, scm.KindInt)
	if !ok {
		return false
	}
	return c.scalar(prm.First).Int() != 0
}

// Float returns a floating-point parameter.
func (c *Call) Float(p int) float32 {
	prm, ok := c.param(p, scm.KindFloat, scm.KindAny)
	if !ok {
		return 0
	}
	return c.scalar(prm.First).Float()
}

// Text returns a text label parameter.
func (c *Call) Text(p int) string {
	prm, ok := c.param(p, scm.KindText, scm.KindAny)
	if !ok {
		return ""
	}
	return c.scalar(prm.First).Text()
}

// Handle returns an engine object handle parameter.
func (c *Call) Handle(p int) world.Handle {
	prm, ok := c.param(p, scm.KindHandle)
	if !ok {
		return 0
	}
	return c.scalar(prm.First).Handle()
}

// Label returns a jump label parameter as an absolute address.
// Negative labels are relative to the thread's base address.
func (c *Call) Label(p int) uint32 {
	prm, ok := c.param(p, scm.KindLabel)
	if !ok {
		return 0
	}
	return c.t.resolveLabel(c.scalar(prm.First).Int())
}

// Vec2 returns a two-component vector parameter.
func (c *Call) Vec2(p int) world.Vec2 {
	prm, ok := c.param(p, scm.KindVec2)
	if !ok {
		return world.Vec2{}
	}
	return world.Vec2{
		X: c.scalar(prm.First).Float(),
		Y: c.scalar(prm.First + 1).Float(),
	}
}

// Vec3 returns a three-component vector parameter.
func (c *Call) Vec3(p int) world.Vec3 {
	prm, ok := c.param(p, scm.KindVec3)
	if !ok {
		return world.Vec3{}
	}
	return world.Vec3{
		X: c.scalar(prm.First).Float(),
		Y: c.scalar(prm.First + 1).Float(),
		Z: c.scalar(prm.First + 2).Float(),
	}
}

// Colour returns a colour parameter.
// Colours without an alpha component are opaque.
func (c *Call) Colour(p int) world.Colour {
	prm, ok := c.param(p, scm.KindRGB, scm.KindRGBA)
	if !ok {
		return world.Colour{}
	}
	col := world.Colour{
		R: uint8(c.scalar(prm.First).Int()),
		G: uint8(c.scalar(prm.First + 1).Int()),
		B: uint8(c.scalar(prm.First + 2).Int()),
		A: 0xff,
	}
	if prm.Kind == scm.KindRGBA {
		col.A = uint8(c.scalar(prm.First + 3).Int())
	}
	return col
}

// Value returns any parameter as a [Value].
func (c *Call) Value(p int) Value {
	params := c.inst.Signature.Params
	if p < 0 || p >= len(params) {
		c.Fail(fmt.Errorf("%s has no parameter %d", c.inst.Signature.Name, p))
		return Value{}
	}
	switch prm := params[p]; prm.Kind {
	case scm.KindVec2:
		return Vec2Value(c.Vec2(p))
	case scm.KindVec3:
		return Vec3Value(c.Vec3(p))
	case scm.KindRGB:
		return RGBValue(c.Colour(p))
	case scm.KindRGBA:
		return RGBAValue(c.Colour(p))
	default:
		return c.scalar(prm.First)
	}
}

// Extra returns the values of the operands
// that follow the declared arguments of a variable-length instruction.
func (c *Call) Extra() []Value {
	return slices.Clone(c.extra)
}

// SetInt writes an integer to an output parameter.
// The write takes effect immediately.
func (c *Call) SetInt(p int, v int32) {
	c.set(p, IntValue(v), scm.KindInt, scm.KindAny)
}

// SetFloat writes a float to an output parameter.
// The write takes effect immediately.
func (c *Call) SetFloat(p int, v float32) {
	c.set(p, FloatValue(v), scm.KindFloat, scm.KindAny)
}

// SetHandle writes a handle to an output parameter.
// The write takes effect immediately.
func (c *Call) SetHandle(p int, h world.Handle) {
	c.set(p, HandleValue(h), scm.KindHandle)
}

func (c *Call) set(p int, v Value, kinds ...scm.Kind) {
	if c.err != nil {
		return
	}
	prm, ok := c.param(p, kinds...)
	if !ok {
		return
	}
	if !prm.Out {
		c.Fail(fmt.Errorf("%s parameter %d (%s) is not an output", c.inst.Signature.Name, p, prm.Name))
		return
	}
	ref := &c.args[prm.First]
	var err error
	if ref.global {
		err = c.m.vars.WriteGlobal(ref.index, v)
	} else {
		err = c.t.locals.write(ref.index, v, false)
	}
	c.Fail(err)
}
