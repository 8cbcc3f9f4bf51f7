// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"slices"
	"time"

	"github.com/rwengine/openrw/internal/scm"
)

// ThreadID identifies a thread within a [Machine].
// IDs are assigned in creation order starting at 1 and never reused.
type ThreadID uint32

// State is the lifecycle state of a [Thread].
type State uint8

// Thread states.
const (
	Running State = iota // running
	Waiting              // waiting
	Dead                 // dead
)

// wakeKind is the condition a waiting thread is waiting for.
type wakeKind uint8

const (
	wakeNone wakeKind = iota
	// wakeTimer resumes the thread once its wait time has elapsed.
	wakeTimer
	// wakeYield resumes the thread on the next tick.
	wakeYield
	// wakeTimerOrSkip is wakeTimer that also resumes
	// when the world reports the wait-skip input.
	wakeTimerOrSkip
)

// Local variable slots holding the thread's timers.
// Both are advanced by the elapsed milliseconds every tick.
const (
	TimerA = 16
	TimerB = 17
)

// MinLocals is the smallest number of local variables a thread can have.
const MinLocals = TimerB + 1

// DefaultThreadName is the name threads have until they name themselves.
const DefaultThreadName = "THREAD"

// condState is the state of an if-group being evaluated.
type condState struct {
	// pending is the number of condition instructions left in the group.
	pending int
	or      bool
	acc     bool
	// result is the condition result the next branch tests.
	result bool
}

// record stores the result of a condition instruction.
func (c *condState) record(result bool) {
	c.result = result
	if c.pending == 0 {
		return
	}
	c.pending--
	if c.or {
		c.acc = c.acc || result
	} else {
		c.acc = c.acc && result
	}
	c.result = c.acc
}

// begin starts an if-group of n conditions.
func (c *condState) begin(n int, or bool) {
	c.pending = n
	c.or = or
	c.acc = !or
}

// A Thread is a cooperative script thread.
// Threads are owned by a [Machine]
// and must only be accessed while it is not ticking.
type Thread struct {
	id     ThreadID
	name   string
	region scm.Region
	base   uint32
	pc     uint32
	locals cells
	stack  []uint32
	state  State
	err    error

	wake     wakeKind
	wakeLeft int64 // milliseconds

	cond condState

	mission          bool
	deathArrestCheck bool
	wastedOrBusted   bool

	// born is the machine tick count when the thread was created.
	born uint64
}

// ID returns the thread's identifier.
func (t *Thread) ID() ThreadID { return t.id }

// Name returns the thread's name.
func (t *Thread) Name() string { return t.name }

// PC returns the offset of the next instruction the thread will execute.
func (t *Thread) PC() uint32 { return t.pc }

// Base returns the address that negative jump labels are relative to.
func (t *Thread) Base() uint32 { return t.base }

// Region returns the part of the file the thread executes in.
func (t *Thread) Region() scm.Region { return t.region }

// State returns the thread's lifecycle state.
func (t *Thread) State() State { return t.state }

// Err returns the error that killed the thread, if any.
// The error is a [*ThreadError].
func (t *Thread) Err() error { return t.err }

// IsMission reports whether the thread runs a mission script.
func (t *Thread) IsMission() bool { return t.mission }

// WastedOrBusted reports whether the thread has been sent
// to its death-or-arrest handler.
func (t *Thread) WastedOrBusted() bool { return t.wastedOrBusted }

// Condition returns the thread's current condition result.
func (t *Thread) Condition() bool { return t.cond.result }

// CallStack returns the return addresses of the thread's active subroutine calls,
// outermost first.
func (t *Thread) CallStack() []uint32 {
	return slices.Clone(t.stack)
}

// NumLocals returns the number of local variables the thread has.
// Dead threads have none.
func (t *Thread) NumLocals() int {
	return t.locals.len()
}

// WaitRemaining returns how long a thread waiting on a timer
// will continue to wait.
func (t *Thread) WaitRemaining() time.Duration {
	if t.state != Waiting || (t.wake != wakeTimer && t.wake != wakeTimerOrSkip) {
		return 0
	}
	return time.Duration(t.wakeLeft) * time.Millisecond
}

// resolveLabel converts a jump operand to an absolute address.
// Negative labels are relative to the thread's base address.
func (t *Thread) resolveLabel(label int32) uint32 {
	if label < 0 {
		return t.base + uint32(-label)
	}
	return uint32(label)
}

// sleep suspends the thread for ms milliseconds.
// A non-positive duration yields until the next tick.
func (t *Thread) sleep(ms int32, skippable bool) {
	t.state = Waiting
	switch {
	case ms <= 0:
		t.wake = wakeYield
		t.wakeLeft = 0
	case skippable:
		t.wake = wakeTimerOrSkip
		t.wakeLeft = int64(ms)
	default:
		t.wake = wakeTimer
		t.wakeLeft = int64(ms)
	}
}

// kill marks the thread dead and releases its locals.
func (t *Thread) kill(err error) {
	t.state = Dead
	t.err = err
	t.wake = wakeNone
	t.locals = cells{}
	t.stack = nil
}
