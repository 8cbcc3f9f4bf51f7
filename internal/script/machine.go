// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

//go:generate go tool stringer -type=Type,State -linecomment -output=script_string.go

// Package script runs mission-script bytecode.
// A [Machine] owns the global variables and a list of cooperative threads,
// and advances them one tick at a time,
// dispatching each instruction through a [Table]
// to either a control-flow instruction it implements itself
// or a [Handler] bound by the host.
package script

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/world"
	"zombiezen.com/go/log"
)

// Default limits.
const (
	DefaultBudget    = 10000
	DefaultCallDepth = 6
)

// Options is the set of optional parameters to [New].
type Options struct {
	// Budget is the number of instructions a thread may execute per tick.
	// Zero means [DefaultBudget].
	Budget int
	// CallDepth is the maximum number of nested subroutine calls.
	// Zero means [DefaultCallDepth].
	CallDepth int
	// LocalSlots is the number of local variables each thread has.
	// Zero means [MinLocals].
	LocalSlots int
}

// A Machine executes the threads of a bytecode file.
// A Machine is not safe for concurrent use.
type Machine struct {
	file  *scm.File
	dec   *scm.Decoder
	table *Table
	world world.World
	opts  Options

	vars    *Vars
	threads []*Thread
	nextID  ThreadID
	// onMission is the index of the global that holds the on-mission flag,
	// or -1 if none has been set.
	onMission int

	ticks uint64
	carry time.Duration

	unimplemented map[scm.Opcode]struct{}
}

// New returns a new machine for the given file
// with globals seeded from the file and no threads.
func New(f *scm.File, table *Table, w world.World, opts *Options) (*Machine, error) {
	if table == nil {
		return nil, fmt.Errorf("new script machine: nil dispatch table")
	}
	if w == nil {
		return nil, fmt.Errorf("new script machine: nil world")
	}
	m := &Machine{
		file:          f,
		dec:           scm.NewDecoder(f, table.sigs),
		table:         table,
		world:         w,
		vars:          newVars(f),
		onMission:     -1,
		unimplemented: make(map[scm.Opcode]struct{}),
	}
	if opts != nil {
		m.opts = *opts
	}
	if m.opts.Budget == 0 {
		m.opts.Budget = DefaultBudget
	}
	if m.opts.CallDepth == 0 {
		m.opts.CallDepth = DefaultCallDepth
	}
	if m.opts.LocalSlots == 0 {
		m.opts.LocalSlots = MinLocals
	}
	if m.opts.Budget < 0 {
		return nil, fmt.Errorf("new script machine: negative instruction budget %d", m.opts.Budget)
	}
	if m.opts.CallDepth < 0 {
		return nil, fmt.Errorf("new script machine: negative call depth %d", m.opts.CallDepth)
	}
	if m.opts.LocalSlots < MinLocals {
		return nil, fmt.Errorf("new script machine: %d local variables is less than the minimum %d", m.opts.LocalSlots, MinLocals)
	}
	return m, nil
}

// File returns the bytecode file the machine executes.
func (m *Machine) File() *scm.File { return m.file }

// Table returns the machine's dispatch table.
func (m *Machine) Table() *Table { return m.table }

// World returns the world the machine drives.
func (m *Machine) World() world.World { return m.world }

// Vars returns the machine's variable storage.
func (m *Machine) Vars() *Vars { return m.vars }

// OnMissionFlag returns the index of the global variable
// linked as the on-mission flag.
func (m *Machine) OnMissionFlag() (index int, ok bool) {
	return m.onMission, m.onMission >= 0
}

// Launch starts a thread at the beginning of the given region.
// Use [scm.File.MainRegion] to start the main script.
func (m *Machine) Launch(r scm.Region) (ThreadID, error) {
	if r.Start >= r.End || r.End > uint32(m.file.Len()) {
		return 0, fmt.Errorf("launch thread: region %v not inside file", r)
	}
	return m.spawn(r, r.Start, r.Start, false).id, nil
}

// SpawnChild starts a thread at entry
// that shares the parent's region and base address
// and has fresh local variables.
func (m *Machine) SpawnChild(parent ThreadID, entry uint32) (ThreadID, error) {
	p := m.Thread(parent)
	if p == nil || p.state == Dead {
		return 0, fmt.Errorf("spawn thread: no live thread %d", parent)
	}
	if !p.region.Contains(entry) {
		return 0, fmt.Errorf("spawn thread: %#06x outside of %v", entry, p.region)
	}
	return m.spawn(p.region, p.base, entry, false).id, nil
}

// LaunchMission starts a mission thread at the start of mission n.
func (m *Machine) LaunchMission(n int) (ThreadID, error) {
	r, err := m.file.MissionRegion(n)
	if err != nil {
		return 0, fmt.Errorf("launch mission: %v", err)
	}
	return m.spawn(r, r.Start, r.Start, true).id, nil
}

func (m *Machine) spawn(r scm.Region, base, entry uint32, mission bool) *Thread {
	m.nextID++
	t := &Thread{
		id:               m.nextID,
		name:             DefaultThreadName,
		region:           r,
		base:             base,
		pc:               entry,
		locals:           newCells(m.opts.LocalSlots),
		mission:          mission,
		deathArrestCheck: true,
		born:             m.ticks,
	}
	m.threads = append(m.threads, t)
	return t
}

// Terminate stops a thread and releases its local variables.
// The thread is removed from the machine at the end of the next tick.
func (m *Machine) Terminate(id ThreadID) error {
	t := m.Thread(id)
	if t == nil {
		return fmt.Errorf("terminate thread %d: no such thread", id)
	}
	t.kill(nil)
	return nil
}

// Threads returns the machine's threads in creation order.
func (m *Machine) Threads() []*Thread {
	return slices.Clone(m.threads)
}

// Thread returns the thread with the given ID
// or nil if the machine has no such thread.
func (m *Machine) Thread(id ThreadID) *Thread {
	for _, t := range m.threads {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Tick advances script time by dt and runs every thread
// that is not waiting, in creation order,
// for up to the instruction budget.
// Threads started during the tick run in the same tick.
// Errors in a thread kill only that thread.
// Tick checks ctx between threads
// and returns its error if it is done.
func (m *Machine) Tick(ctx context.Context, dt time.Duration) error {
	m.ticks++
	ms := m.elapsed(dt)
	var err error
	for i := 0; i < len(m.threads); i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		t := m.threads[i]
		if t.state == Dead {
			continue
		}
		m.advance(ctx, t, ms)
		if t.state == Running {
			m.run(ctx, t)
		}
	}
	m.threads = slices.DeleteFunc(m.threads, func(t *Thread) bool {
		return t.state == Dead
	})
	return err
}

// elapsed converts dt to whole milliseconds,
// carrying the remainder over to the next tick.
func (m *Machine) elapsed(dt time.Duration) int64 {
	total := m.carry + max(dt, 0)
	ms := total.Milliseconds()
	m.carry = total - time.Duration(ms)*time.Millisecond
	return ms
}

// advance applies the passage of ms milliseconds to a thread
// at the start of a tick.
func (m *Machine) advance(ctx context.Context, t *Thread, ms int64) {
	if t.born == m.ticks {
		// Started during this tick.
		return
	}
	for _, slot := range []int{TimerA, TimerB} {
		t.locals.bits[slot] += uint32(ms)
		t.locals.types[slot] = TypeInt
	}

	if t.mission && t.deathArrestCheck && !t.wastedOrBusted && m.world.PlayerWastedOrBusted() {
		t.wastedOrBusted = true
		if len(t.stack) > 0 {
			t.pc = t.stack[0]
		}
		t.stack = t.stack[:0]
		log.Debugf(ctx, "Thread %d (%s) jumping to %#06x after player was wasted or busted", t.id, t.name, t.pc)
	}

	if t.state != Waiting {
		return
	}
	switch t.wake {
	case wakeYield:
		t.resume()
	case wakeTimer, wakeTimerOrSkip:
		if t.wake == wakeTimerOrSkip && m.world.WaitSkipPressed() {
			t.resume()
			return
		}
		t.wakeLeft -= ms
		if t.wakeLeft <= 0 {
			t.resume()
		}
	}
}

func (t *Thread) resume() {
	t.state = Running
	t.wake = wakeNone
	t.wakeLeft = 0
}

// run executes instructions on t until it waits, dies,
// or exhausts its budget for the tick.
func (m *Machine) run(ctx context.Context, t *Thread) {
	for n := 0; t.state == Running; n++ {
		if n == m.opts.Budget {
			log.Debugf(ctx, "Thread %d (%s) exhausted its budget of %d instructions", t.id, t.name, m.opts.Budget)
			return
		}
		if t.pc >= t.region.End {
			log.Debugf(ctx, "Thread %d (%s) reached the end of %v", t.id, t.name, t.region)
			t.kill(nil)
			return
		}
		pc := t.pc
		if err := m.step(ctx, t); err != nil {
			terr := &ThreadError{ID: t.id, Name: t.name, PC: pc, Err: err}
			log.Errorf(ctx, "%v", terr)
			t.kill(terr)
		}
	}
}

// step executes the instruction at t's program counter.
func (m *Machine) step(ctx context.Context, t *Thread) error {
	inst, err := m.dec.Decode(t.pc)
	if err != nil {
		return err
	}
	sig := inst.Signature
	c, err := m.resolve(t, inst)
	if err != nil {
		return fmt.Errorf("%v %s: %w", inst.Opcode, sig.Name, err)
	}
	t.pc = inst.Next

	e := m.table.lookup(inst.Opcode)
	var result bool
	switch {
	case e != nil && e.intrinsic != nil:
		result, err = e.intrinsic(ctx, m, t, c)
		if err == nil {
			err = c.err
		}
	case e != nil && e.handler != nil:
		result = e.handler(ctx, c)
		err = c.err
	default:
		if _, logged := m.unimplemented[inst.Opcode]; !logged {
			m.unimplemented[inst.Opcode] = struct{}{}
			log.Debugf(ctx, "Unimplemented instruction %v", sig)
		}
	}
	if err != nil {
		return fmt.Errorf("%v %s: %w", inst.Opcode, sig.Name, err)
	}
	if sig.Condition && t.state != Dead {
		if inst.Negated {
			result = !result
		}
		t.cond.record(result)
	}
	return nil
}

// jump moves t's program counter to addr,
// which must be inside the thread's region.
func (m *Machine) jump(t *Thread, addr uint32) error {
	if !t.region.Contains(addr) {
		return fmt.Errorf("jump to %#06x outside of %v", addr, t.region)
	}
	t.pc = addr
	return nil
}

// call pushes t's program counter onto its call stack and jumps to addr.
// Absolute calls may target any address in the file.
func (m *Machine) call(t *Thread, addr uint32, absolute bool) error {
	if len(t.stack) >= m.opts.CallDepth {
		return ErrCallStackOverflow
	}
	if absolute {
		if addr >= uint32(m.file.Len()) {
			return fmt.Errorf("call to %#06x outside of file", addr)
		}
	} else if !t.region.Contains(addr) {
		return fmt.Errorf("call to %#06x outside of %v", addr, t.region)
	}
	t.stack = append(t.stack, t.pc)
	t.pc = addr
	return nil
}
