// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rwengine/openrw/internal/scm"
)

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("script: create CBOR encoding mode: %v", err))
	}
	snapshotEncMode = em
}

// A Snapshot is the state of a [Machine] between ticks:
// its global variables and live threads.
// The state of the world is not included.
type Snapshot struct {
	// Digest is the SHA-256 hash of the bytecode file
	// the snapshot was taken from.
	Digest      [32]byte         `cbor:"1,keyasint"`
	Globals     []uint32         `cbor:"2,keyasint"`
	GlobalTypes []Type           `cbor:"3,keyasint"`
	Threads     []ThreadSnapshot `cbor:"4,keyasint,omitempty"`
	NextID      ThreadID         `cbor:"5,keyasint"`
	// OnMission is the index of the on-mission flag global or -1.
	OnMission int           `cbor:"6,keyasint"`
	Carry     time.Duration `cbor:"7,keyasint,omitempty"`
}

// ThreadSnapshot is the state of a single thread in a [Snapshot].
type ThreadSnapshot struct {
	ID          ThreadID `cbor:"1,keyasint"`
	Name        string   `cbor:"2,keyasint"`
	RegionStart uint32   `cbor:"3,keyasint"`
	RegionEnd   uint32   `cbor:"4,keyasint"`
	Base        uint32   `cbor:"5,keyasint"`
	PC          uint32   `cbor:"6,keyasint"`
	Locals      []uint32 `cbor:"7,keyasint"`
	LocalTypes  []Type   `cbor:"8,keyasint"`
	Stack       []uint32 `cbor:"9,keyasint,omitempty"`
	State       State    `cbor:"10,keyasint"`
	Wake        uint8    `cbor:"11,keyasint,omitempty"`
	WakeLeft    int64    `cbor:"12,keyasint,omitempty"`

	CondPending int  `cbor:"13,keyasint,omitempty"`
	CondOr      bool `cbor:"14,keyasint,omitempty"`
	CondAcc     bool `cbor:"15,keyasint,omitempty"`
	CondResult  bool `cbor:"16,keyasint,omitempty"`

	Mission          bool `cbor:"17,keyasint,omitempty"`
	DeathArrestCheck bool `cbor:"18,keyasint,omitempty"`
	WastedOrBusted   bool `cbor:"19,keyasint,omitempty"`
}

// Snapshot captures the machine's state.
// Dead threads are not included.
func (m *Machine) Snapshot() *Snapshot {
	g := m.vars.globals.clone()
	s := &Snapshot{
		Digest:      sha256.Sum256(m.file.Bytes()),
		Globals:     g.bits,
		GlobalTypes: g.types,
		NextID:      m.nextID,
		OnMission:   m.onMission,
		Carry:       m.carry,
	}
	for _, t := range m.threads {
		if t.state == Dead {
			continue
		}
		locals := t.locals.clone()
		s.Threads = append(s.Threads, ThreadSnapshot{
			ID:               t.id,
			Name:             t.name,
			RegionStart:      t.region.Start,
			RegionEnd:        t.region.End,
			Base:             t.base,
			PC:               t.pc,
			Locals:           locals.bits,
			LocalTypes:       locals.types,
			Stack:            t.CallStack(),
			State:            t.state,
			Wake:             uint8(t.wake),
			WakeLeft:         t.wakeLeft,
			CondPending:      t.cond.pending,
			CondOr:           t.cond.or,
			CondAcc:          t.cond.acc,
			CondResult:       t.cond.result,
			Mission:          t.mission,
			DeathArrestCheck: t.deathArrestCheck,
			WastedOrBusted:   t.wastedOrBusted,
		})
	}
	return s
}

// Restore replaces the machine's globals and threads
// with the state captured in s.
// The snapshot must have been taken from a machine
// running the same bytecode file.
// Restore does not modify the machine if it returns an error.
func (m *Machine) Restore(s *Snapshot) error {
	if s.Digest != sha256.Sum256(m.file.Bytes()) {
		return fmt.Errorf("restore snapshot: taken from a different bytecode file")
	}
	if len(s.Globals) != m.vars.NumGlobals() || len(s.GlobalTypes) != len(s.Globals) {
		return fmt.Errorf("restore snapshot: has %d globals (want %d)", len(s.Globals), m.vars.NumGlobals())
	}
	if s.OnMission < -1 || s.OnMission >= len(s.Globals) {
		return fmt.Errorf("restore snapshot: on-mission flag %d out of range", s.OnMission)
	}
	threads := make([]*Thread, 0, len(s.Threads))
	seen := make(map[ThreadID]struct{})
	for _, ts := range s.Threads {
		t, err := m.restoreThread(&ts)
		if err != nil {
			return fmt.Errorf("restore snapshot: thread %d: %v", ts.ID, err)
		}
		if _, dup := seen[t.id]; dup || t.id > s.NextID {
			return fmt.Errorf("restore snapshot: thread id %d reused or out of range", t.id)
		}
		seen[t.id] = struct{}{}
		threads = append(threads, t)
	}

	m.vars.globals = cells{
		bits:  append([]uint32(nil), s.Globals...),
		types: append([]Type(nil), s.GlobalTypes...),
	}
	m.threads = threads
	m.nextID = s.NextID
	m.onMission = s.OnMission
	m.carry = s.Carry
	m.ticks = 0
	return nil
}

func (m *Machine) restoreThread(ts *ThreadSnapshot) (*Thread, error) {
	r := scm.Region{Start: ts.RegionStart, End: ts.RegionEnd}
	switch {
	case r.Start >= r.End || r.End > uint32(m.file.Len()):
		return nil, fmt.Errorf("region %v not inside file", r)
	case ts.PC > uint32(m.file.Len()):
		return nil, fmt.Errorf("program counter %#06x outside of file", ts.PC)
	case len(ts.Locals) < MinLocals || len(ts.LocalTypes) != len(ts.Locals):
		return nil, fmt.Errorf("has %d locals", len(ts.Locals))
	case len(ts.Stack) > m.opts.CallDepth:
		return nil, fmt.Errorf("call stack depth %d exceeds %d", len(ts.Stack), m.opts.CallDepth)
	case ts.State != Running && ts.State != Waiting:
		return nil, fmt.Errorf("invalid state %v", ts.State)
	case wakeKind(ts.Wake) > wakeTimerOrSkip:
		return nil, fmt.Errorf("invalid wake condition %d", ts.Wake)
	case ts.CondPending < 0 || ts.CondPending > 8:
		return nil, fmt.Errorf("invalid pending condition count %d", ts.CondPending)
	}
	return &Thread{
		id:     ts.ID,
		name:   ts.Name,
		region: r,
		base:   ts.Base,
		pc:     ts.PC,
		locals: cells{
			bits:  append([]uint32(nil), ts.Locals...),
			types: append([]Type(nil), ts.LocalTypes...),
		},
		stack:    append([]uint32(nil), ts.Stack...),
		state:    ts.State,
		wake:     wakeKind(ts.Wake),
		wakeLeft: ts.WakeLeft,
		cond: condState{
			pending: ts.CondPending,
			or:      ts.CondOr,
			acc:     ts.CondAcc,
			result:  ts.CondResult,
		},
		mission:          ts.Mission,
		deathArrestCheck: ts.DeathArrestCheck,
		wastedOrBusted:   ts.WastedOrBusted,
	}, nil
}

// plainSnapshot has the fields of [Snapshot] without its methods,
// so that CBOR encodes it as a map instead of calling MarshalBinary.
type plainSnapshot Snapshot

// MarshalBinary encodes the snapshot in canonical CBOR.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	data, err := snapshotEncMode.Marshal((*plainSnapshot)(s))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %v", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a snapshot encoded with [Snapshot.MarshalBinary].
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	var s2 plainSnapshot
	if err := cbor.Unmarshal(data, &s2); err != nil {
		return fmt.Errorf("unmarshal snapshot: %v", err)
	}
	*s = Snapshot(s2)
	return nil
}
