// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/testcontext"
)

func snapshotTestScript() *scm.Builder {
	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(4)
	main := b.Main()
	child := main.Label()
	sub := main.Label()
	main.Op(opSetOnMissionFlag, scm.GlobalArg(5))
	main.Op(testSetVarFloat, scm.GlobalArg(3), scm.FloatArg(1.5))
	main.Op(opStartNewScript, scm.LabelArg(child), scm.IntArg(7), scm.EndArgs())
	main.Op(opGosub, scm.LabelArg(sub))
	main.Op(testSetVarInt, scm.GlobalArg(4), scm.IntArg(2))
	idle(main)
	main.Mark(sub)
	main.Op(opWait, scm.IntArg(1000))
	main.Op(opReturn)
	main.Mark(child)
	main.Op(opScriptName, scm.TextArg("CHILD"))
	idle(main)
	return b
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	m1 := newTestMachine(t, snapshotTestScript(), nil, nil)
	m1.launchMain(t)
	m1.tick(t, ctx, 0)
	m1.tick(t, ctx, 300*time.Millisecond+500*time.Microsecond)

	snap := m1.Snapshot()
	if len(snap.Threads) != 2 {
		t.Fatalf("snapshot has %d threads; want 2", len(snap.Threads))
	}
	data, err := snap.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	decoded := new(Snapshot)
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	m2 := newTestMachine(t, snapshotTestScript(), nil, nil)
	if err := m2.Restore(decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snap, m2.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot after restore (-want +got):\n%s", diff)
	}
	if got, err := m2.Vars().ReadGlobal(3); err != nil || got != FloatValue(1.5) {
		t.Errorf("restored global 3 = %v, %v; want 1.5, <nil>", got, err)
	}
	if got := m2.Threads()[1].Name(); got != "CHILD" {
		t.Errorf("restored child name = %q; want \"CHILD\"", got)
	}

	for _, m := range []testMachine{m1, m2} {
		m.tick(t, ctx, 699*time.Millisecond)
		if got := m.global(t, 4); got != 0 {
			t.Fatalf("global 4 = %d after 999.5ms; want 0", got)
		}
		m.tick(t, ctx, 500*time.Microsecond)
		if got := m.global(t, 4); got != 2 {
			t.Errorf("global 4 = %d after 1000ms; want 2", got)
		}
	}
	if diff := cmp.Diff(m1.Snapshot(), m2.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("machines diverged after restore (-original +restored):\n%s", diff)
	}
}

func TestSnapshotMarshalDeterministic(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	m := newTestMachine(t, snapshotTestScript(), nil, nil)
	m.launchMain(t)
	m.tick(t, ctx, 0)
	data1, err := m.Snapshot().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	data2, err := m.Snapshot().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if string(data1) != string(data2) {
		t.Error("marshaling the same state twice produced different bytes")
	}
}

func TestSnapshotEncoding(t *testing.T) {
	want := &Snapshot{NextID: 2, OnMission: -1}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	// CBOR major type 5 is a map.
	if len(data) == 0 || data[0]>>5 != 5 {
		t.Errorf("MarshalBinary() = %x; want a CBOR map", data)
	}
	got := new(Snapshot)
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded snapshot (-want +got):\n%s", diff)
	}
}

func TestRestoreErrors(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()

	src := newTestMachine(t, snapshotTestScript(), nil, nil)
	src.launchMain(t)
	src.tick(t, ctx, 0)

	other := scm.NewBuilder(scm.GTAVC)
	other.Globals(4)
	idle(other.Main())

	tests := []struct {
		name   string
		target testMachine
		mutate func(s *Snapshot)
	}{
		{
			name:   "DifferentFile",
			target: newTestMachine(t, other, nil, nil),
			mutate: func(s *Snapshot) {},
		},
		{
			name: "GlobalCount",
			mutate: func(s *Snapshot) {
				s.Globals = s.Globals[:len(s.Globals)-1]
			},
		},
		{
			name: "ShortLocals",
			mutate: func(s *Snapshot) {
				s.Threads[0].Locals = s.Threads[0].Locals[:4]
				s.Threads[0].LocalTypes = s.Threads[0].LocalTypes[:4]
			},
		},
		{
			name: "DuplicateID",
			mutate: func(s *Snapshot) {
				s.Threads[1].ID = s.Threads[0].ID
			},
		},
		{
			name: "DeadThread",
			mutate: func(s *Snapshot) {
				s.Threads[0].State = Dead
			},
		},
		{
			name: "RegionOutsideFile",
			mutate: func(s *Snapshot) {
				s.Threads[0].RegionEnd = 1 << 30
			},
		},
		{
			name: "DeepStack",
			mutate: func(s *Snapshot) {
				s.Threads[0].Stack = make([]uint32, DefaultCallDepth+1)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			target := test.target
			if target.Machine == nil {
				target = newTestMachine(t, snapshotTestScript(), nil, nil)
			}
			s := src.Snapshot()
			test.mutate(s)
			if err := target.Restore(s); err == nil {
				t.Error("Restore did not return an error")
			}
			if len(target.Threads()) != 0 {
				t.Error("failed Restore modified the machine")
			}
		})
	}
}
