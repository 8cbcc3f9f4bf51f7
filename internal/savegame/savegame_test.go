// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package savegame

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/rwengine/openrw/internal/opcodes"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/testcontext"
	"github.com/rwengine/openrw/internal/world"
	"zombiezen.com/go/log/testlog"
)

func TestMain(m *testing.M) {
	testlog.Main(nil)
	os.Exit(m.Run())
}

// fakeClock returns a clock that advances one second per call.
func fakeClock() func() time.Time {
	t := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(tb testing.TB, opts *Options) *Store {
	tb.Helper()
	if opts == nil {
		opts = new(Options)
	}
	if opts.Now == nil {
		opts.Now = fakeClock()
	}
	s := Open(filepath.Join(tb.TempDir(), "save.db"), opts)
	tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tb.Error(err)
		}
	})
	return s
}

func testSnapshot(file string, threads int) *script.Snapshot {
	snap := &script.Snapshot{
		Digest:      sha256.Sum256([]byte(file)),
		Globals:     []uint32{0, 0, 42, 0x3fc00000},
		GlobalTypes: []script.Type{script.TypeInt, script.TypeInt, script.TypeInt, script.TypeFloat},
		NextID:      script.ThreadID(threads),
		OnMission:   -1,
	}
	for i := range threads {
		snap.Threads = append(snap.Threads, script.ThreadSnapshot{
			ID:          script.ThreadID(i + 1),
			Name:        "noname",
			RegionStart: 0x40,
			RegionEnd:   0x80,
			Base:        0x40,
			PC:          0x48,
			Locals:      make([]uint32, script.MinLocals),
			LocalTypes:  make([]script.Type, script.MinLocals),
			State:       script.Running,
		})
	}
	return snap
}

func TestSaveLoad(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	want := testSnapshot("main.scm", 2)
	id, err := s.Save(ctx, "first", want)
	if err != nil {
		t.Fatal(err)
	}
	if id == uuid.Nil {
		t.Error("Save returned nil ID")
	}
	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded snapshot (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	_, err := s.Load(ctx, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(random ID) error = %v; want %v", err, ErrNotFound)
	}
	if err := s.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(random ID) error = %v; want %v", err, ErrNotFound)
	}
	if err := s.Rename(ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename(random ID) error = %v; want %v", err, ErrNotFound)
	}
}

func TestList(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	if slots, err := s.List(ctx, nil); err != nil || len(slots) != 0 {
		t.Fatalf("List on empty store = %v, %v; want [], <nil>", slots, err)
	}

	mainSnap := testSnapshot("main.scm", 1)
	otherSnap := testSnapshot("other.scm", 3)
	id1, err := s.Save(ctx, "one", mainSnap)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Save(ctx, "two", otherSnap)
	if err != nil {
		t.Fatal(err)
	}
	id3, err := s.Save(ctx, "three", mainSnap)
	if err != nil {
		t.Fatal(err)
	}

	slots, err := s.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	type summary struct {
		ID      uuid.UUID
		Name    string
		Threads int
	}
	summarize := func(slots []*Slot) []summary {
		var out []summary
		for _, slot := range slots {
			out = append(out, summary{slot.ID, slot.Name, slot.Threads})
		}
		return out
	}
	want := []summary{
		{id1, "one", 1},
		{id2, "two", 3},
		{id3, "three", 1},
	}
	if diff := cmp.Diff(want, summarize(slots)); diff != "" {
		t.Errorf("List(nil) (-want +got):\n%s", diff)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Created.After(slots[i-1].Created) {
			t.Errorf("slots[%d].Created = %v; want after %v", i, slots[i].Created, slots[i-1].Created)
		}
	}
	for _, slot := range slots {
		if slot.Size <= 0 {
			t.Errorf("slot %v size = %d; want > 0", slot.ID, slot.Size)
		}
	}

	slots, err = s.List(ctx, &mainSnap.Digest)
	if err != nil {
		t.Fatal(err)
	}
	want = []summary{
		{id1, "one", 1},
		{id3, "three", 1},
	}
	if diff := cmp.Diff(want, summarize(slots)); diff != "" {
		t.Errorf("List(main digest) (-want +got):\n%s", diff)
	}
	for _, slot := range slots {
		if slot.Digest != mainSnap.Digest {
			t.Errorf("slot %v digest = %x; want %x", slot.ID, slot.Digest, mainSnap.Digest)
		}
	}
}

func TestRenameDelete(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	id, err := s.Save(ctx, "before", testSnapshot("main.scm", 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Rename(ctx, id, "after"); err != nil {
		t.Fatal(err)
	}
	slots, err := s.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].Name != "after" {
		t.Errorf("after rename, slots = %+v; want one slot named %q", slots, "after")
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Delete error = %v; want %v", err, ErrNotFound)
	}
}

func TestKeep(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, &Options{Keep: 2})

	mainSnap := testSnapshot("main.scm", 1)
	otherSnap := testSnapshot("other.scm", 1)
	var ids []uuid.UUID
	for _, name := range []string{"a", "b", "c"} {
		id, err := s.Save(ctx, name, mainSnap)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	otherID, err := s.Save(ctx, "other", otherSnap)
	if err != nil {
		t.Fatal(err)
	}

	slots, err := s.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []uuid.UUID
	for _, slot := range slots {
		got = append(got, slot.ID)
	}
	want := []uuid.UUID{ids[1], ids[2], otherID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slots after exceeding limit (-want +got):\n%s", diff)
	}
}

func TestExport(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	snap := testSnapshot("main.scm", 2)
	id, err := s.Save(ctx, "export", snap)
	if err != nil {
		t.Fatal(err)
	}
	want, err := snap.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	if err := s.Export(ctx, buf, id); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Export wrote %x; want %x", buf.Bytes(), want)
	}
}

// TestResume saves a running machine and resumes it in a fresh one.
func TestResume(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	s := newTestStore(t, nil)

	b := scm.NewBuilder(scm.GTAVC)
	b.Globals(2)
	main := b.Main()
	top := main.Here()
	main.Op(0x0008, scm.GlobalArg(3), scm.IntArg(1)) // ADD_VAL_TO_INT_VAR
	main.Op(0x0001, scm.IntArg(100))                 // WAIT
	main.Op(0x0002, scm.LabelArg(top))               // GOTO
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	f, err := scm.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	table, err := opcodes.NewTable(scm.DefaultTable())
	if err != nil {
		t.Fatal(err)
	}
	newMachine := func() *script.Machine {
		m, err := script.New(f, table, new(world.Memory), nil)
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	m1 := newMachine()
	if _, err := m1.Launch(f.MainRegion()); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := m1.Tick(ctx, 100*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	id, err := s.Save(ctx, "resume", m1.Snapshot())
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	m2 := newMachine()
	if err := m2.Restore(snap); err != nil {
		t.Fatal(err)
	}
	for _, m := range []*script.Machine{m1, m2} {
		if err := m.Tick(ctx, 100*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	want, err := m1.Vars().GlobalInt(3)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m2.Vars().GlobalInt(3)
	if err != nil {
		t.Fatal(err)
	}
	if got != want || got != 4 {
		t.Errorf("counter after resume = %d; want %d (original machine) and 4", got, want)
	}
}
