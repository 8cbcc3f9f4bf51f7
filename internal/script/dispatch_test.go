// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"context"
	"errors"
	"testing"

	"github.com/rwengine/openrw/internal/scm"
)

func TestNewTableErrors(t *testing.T) {
	nop := func(ctx context.Context, c *Call) bool { return false }
	_, err := NewTable(scm.DefaultTable(), func(b *Bindings) {
		b.Bind(0x7ffe, nop)
		b.Bind(testSetVarInt, nop, scm.KindInt, scm.KindInt)
		b.Bind(testSetVarInt, nop, scm.KindInt, scm.KindInt)
		b.Bind(testSetCharCoords, nop, scm.KindHandle, scm.KindFloat, scm.KindFloat, scm.KindFloat)
		b.Bind(opWait, nop, scm.KindInt)
		b.Bind(testIsGreater, nil, scm.KindInt, scm.KindInt)
		b.Bind(testIsEqual|scm.NegateMask, nop, scm.KindInt, scm.KindInt)
	})
	if err == nil {
		t.Fatal("NewTable did not return an error")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("NewTable error %v does not join its causes", err)
	}
	if got, want := len(joined.Unwrap()), 6; got != want {
		t.Errorf("NewTable reported %d errors; want %d:\n%v", got, want, err)
	}
}

func TestTableImplemented(t *testing.T) {
	table, err := NewTable(scm.DefaultTable(), bindTestHandlers)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		op          scm.Opcode
		implemented bool
		intrinsic   bool
	}{
		{op: opWait, implemented: true, intrinsic: true},
		{op: opAndOr, implemented: true, intrinsic: true},
		{op: testSetVarInt, implemented: true},
		{op: testIsGreater | scm.NegateMask, implemented: true},
		{op: testShakeCam},
		{op: 0x7ffe},
	}
	for _, test := range tests {
		if got := table.Implemented(test.op); got != test.implemented {
			t.Errorf("table.Implemented(%v) = %t; want %t", test.op, got, test.implemented)
		}
		if got := table.Intrinsic(test.op); got != test.intrinsic {
			t.Errorf("table.Intrinsic(%v) = %t; want %t", test.op, got, test.intrinsic)
		}
	}
	if table.Signatures() != scm.DefaultTable() {
		t.Error("table.Signatures() is not the table it was built from")
	}
}

func TestIntrinsicsSkipMissingSignatures(t *testing.T) {
	sigs, err := scm.LoadTable([]byte(`
[[opcode]]
id = 0x0001
name = "WAIT"
argc = 1
args = [{ name = "time", type = "INT" }]
`))
	if err != nil {
		t.Fatal(err)
	}
	table, err := NewTable(sigs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !table.Intrinsic(opWait) {
		t.Error("WAIT is not bound")
	}
	if table.Implemented(opGoto) {
		t.Error("GOTO is bound without a signature")
	}
}
