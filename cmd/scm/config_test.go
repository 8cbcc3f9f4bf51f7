// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultGlobalConfig(t *testing.T) {
	got := defaultGlobalConfig()
	if got.FrameInterval != defaultFrameInterval {
		t.Errorf("defaultGlobalConfig().FrameInterval = %v; want %v", got.FrameInterval, defaultFrameInterval)
	}
	if got.SaveDB == "" {
		t.Errorf("defaultGlobalConfig().SaveDB is empty")
	}
}

func TestGlobalConfigMergeFiles(t *testing.T) {
	dir := t.TempDir()
	var paths [3]string
	paths[0] = filepath.Join(dir, "config1.jsonc")
	config1 := `{
		// Comments and trailing commas are allowed.
		"debug": true,
		"saveDB": "/foo/saves.db",
		"callDepth": 8,
		"unknownKey": {"nested": [1, 2]},
	}`
	if err := os.WriteFile(paths[0], []byte(config1+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	paths[1] = filepath.Join(dir, "missing.jsonc")
	paths[2] = filepath.Join(dir, "config2.jsonc")
	config2 := `{"saveDB": "/bar/saves.db", "frameInterval": "50ms", "localSlots": 32}`
	if err := os.WriteFile(paths[2], []byte(config2+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}

	g := defaultGlobalConfig()
	if err := g.mergeFiles(slices.Values(paths[:])); err != nil {
		t.Error("mergeFiles:", err)
	}
	want := &globalConfig{
		Debug:         true,
		SaveDB:        "/bar/saves.db",
		CallDepth:     8,
		LocalSlots:    32,
		FrameInterval: 50 * time.Millisecond,
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if err := g.validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestGlobalConfigMergeFilesErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"NotObject", `[]`},
		{"BadDuration", `{"frameInterval": "soon"}`},
		{"WrongType", `{"callDepth": "deep"}`},
		{"Syntax", `{"debug": }`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.jsonc")
			if err := os.WriteFile(path, []byte(test.config), 0o666); err != nil {
				t.Fatal(err)
			}
			g := defaultGlobalConfig()
			if err := g.mergeFiles(slices.Values([]string{path})); err == nil {
				t.Errorf("mergeFiles(%q) did not return an error", test.config)
			}
		})
	}
}

func TestGlobalConfigMergeEnvironment(t *testing.T) {
	t.Setenv("SCM_SAVE_DB", "/env/saves.db")
	t.Setenv("SCM_DEBUG", "1")
	g := defaultGlobalConfig()
	if err := g.mergeEnvironment(); err != nil {
		t.Fatal(err)
	}
	if g.SaveDB != "/env/saves.db" {
		t.Errorf("SaveDB = %q; want %q", g.SaveDB, "/env/saves.db")
	}
	if !g.Debug {
		t.Error("Debug = false; want true")
	}
}

func TestGlobalConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(g *globalConfig)
	}{
		{"NegativeBudget", func(g *globalConfig) { g.InstructionBudget = -1 }},
		{"NegativeCallDepth", func(g *globalConfig) { g.CallDepth = -1 }},
		{"TooFewLocals", func(g *globalConfig) { g.LocalSlots = 4 }},
		{"ZeroFrame", func(g *globalConfig) { g.FrameInterval = 0 }},
		{"NoSaveDB", func(g *globalConfig) { g.SaveDB = "" }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := &globalConfig{
				SaveDB:        "/foo/saves.db",
				FrameInterval: defaultFrameInterval,
			}
			if err := g.validate(); err != nil {
				t.Fatalf("valid config: %v", err)
			}
			test.modify(g)
			if err := g.validate(); err == nil {
				t.Error("validate() = <nil>; want error")
			}
		})
	}
}

func TestGlobalConfigOpcodeTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opcodes.toml")
	const table = `
[[opcode]]
id = 0x0001
name = "WAIT"
argc = 1
args = [
  { name = "time", type = "INT" },
]
`
	if err := os.WriteFile(path, []byte(table), 0o666); err != nil {
		t.Fatal(err)
	}
	g := &globalConfig{OpcodeTable: path}
	sigs, err := g.signatures()
	if err != nil {
		t.Fatal(err)
	}
	if sigs.Len() != 1 {
		t.Errorf("loaded %d signatures; want 1", sigs.Len())
	}
	// Handlers are bound by opcode, so a table must declare every handled instruction.
	if _, err := g.dispatchTable(); err == nil {
		t.Error("dispatchTable() with a partial signature table did not return an error")
	}
}

func TestGlobalConfigDefaultDispatchTable(t *testing.T) {
	g := defaultGlobalConfig()
	table, err := g.dispatchTable()
	if err != nil {
		t.Fatal(err)
	}
	if !table.Implemented(0x0001) {
		t.Error("WAIT not implemented in default table")
	}
}
