// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rwengine/openrw/internal/opcodes"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/tailscale/hujson"
)

const defaultFrameInterval = time.Second / 30

type globalConfig struct {
	Debug             bool          `json:"debug"`
	SaveDB            string        `json:"saveDB"`
	InstructionBudget int           `json:"instructionBudget"`
	CallDepth         int           `json:"callDepth"`
	LocalSlots        int           `json:"localSlots"`
	FrameInterval     time.Duration `json:"frameInterval"`
	// OpcodeTable is the path to a TOML file of instruction signatures
	// used in place of the built-in table.
	OpcodeTable string `json:"opcodeTable"`
}

func defaultGlobalConfig() *globalConfig {
	g := &globalConfig{
		FrameInterval: defaultFrameInterval,
	}
	if dir := dataDir(); dir != "" {
		g.SaveDB = filepath.Join(dir, "scm", "saves.db")
	}
	return g
}

func (g *globalConfig) mergeEnvironment() error {
	if path := os.Getenv("SCM_SAVE_DB"); path != "" {
		g.SaveDB = path
	}
	if s := os.Getenv("SCM_DEBUG"); s != "" {
		debug, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("SCM_DEBUG: %v", err)
		}
		g.Debug = debug
	}
	return nil
}

// configFiles returns the configuration files to read
// in increasing order of preference.
func configFiles(extra []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for dir := range systemConfigDirs() {
			if !yield(filepath.Join(dir, "scm", "config.jsonc")) {
				return
			}
		}
		for _, path := range extra {
			if !yield(path) {
				return
			}
		}
	}
}

func (g *globalConfig) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, g, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}

	return nil
}

// UnmarshalJSONFrom unmarshals the configuration object from the JSON decoder,
// merging any fields in the JSON object with existing values.
func (g *globalConfig) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got := tok.Kind(); got != '{' {
		return fmt.Errorf("config must be an object not a %v", got)
	}

	for {
		keyToken, err := in.ReadToken()
		if err != nil {
			return err
		}
		switch kind := keyToken.Kind(); kind {
		case '}':
			return nil
		case '"':
			// Keep going.
		default:
			return fmt.Errorf("unexpected non-string key (%v) in object", kind)
		}

		switch k := keyToken.String(); k {
		case "debug":
			if err := jsonv2.UnmarshalDecode(in, &g.Debug); err != nil {
				return fmt.Errorf("unmarshal config.debug: %w", err)
			}
		case "saveDB":
			if err := jsonv2.UnmarshalDecode(in, &g.SaveDB); err != nil {
				return fmt.Errorf("unmarshal config.saveDB: %w", err)
			}
		case "instructionBudget":
			if err := jsonv2.UnmarshalDecode(in, &g.InstructionBudget); err != nil {
				return fmt.Errorf("unmarshal config.instructionBudget: %w", err)
			}
		case "callDepth":
			if err := jsonv2.UnmarshalDecode(in, &g.CallDepth); err != nil {
				return fmt.Errorf("unmarshal config.callDepth: %w", err)
			}
		case "localSlots":
			if err := jsonv2.UnmarshalDecode(in, &g.LocalSlots); err != nil {
				return fmt.Errorf("unmarshal config.localSlots: %w", err)
			}
		case "frameInterval":
			var s string
			if err := jsonv2.UnmarshalDecode(in, &s); err != nil {
				return fmt.Errorf("unmarshal config.frameInterval: %w", err)
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("unmarshal config.frameInterval: %w", err)
			}
			g.FrameInterval = d
		case "opcodeTable":
			if err := jsonv2.UnmarshalDecode(in, &g.OpcodeTable); err != nil {
				return fmt.Errorf("unmarshal config.opcodeTable: %w", err)
			}
		default:
			if reject, _ := jsonv2.GetOption(in.Options(), jsonv2.RejectUnknownMembers); reject {
				return fmt.Errorf("unmarshal config: unknown field %q", k)
			}
			if err := in.SkipValue(); err != nil {
				return err
			}
		}
	}
}

func (g *globalConfig) validate() error {
	if g.InstructionBudget < 0 {
		return fmt.Errorf("instruction budget %d is negative", g.InstructionBudget)
	}
	if g.CallDepth < 0 {
		return fmt.Errorf("call depth %d is negative", g.CallDepth)
	}
	if g.LocalSlots != 0 && g.LocalSlots < script.MinLocals {
		return fmt.Errorf("%d local variables is less than the minimum %d", g.LocalSlots, script.MinLocals)
	}
	if g.FrameInterval <= 0 {
		return fmt.Errorf("frame interval %v is not positive", g.FrameInterval)
	}
	if g.SaveDB == "" {
		return fmt.Errorf("save database path not set")
	}
	return nil
}

// signatures returns the configured table of instruction signatures.
func (g *globalConfig) signatures() (*scm.Table, error) {
	if g.OpcodeTable == "" {
		return scm.DefaultTable(), nil
	}
	data, err := os.ReadFile(g.OpcodeTable)
	if err != nil {
		return nil, err
	}
	t, err := scm.LoadTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", g.OpcodeTable, err)
	}
	return t, nil
}

// dispatchTable returns a dispatch table with every opcode handler bound.
func (g *globalConfig) dispatchTable() (*script.Table, error) {
	sigs, err := g.signatures()
	if err != nil {
		return nil, err
	}
	return opcodes.NewTable(sigs)
}

func (g *globalConfig) machineOptions() *script.Options {
	return &script.Options{
		Budget:     g.InstructionBudget,
		CallDepth:  g.CallDepth,
		LocalSlots: g.LocalSlots,
	}
}
