// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type disasmOptions struct {
	files    []string
	json     bool
	start    uint32
	end      uint32
	hasStart bool
	hasEnd   bool
}

func newDisasmCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "disasm [options] FILE [...]",
		Short:                 "disassemble one or more bytecode files",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(disasmOptions)
	c.Flags().BoolVar(&opts.json, "json", false, "print instructions as JSON objects, one per line")
	c.Flags().Uint32Var(&opts.start, "start", 0, "first byte `offset` to disassemble (defaults to the code section)")
	c.Flags().Uint32Var(&opts.end, "end", 0, "byte `offset` to stop at (defaults to the end of the file)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.files = args
		opts.hasStart = cmd.Flags().Changed("start")
		opts.hasEnd = cmd.Flags().Changed("end")
		return runDisasm(cmd.Context(), g, os.Stdout, opts)
	}
	return c
}

func runDisasm(ctx context.Context, g *globalConfig, out io.Writer, opts *disasmOptions) error {
	sigs, err := g.signatures()
	if err != nil {
		return err
	}

	listings := make([]bytes.Buffer, len(opts.files))
	errs := make([]error, len(opts.files))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range opts.files {
		if grpCtx.Err() != nil {
			break
		}
		grp.Go(func() error {
			errs[i] = disassembleFile(grpCtx, &listings[i], sigs, path, opts)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("%s: %w", path, errs[i])
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	for i := range listings {
		if len(opts.files) > 1 && !opts.json {
			if i > 0 {
				io.WriteString(out, "\n")
			}
			fmt.Fprintf(out, "%s:\n", opts.files[i])
		}
		if _, err := listings[i].WriteTo(out); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// disassembleFile writes the listing of a file to dst.
// On a decode error, dst holds the listing up to the error.
func disassembleFile(ctx context.Context, dst *bytes.Buffer, sigs *scm.Table, path string, opts *disasmOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := scm.Parse(data)
	if err != nil {
		return err
	}
	d := scm.NewDecoder(f, sigs)

	var regions []scm.Region
	if opts.hasStart || opts.hasEnd {
		r := scm.Region{Start: f.CodeSection(), End: uint32(f.Len())}
		if opts.hasStart {
			r.Start = opts.start
		}
		if opts.hasEnd {
			r.End = min(opts.end, uint32(f.Len()))
		}
		regions = append(regions, r)
	} else {
		regions = append(regions, scm.Region{Start: f.CodeSection(), End: f.MainSize()})
		for i := range f.MissionOffsets() {
			r, err := f.MissionRegion(i)
			if err != nil {
				return err
			}
			regions = append(regions, r)
		}
	}

	var enc *jsontext.Encoder
	if opts.json {
		enc = jsontext.NewEncoder(dst)
	}
	for _, r := range regions {
		if !opts.json && r.Start != f.CodeSection() {
			fmt.Fprintf(dst, "; %v\n", r)
		}
		for inst, err := range d.Disassemble(r) {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if enc == nil {
				dst.WriteString(inst.String())
				dst.WriteString("\n")
				continue
			}
			if err := jsonv2.MarshalEncode(enc, newJSONInstruction(path, inst)); err != nil {
				return err
			}
		}
	}
	return nil
}

type jsonInstruction struct {
	File     string        `json:"file"`
	Offset   uint32        `json:"offset"`
	Opcode   string        `json:"opcode"`
	Name     string        `json:"name"`
	Negated  bool          `json:"negated,omitempty"`
	Operands []jsonOperand `json:"operands"`
}

type jsonOperand struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

func newJSONInstruction(path string, inst *scm.Instruction) *jsonInstruction {
	ji := &jsonInstruction{
		File:     path,
		Offset:   inst.Offset,
		Opcode:   inst.Opcode.String(),
		Name:     inst.Signature.Name,
		Negated:  inst.Negated,
		Operands: make([]jsonOperand, 0, len(inst.Operands)),
	}
	for _, o := range inst.Operands {
		jo := jsonOperand{Type: o.Type.String()}
		switch o.Type {
		case scm.Int8, scm.Int16, scm.Int32:
			jo.Value = o.Int
		case scm.Float:
			jo.Value = o.Float
		case scm.String:
			jo.Value = o.Text
		case scm.GlobalVar, scm.LocalVar:
			jo.Value = o.String()
		}
		ji.Operands = append(ji.Operands, jo)
	}
	return ji
}
