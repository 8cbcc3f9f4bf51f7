// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rwengine/openrw/internal/script"
	"github.com/spf13/cobra"
)

type opcodesOptions struct {
	json          bool
	unimplemented bool
}

func newOpcodesCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "opcodes [options]",
		Short:                 "list the known instructions",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(opcodesOptions)
	c.Flags().BoolVar(&opts.json, "json", false, "print instructions as JSON objects, one per line")
	c.Flags().BoolVar(&opts.unimplemented, "unimplemented", false, "only list instructions without a handler")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runOpcodes(cmd.Context(), g, os.Stdout, opts)
	}
	return c
}

type jsonSignature struct {
	Opcode      string      `json:"opcode"`
	Name        string      `json:"name"`
	Condition   bool        `json:"condition,omitempty"`
	Variadic    bool        `json:"variadic,omitempty"`
	Implemented bool        `json:"implemented"`
	Params      []jsonParam `json:"params"`
}

type jsonParam struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Out  bool   `json:"out,omitempty"`
}

func runOpcodes(ctx context.Context, g *globalConfig, out io.Writer, opts *opcodesOptions) error {
	table, err := g.dispatchTable()
	if err != nil {
		return err
	}
	return listOpcodes(out, table, opts)
}

func listOpcodes(out io.Writer, table *script.Table, opts *opcodesOptions) error {
	bw := bufio.NewWriter(out)
	var enc *jsontext.Encoder
	if opts.json {
		enc = jsontext.NewEncoder(bw)
	}
	for sig := range table.Signatures().All() {
		implemented := table.Implemented(sig.Opcode)
		if opts.unimplemented && implemented {
			continue
		}
		if enc == nil {
			mark := " "
			if !implemented {
				mark = "-"
			}
			fmt.Fprintf(bw, "%s %v\n", mark, sig)
			continue
		}
		js := &jsonSignature{
			Opcode:      sig.Opcode.String(),
			Name:        sig.Name,
			Condition:   sig.Condition,
			Variadic:    sig.Variadic,
			Implemented: implemented,
			Params:      make([]jsonParam, 0, len(sig.Params)),
		}
		for _, p := range sig.Params {
			js.Params = append(js.Params, jsonParam{
				Name: p.Name,
				Kind: p.Kind.String(),
				Out:  p.Out,
			})
		}
		if err := jsonv2.MarshalEncode(enc, js); err != nil {
			return err
		}
	}
	return bw.Flush()
}
