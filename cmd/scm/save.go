// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rwengine/openrw/internal/savegame"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newSaveCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "save COMMAND",
		Short: "manage saved machine states",
	}
	c.AddCommand(
		newSaveListCommand(g),
		newSaveExportCommand(g),
		newSaveRenameCommand(g),
		newSaveDeleteCommand(g),
	)
	return c
}

func newSaveListCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "list [options]",
		Short:                 "list save slots",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	file := c.Flags().String("file", "", "only list slots saved from the bytecode file at `path`")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		var digest *[32]byte
		if *file != "" {
			data, err := os.ReadFile(*file)
			if err != nil {
				return err
			}
			sum := sha256.Sum256(data)
			digest = &sum
		}
		return runSaveList(cmd.Context(), g, os.Stdout, digest)
	}
	return c
}

func runSaveList(ctx context.Context, g *globalConfig, out io.Writer, digest *[32]byte) error {
	var slots []*savegame.Slot
	err := withSaves(g, func(saves *savegame.Store) error {
		var err error
		slots, err = saves.List(ctx, digest)
		return err
	})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tTHREADS\tSIZE\tFILE")
	for _, slot := range slots {
		fmt.Fprintf(tw, "%v\t%s\t%s\t%d\t%d\t%x\n",
			slot.ID, slot.Name, slot.Created.Local().Format(time.DateTime), slot.Threads, slot.Size, slot.Digest[:6])
	}
	return tw.Flush()
}

type saveExportOptions struct {
	id     uuid.UUID
	output io.WriteCloser
}

func newSaveExportCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "export [options] ID",
		Short:                 "write a save slot's encoded state",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(saveExportOptions)
	outputPath := c.Flags().StringP("output", "o", "", "output `file`")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		var err error
		opts.id, err = uuid.Parse(args[0])
		if err != nil {
			return err
		}
		switch {
		case *outputPath == "" && term.IsTerminal(int(os.Stdout.Fd())):
			return errors.New("refusing to send binary export to stdout (a tty). Pass --output=- to override.")
		case *outputPath == "" || *outputPath == "-":
			opts.output = nopWriteCloser{os.Stdout}
		default:
			opts.output, err = os.Create(*outputPath)
			if err != nil {
				return err
			}
		}
		return runSaveExport(cmd.Context(), g, opts)
	}
	return c
}

func runSaveExport(ctx context.Context, g *globalConfig, opts *saveExportOptions) error {
	closeFunc := sync.OnceValue(opts.output.Close)
	defer closeFunc()

	err := withSaves(g, func(saves *savegame.Store) error {
		return saves.Export(ctx, opts.output, opts.id)
	})
	if err != nil {
		return err
	}
	return closeFunc()
}

func newSaveRenameCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "rename ID NAME",
		Short:                 "rename a save slot",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(2),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		return withSaves(g, func(saves *savegame.Store) error {
			return saves.Rename(cmd.Context(), id, args[1])
		})
	}
	return c
}

func newSaveDeleteCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "delete ID [...]",
		Short:                 "delete one or more save slots",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(args))
		for _, arg := range args {
			id, err := uuid.Parse(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return withSaves(g, func(saves *savegame.Store) error {
			for _, id := range ids {
				if err := saves.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return c
}

// openSaves opens the configured save database,
// creating its parent directory if needed.
func openSaves(g *globalConfig) (*savegame.Store, error) {
	if err := os.MkdirAll(filepath.Dir(g.SaveDB), 0o777); err != nil {
		return nil, err
	}
	return savegame.Open(g.SaveDB, nil), nil
}

func withSaves(g *globalConfig, f func(saves *savegame.Store) error) error {
	saves, err := openSaves(g)
	if err != nil {
		return err
	}
	err = f(saves)
	if closeErr := saves.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
