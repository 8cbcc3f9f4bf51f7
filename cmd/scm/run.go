// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rwengine/openrw/internal/savegame"
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/world"
	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

type runOptions struct {
	file     string
	ticks    int
	frame    time.Duration
	budget   int
	realtime bool
	saveName string
	loadID   uuid.UUID
}

func newRunCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "run [options] FILE",
		Short:                 "run a bytecode file against an in-memory world",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(runOptions)
	c.Flags().IntVar(&opts.ticks, "ticks", 0, "stop after `n` ticks (0 runs until every thread has ended)")
	c.Flags().DurationVar(&opts.frame, "frame", 0, "game time per tick (defaults to the configured frame interval)")
	c.Flags().IntVar(&opts.budget, "budget", 0, "maximum instructions per thread per tick")
	c.Flags().BoolVar(&opts.realtime, "realtime", false, "wait for each frame interval to pass between ticks")
	c.Flags().StringVar(&opts.saveName, "save", "", "save the machine state as `name` when the run stops")
	c.Flags().Var((*slotIDFlag)(&opts.loadID), "load", "resume from the save slot with the given `id`")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.file = args[0]
		if opts.ticks < 0 {
			return fmt.Errorf("--ticks must not be negative")
		}
		if opts.frame < 0 {
			return fmt.Errorf("--frame must not be negative")
		}
		if opts.frame == 0 {
			opts.frame = g.FrameInterval
		}
		return runRun(cmd.Context(), g, opts)
	}
	return c
}

func runRun(ctx context.Context, g *globalConfig, opts *runOptions) (err error) {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return err
	}
	f, err := scm.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %v", opts.file, err)
	}
	table, err := g.dispatchTable()
	if err != nil {
		return err
	}
	w := new(world.Memory)
	w.OnPrint = func(t world.Text) {
		fmt.Printf("[%v] %s\n", t.Kind, t.ID)
	}
	machineOpts := g.machineOptions()
	if opts.budget > 0 {
		machineOpts.Budget = opts.budget
	}
	m, err := script.New(f, table, w, machineOpts)
	if err != nil {
		return err
	}

	var saves *savegame.Store
	if opts.loadID != uuid.Nil || opts.saveName != "" {
		saves, err = openSaves(g)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := saves.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
	}
	if opts.loadID != uuid.Nil {
		snap, err := saves.Load(ctx, opts.loadID)
		if err != nil {
			return err
		}
		if err := m.Restore(snap); err != nil {
			return err
		}
		log.Infof(ctx, "Resumed %s from %v with %d threads", opts.file, opts.loadID, len(snap.Threads))
	} else {
		if _, err := m.Launch(f.MainRegion()); err != nil {
			return err
		}
	}

	n, err := tickLoop(ctx, m, w, opts)
	if err != nil {
		return err
	}
	log.Infof(ctx, "Ran %d ticks (%v of game time); %d threads alive", n, w.GameTime(), len(m.Threads()))

	if opts.saveName != "" {
		// Save even if interrupted.
		id, err := saves.Save(context.WithoutCancel(ctx), opts.saveName, m.Snapshot())
		if err != nil {
			return err
		}
		fmt.Println(id)
	}
	return nil
}

// tickLoop advances the machine until it has no threads,
// the tick limit is reached, or ctx is done.
// Being interrupted is not an error.
func tickLoop(ctx context.Context, m *script.Machine, w *world.Memory, opts *runOptions) (int, error) {
	var ticker *time.Ticker
	if opts.realtime {
		ticker = time.NewTicker(opts.frame)
		defer ticker.Stop()
	}
	n := 0
	for opts.ticks == 0 || n < opts.ticks {
		if len(m.Threads()) == 0 && n > 0 {
			break
		}
		if err := m.Tick(ctx, opts.frame); err != nil {
			if ctx.Err() != nil {
				log.Infof(ctx, "Interrupted after %d ticks", n)
				return n, nil
			}
			return n, err
		}
		w.Advance(opts.frame)
		n++
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				log.Infof(ctx, "Interrupted after %d ticks", n)
				return n, nil
			}
		}
	}
	return n, nil
}
