// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

// scm runs and inspects mission-script bytecode files.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"zombiezen.com/go/bass/sigterm"
	"zombiezen.com/go/log"
)

func main() {
	rootCommand := &cobra.Command{
		Use:           "scm",
		Short:         "mission script runtime",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := defaultGlobalConfig()
	configPaths := rootCommand.PersistentFlags().StringArray("config", nil, "`path` to an additional configuration file (may be repeated)")
	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")
	saveDB := rootCommand.PersistentFlags().String("save-db", "", "`path` to save game database")

	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := g.mergeFiles(configFiles(*configPaths)); err != nil {
			return err
		}
		if err := g.mergeEnvironment(); err != nil {
			return err
		}
		if cmd.Flags().Changed("debug") {
			g.Debug = *showDebug
		}
		if *saveDB != "" {
			g.SaveDB = *saveDB
		}
		initLogging(g.Debug)
		return g.validate()
	}

	rootCommand.AddCommand(
		newRunCommand(g),
		newDisasmCommand(g),
		newOpcodesCommand(g),
		newSaveCommand(g),
		newVersionCommand(),
	)

	ignoreSIGPIPE()
	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "scm: ", log.StdFlags, nil),
		})
	})
}
