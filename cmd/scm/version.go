// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

// scmVersion is the version string filled in by the linker (e.g. "1.2.3").
var scmVersion string

func newVersionCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "version",
		Short:                 "show version information",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runVersion(cmd.Context())
	}
	return c
}

func runVersion(ctx context.Context) error {
	firstLine := "scm"
	if scmVersion == "" {
		firstLine += " (version unknown)"
	} else {
		firstLine += " version " + scmVersion
	}
	fmt.Printf("%s\nSystem:       %s/%s\nGo:           %s\nInstructions: %d\n",
		firstLine, runtime.GOOS, runtime.GOARCH, runtime.Version(), scm.DefaultTable().Len())

	info, ok := debug.ReadBuildInfo()
	if !ok {
		log.Debugf(ctx, "No build information in binary")
		return nil
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			fmt.Printf("Revision:     %s\n", setting.Value)
		}
	}
	return nil
}
