// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// ignoreSIGPIPE makes writes to a closed pipe return an error
// instead of terminating the process.
func ignoreSIGPIPE() {
	signal.Ignore(unix.SIGPIPE)
}
