// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// slotIDFlag is the implementation of [pflag.Value]
// for a save slot ID.
type slotIDFlag uuid.UUID

var _ pflag.Value = (*slotIDFlag)(nil)

func (f *slotIDFlag) Type() string { return "id" }

func (f slotIDFlag) String() string {
	if uuid.UUID(f) == uuid.Nil {
		return ""
	}
	return uuid.UUID(f).String()
}

func (f slotIDFlag) Get() any { return uuid.UUID(f) }

func (f *slotIDFlag) Set(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*f = slotIDFlag(id)
	return nil
}
