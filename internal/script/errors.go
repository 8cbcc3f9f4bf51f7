// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"errors"
	"fmt"
)

var (
	// ErrCallStackOverflow is the cause of a thread's death
	// when a subroutine call exceeds the call stack depth.
	ErrCallStackOverflow = errors.New("call stack overflow")
	// ErrCallStackUnderflow is the cause of a thread's death
	// when it returns with an empty call stack.
	ErrCallStackUnderflow = errors.New("return with empty call stack")
)

// IndexError is returned for a variable index
// outside of the global or local storage.
type IndexError struct {
	Global bool
	Index  int
	Len    int
}

func (e *IndexError) Error() string {
	space := "local"
	if e.Global {
		space = "global"
	}
	return fmt.Sprintf("%s variable %d out of range [0, %d)", space, e.Index, e.Len)
}

// ThreadError is the error that killed a thread.
type ThreadError struct {
	ID   ThreadID
	Name string
	PC   uint32
	Err  error
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("thread %d (%s) at %#06x: %v", e.ID, e.Name, e.PC, e.Err)
}

func (e *ThreadError) Unwrap() error {
	return e.Err
}
