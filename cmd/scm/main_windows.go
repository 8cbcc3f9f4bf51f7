// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package main

func ignoreSIGPIPE() {}
