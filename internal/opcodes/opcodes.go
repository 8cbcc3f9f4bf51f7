// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

// Package opcodes implements the game instructions of the mission-script runtime
// on top of a [world.World].
// Control-flow instructions are implemented by package script itself.
package opcodes

import (
	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/world"
)

// Bind binds every game instruction this package implements.
// It is suitable as the bind argument to [script.NewTable].
func Bind(b *script.Bindings) {
	bindVars(b)
	bindEntities(b)
	bindScreen(b)
}

// NewTable returns a dispatch table for sigs
// with the instructions this package implements.
func NewTable(sigs *scm.Table) (*script.Table, error) {
	return script.NewTable(sigs, Bind)
}

// entity returns the handle in parameter p
// and whether it refers to a live object of the given type.
func entity(c *script.Call, p int, typ world.EntityType) (world.Handle, bool) {
	h := c.Handle(p)
	return h, h != 0 && c.World().Type(h) == typ
}

// created stores the handle of a newly created object in parameter p.
// Objects created by mission threads are released when the mission ends.
func created(c *script.Call, p int, h world.Handle) {
	if h != 0 && c.Mission() {
		c.World().TrackMissionEntity(h)
	}
	c.SetHandle(p, h)
}
