// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package world

import (
	"maps"
	"slices"
	"time"
)

// Memory is a [World] that keeps all state in memory
// and has no simulation beyond what scripts ask of it.
// Handles are allocated sequentially starting at 1,
// and every operation is deterministic.
// The zero value is an empty world at midnight.
// Memory is not safe for concurrent use.
type Memory struct {
	// OnPrint, if not nil, is called for every message a script prints.
	OnPrint func(Text)

	now      time.Duration
	hour     int
	minute   int
	buttons  map[[2]int]bool
	waitSkip bool
	wasted   bool

	prints         []Text
	textColour     Colour
	textBackground Colour

	camera     Camera
	fadeColour Colour
	fadeEnd    time.Duration
	fadeIn     bool
	widescreen bool
	weather    int

	nextHandle    Handle
	entities      map[Handle]*Entity
	missionOwned  map[Handle]struct{}
	totalMissions int32
}

// Camera is the state of a [Memory] world's camera.
type Camera struct {
	// Target is the entity the camera follows,
	// or zero if the camera is fixed or default.
	Target   Handle
	Mode     int
	Fixed    bool
	Position Vec3
	Rotation Vec3
	LookAt   Vec3
}

// Entity is an object in a [Memory] world.
type Entity struct {
	Type     EntityType
	Model    int32
	PedType  int32
	Position Vec3
	Heading  float32
	Dead     bool

	// Character is the character a player controls.
	Character Handle
	Control   bool
	Score     int32
	Wanted    int32

	// Target is the entity a blip tracks, if any.
	Target Handle

	Colours    [2]int32
	PickupType int32
	Collected  bool

	Generator CarGeneratorParams
	Count     int32
}

var _ World = (*Memory)(nil)

// Advance moves game time forward by d.
func (m *Memory) Advance(d time.Duration) {
	m.now += d
}

// GameTime returns the total time passed to [Memory.Advance].
func (m *Memory) GameTime() time.Duration {
	return m.now
}

func (m *Memory) Clock() (hour, minute int) {
	return m.hour, m.minute
}

func (m *Memory) SetClock(hour, minute int) {
	m.hour = ((hour % 24) + 24) % 24
	m.minute = ((minute % 60) + 60) % 60
}

// Press sets the state of a button.
func (m *Memory) Press(pad, button int, down bool) {
	if m.buttons == nil {
		m.buttons = make(map[[2]int]bool)
	}
	if down {
		m.buttons[[2]int{pad, button}] = true
	} else {
		delete(m.buttons, [2]int{pad, button})
	}
}

func (m *Memory) ButtonPressed(pad, button int) bool {
	return m.buttons[[2]int{pad, button}]
}

// SetWaitSkip sets the state of the wait-skip input.
func (m *Memory) SetWaitSkip(pressed bool) {
	m.waitSkip = pressed
}

func (m *Memory) WaitSkipPressed() bool {
	return m.waitSkip
}

// SetWastedOrBusted sets whether the player has died or been arrested.
func (m *Memory) SetWastedOrBusted(b bool) {
	m.wasted = b
}

func (m *Memory) PlayerWastedOrBusted() bool {
	return m.wasted
}

func (m *Memory) PrintText(t Text) {
	m.prints = append(m.prints, t)
	if m.OnPrint != nil {
		m.OnPrint(t)
	}
}

// Prints returns the messages printed since the last call to [Memory.ClearPrints].
func (m *Memory) Prints() []Text {
	return slices.Clone(m.prints)
}

func (m *Memory) ClearPrints() {
	m.prints = nil
}

func (m *Memory) SetTextColour(c Colour) {
	m.textColour = c
}

// TextColours returns the foreground and background colours for printed text.
func (m *Memory) TextColours() (fg, bg Colour) {
	return m.textColour, m.textBackground
}

func (m *Memory) SetTextBackground(c Colour) {
	m.textBackground = c
}

func (m *Memory) CameraFollow(target Handle, mode, switchStyle int) bool {
	if !m.Alive(target) {
		return false
	}
	m.camera = Camera{Target: target, Mode: mode}
	return true
}

func (m *Memory) RestoreCamera() {
	m.camera = Camera{}
}

func (m *Memory) SetFixedCamera(pos, rot Vec3) {
	m.camera = Camera{Fixed: true, Position: pos, Rotation: rot}
}

func (m *Memory) PointCamera(at Vec3, switchStyle int) {
	m.camera.Target = 0
	m.camera.LookAt = at
}

// Camera returns the current camera state.
func (m *Memory) Camera() Camera {
	return m.camera
}

func (m *Memory) SetFadeColour(c Colour) {
	m.fadeColour = c
}

func (m *Memory) FadeScreen(d time.Duration, in bool) {
	m.fadeEnd = m.now + d
	m.fadeIn = in
}

func (m *Memory) Fading() bool {
	return m.now < m.fadeEnd
}

// Fade returns the fade colour and whether the last fade was a fade in.
func (m *Memory) Fade() (c Colour, in bool) {
	return m.fadeColour, m.fadeIn
}

func (m *Memory) SetWidescreen(on bool) {
	m.widescreen = on
}

// Widescreen reports whether widescreen borders are shown.
func (m *Memory) Widescreen() bool {
	return m.widescreen
}

func (m *Memory) SetWeather(weather int) {
	m.weather = weather
}

// Weather returns the forced weather type.
func (m *Memory) Weather() int {
	return m.weather
}

func (m *Memory) SetPlayerControl(player Handle, on bool) bool {
	e := m.lookup(player, Player)
	if e == nil {
		return false
	}
	e.Control = on
	return true
}

func (m *Memory) AddBlipForEntity(target Handle) (Handle, bool) {
	e := m.entities[target]
	if e == nil || e.Type == Blip {
		return 0, false
	}
	return m.add(&Entity{Type: Blip, Target: target, Position: e.Position}), true
}

func (m *Memory) AddBlipForCoord(pos Vec3) Handle {
	return m.add(&Entity{Type: Blip, Position: pos})
}

func (m *Memory) RemoveBlip(blip Handle) bool {
	if m.lookup(blip, Blip) == nil {
		return false
	}
	return m.Destroy(blip)
}

func (m *Memory) CreatePlayer(model int32, pos Vec3) Handle {
	char := m.add(&Entity{Type: Character, Model: model, Position: pos})
	return m.add(&Entity{Type: Player, Model: model, Position: pos, Character: char, Control: true})
}

func (m *Memory) PlayerCharacter(player Handle) (Handle, bool) {
	e := m.lookup(player, Player)
	if e == nil {
		return 0, false
	}
	return e.Character, true
}

func (m *Memory) CreateCharacter(pedType, model int32, pos Vec3) Handle {
	return m.add(&Entity{Type: Character, PedType: pedType, Model: model, Position: pos})
}

func (m *Memory) CreateVehicle(model int32, pos Vec3) Handle {
	return m.add(&Entity{Type: Vehicle, Model: model, Position: pos})
}

func (m *Memory) CreateObject(model int32, pos Vec3) Handle {
	return m.add(&Entity{Type: Object, Model: model, Position: pos})
}

func (m *Memory) CreatePickup(model, pickupType int32, pos Vec3) Handle {
	return m.add(&Entity{Type: Pickup, Model: model, PickupType: pickupType, Position: pos})
}

func (m *Memory) CreateCarGenerator(params CarGeneratorParams) Handle {
	return m.add(&Entity{
		Type:      CarGenerator,
		Model:     params.Model,
		Position:  params.Position,
		Heading:   params.Heading,
		Generator: params,
	})
}

func (m *Memory) SetCarGeneratorCount(gen Handle, count int32) bool {
	e := m.lookup(gen, CarGenerator)
	if e == nil {
		return false
	}
	e.Count = count
	return true
}

func (m *Memory) Destroy(h Handle) bool {
	e := m.entities[h]
	if e == nil {
		return false
	}
	delete(m.entities, h)
	delete(m.missionOwned, h)
	if e.Type == Player {
		delete(m.entities, e.Character)
		delete(m.missionOwned, e.Character)
	}
	return true
}

func (m *Memory) Type(h Handle) EntityType {
	if e := m.entities[h]; e != nil {
		return e.Type
	}
	return NoEntity
}

// Entity returns a copy of the entity h refers to.
func (m *Memory) Entity(h Handle) (Entity, bool) {
	e := m.entities[h]
	if e == nil {
		return Entity{}, false
	}
	return *e, true
}

// Handles returns the handles of all entities in ascending order.
func (m *Memory) Handles() []Handle {
	return slices.Sorted(maps.Keys(m.entities))
}

func (m *Memory) Position(h Handle) (Vec3, bool) {
	e := m.entities[h]
	if e == nil {
		return Vec3{}, false
	}
	if e.Type == Player {
		if c := m.entities[e.Character]; c != nil {
			return c.Position, true
		}
	}
	return e.Position, true
}

func (m *Memory) SetPosition(h Handle, pos Vec3) bool {
	e := m.entities[h]
	if e == nil || e.Type == Blip || e.Type == CarGenerator {
		return false
	}
	e.Position = pos
	if e.Type == Player {
		if c := m.entities[e.Character]; c != nil {
			c.Position = pos
		}
	}
	return true
}

func (m *Memory) Heading(h Handle) (float32, bool) {
	e := m.entities[h]
	if e == nil {
		return 0, false
	}
	if e.Type == Player {
		if c := m.entities[e.Character]; c != nil {
			return c.Heading, true
		}
	}
	return e.Heading, true
}

func (m *Memory) SetHeading(h Handle, degrees float32) bool {
	e := m.entities[h]
	if e == nil || e.Type == Blip || e.Type == Pickup {
		return false
	}
	e.Heading = degrees
	if e.Type == Player {
		if c := m.entities[e.Character]; c != nil {
			c.Heading = degrees
		}
	}
	return true
}

// Kill marks an entity as dead or wrecked.
func (m *Memory) Kill(h Handle) bool {
	e := m.entities[h]
	if e == nil {
		return false
	}
	e.Dead = true
	return true
}

func (m *Memory) Alive(h Handle) bool {
	e := m.entities[h]
	return e != nil && !e.Dead
}

func (m *Memory) SetVehicleColours(vehicle Handle, primary, secondary int32) bool {
	e := m.lookup(vehicle, Vehicle)
	if e == nil {
		return false
	}
	e.Colours = [2]int32{primary, secondary}
	return true
}

// Collect marks a pickup as collected by the player.
func (m *Memory) Collect(pickup Handle) bool {
	e := m.lookup(pickup, Pickup)
	if e == nil {
		return false
	}
	e.Collected = true
	return true
}

func (m *Memory) PickupCollected(pickup Handle) bool {
	e := m.lookup(pickup, Pickup)
	return e != nil && e.Collected
}

func (m *Memory) ClearArea(center Vec3, radius float32) {
	protected := make(map[Handle]struct{})
	for _, e := range m.entities {
		if e.Type == Player {
			protected[e.Character] = struct{}{}
		}
	}
	for _, h := range m.Handles() {
		e := m.entities[h]
		if e.Type != Character && e.Type != Vehicle {
			continue
		}
		if _, ok := m.missionOwned[h]; ok {
			continue
		}
		if _, ok := protected[h]; ok {
			continue
		}
		dx, dy, dz := e.Position.X-center.X, e.Position.Y-center.Y, e.Position.Z-center.Z
		if dx*dx+dy*dy+dz*dz <= radius*radius {
			m.Destroy(h)
		}
	}
}

func (m *Memory) AddScore(player Handle, money int32) bool {
	e := m.lookup(player, Player)
	if e == nil {
		return false
	}
	e.Score += money
	return true
}

func (m *Memory) Score(player Handle) (int32, bool) {
	e := m.lookup(player, Player)
	if e == nil {
		return 0, false
	}
	return e.Score, true
}

func (m *Memory) SetWantedLevel(player Handle, level int32) bool {
	e := m.lookup(player, Player)
	if e == nil || level < 0 || level > 6 {
		return false
	}
	e.Wanted = level
	return true
}

func (m *Memory) TrackMissionEntity(h Handle) {
	if m.entities[h] == nil {
		return
	}
	if m.missionOwned == nil {
		m.missionOwned = make(map[Handle]struct{})
	}
	m.missionOwned[h] = struct{}{}
}

// MissionCleanup destroys the blips owned by the mission
// and hands its other entities back to the world.
func (m *Memory) MissionCleanup() {
	for _, h := range slices.Sorted(maps.Keys(m.missionOwned)) {
		if m.Type(h) == Blip {
			m.Destroy(h)
		}
	}
	clear(m.missionOwned)
}

// MissionOwned reports whether h is tracked as owned by the running mission.
func (m *Memory) MissionOwned(h Handle) bool {
	_, ok := m.missionOwned[h]
	return ok
}

func (m *Memory) SetTotalMissions(n int32) {
	m.totalMissions = n
}

// TotalMissions returns the value last passed to [Memory.SetTotalMissions].
func (m *Memory) TotalMissions() int32 {
	return m.totalMissions
}

func (m *Memory) add(e *Entity) Handle {
	if m.entities == nil {
		m.entities = make(map[Handle]*Entity)
	}
	m.nextHandle++
	h := m.nextHandle
	m.entities[h] = e
	return h
}

func (m *Memory) lookup(h Handle, typ EntityType) *Entity {
	e := m.entities[h]
	if e == nil || e.Type != typ {
		return nil
	}
	return e
}
