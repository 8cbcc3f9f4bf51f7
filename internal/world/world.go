// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

//go:generate go tool stringer -type=EntityType,TextKind -linecomment -output=world_string.go

// Package world defines the engine surface that mission scripts drive.
// Scripts never see engine objects directly:
// they hold opaque [Handle] values and ask a [World] about them.
package world

import (
	"fmt"
	"time"
)

// Handle identifies an engine object.
// Scripts store handles in 32-bit variable cells.
// The zero Handle never refers to an object.
type Handle int32

// EntityType is the kind of object a [Handle] refers to.
type EntityType uint8

// Entity types.
const (
	NoEntity     EntityType = iota // none
	Player                         // player
	Character                      // char
	Vehicle                        // car
	Object                         // object
	Pickup                         // pickup
	Blip                           // blip
	CarGenerator                   // car_generator
)

// Vec2 is a point or extent in the ground plane.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a point, rotation, or extent in world space.
type Vec3 struct {
	X, Y, Z float32
}

// XY returns the ground-plane projection of v.
func (v Vec3) XY() Vec2 {
	return Vec2{v.X, v.Y}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Colour is an 8-bit-per-channel colour.
type Colour struct {
	R, G, B, A uint8
}

// TextKind is the way a message is shown on screen.
type TextKind uint8

// Text kinds.
const (
	TextBig  TextKind = iota + 1 // big
	TextNow                      // now
	TextSoon                     // soon
	TextHelp                     // help
)

// Text is a message printed by a script.
type Text struct {
	// ID is the key of the message in the game's text table.
	ID       string
	Kind     TextKind
	Style    int32
	Duration time.Duration
}

// CarGeneratorParams describes a spawn point for parked vehicles.
type CarGeneratorParams struct {
	Position        Vec3
	Heading         float32
	Model           int32
	PrimaryColour   int32
	SecondaryColour int32
	ForceSpawn      bool
	Alarm           int32
	DoorLock        int32
	MinDelay        time.Duration
	MaxDelay        time.Duration
}

// World is the set of engine callbacks available to opcode handlers.
// Methods that take a [Handle] report false
// when the handle does not refer to a live object of a suitable type;
// scripts see this as a false condition, never as an error.
// Implementations are called from a single goroutine.
type World interface {
	// GameTime returns the time elapsed since the game started.
	GameTime() time.Duration
	// Clock returns the in-game time of day.
	Clock() (hour, minute int)
	SetClock(hour, minute int)

	ButtonPressed(pad, button int) bool
	// WaitSkipPressed reports whether the player asked
	// to skip a skippable wait.
	WaitSkipPressed() bool
	// PlayerWastedOrBusted reports whether the player
	// has just died or been arrested.
	PlayerWastedOrBusted() bool

	PrintText(t Text)
	ClearPrints()
	SetTextColour(c Colour)
	SetTextBackground(c Colour)

	// CameraFollow points the camera at an entity.
	CameraFollow(target Handle, mode, switchStyle int) bool
	RestoreCamera()
	SetFixedCamera(pos, rot Vec3)
	PointCamera(at Vec3, switchStyle int)
	SetFadeColour(c Colour)
	// FadeScreen starts fading the screen in or out over d.
	FadeScreen(d time.Duration, in bool)
	// Fading reports whether a fade is in progress.
	Fading() bool
	SetWidescreen(on bool)
	SetWeather(weather int)
	SetPlayerControl(player Handle, on bool) bool

	AddBlipForEntity(target Handle) (Handle, bool)
	AddBlipForCoord(pos Vec3) Handle
	RemoveBlip(blip Handle) bool

	CreatePlayer(model int32, pos Vec3) Handle
	// PlayerCharacter returns the character a player controls.
	PlayerCharacter(player Handle) (Handle, bool)
	CreateCharacter(pedType, model int32, pos Vec3) Handle
	CreateVehicle(model int32, pos Vec3) Handle
	CreateObject(model int32, pos Vec3) Handle
	CreatePickup(model, pickupType int32, pos Vec3) Handle
	CreateCarGenerator(params CarGeneratorParams) Handle
	// SetCarGeneratorCount sets how many more vehicles a generator spawns.
	// A count of -1 spawns forever.
	SetCarGeneratorCount(gen Handle, count int32) bool

	// Destroy removes an entity from the world.
	Destroy(h Handle) bool
	// Type returns the type of the entity h refers to,
	// or [NoEntity] if h does not refer to an entity.
	Type(h Handle) EntityType
	Position(h Handle) (Vec3, bool)
	SetPosition(h Handle, pos Vec3) bool
	Heading(h Handle) (float32, bool)
	SetHeading(h Handle, degrees float32) bool
	// Alive reports whether h refers to an entity that is not dead or wrecked.
	Alive(h Handle) bool
	SetVehicleColours(vehicle Handle, primary, secondary int32) bool
	PickupCollected(pickup Handle) bool
	// ClearArea removes characters and vehicles not owned by a mission
	// within radius of center.
	ClearArea(center Vec3, radius float32)

	AddScore(player Handle, money int32) bool
	Score(player Handle) (int32, bool)
	SetWantedLevel(player Handle, level int32) bool

	// TrackMissionEntity marks an entity as owned by the running mission,
	// so that [World.MissionCleanup] can release it.
	TrackMissionEntity(h Handle)
	// MissionCleanup releases the entities owned by the running mission.
	MissionCleanup()
	SetTotalMissions(n int32)
}
