// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package world

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryHandles(t *testing.T) {
	m := new(Memory)
	player := m.CreatePlayer(0, Vec3{1, 2, 3})
	car := m.CreateVehicle(90, Vec3{10, 0, 0})
	obj := m.CreateObject(1000, Vec3{})

	if got, want := m.Handles(), []Handle{1, 2, 3, 4}; !cmp.Equal(got, want) {
		t.Errorf("m.Handles() = %v; want %v", got, want)
	}
	tests := []struct {
		h    Handle
		want EntityType
	}{
		{player, Player},
		{car, Vehicle},
		{obj, Object},
		{0, NoEntity},
		{99, NoEntity},
	}
	for _, test := range tests {
		if got := m.Type(test.h); got != test.want {
			t.Errorf("m.Type(%d) = %v; want %v", test.h, got, test.want)
		}
	}

	char, ok := m.PlayerCharacter(player)
	if !ok || m.Type(char) != Character {
		t.Fatalf("m.PlayerCharacter(%d) = %d, %t; want character", player, char, ok)
	}
	if _, ok := m.PlayerCharacter(car); ok {
		t.Errorf("m.PlayerCharacter(%d) succeeded for a vehicle", car)
	}

	if !m.SetPosition(player, Vec3{5, 5, 5}) {
		t.Fatal("m.SetPosition(player) = false")
	}
	if got, _ := m.Position(char); got != (Vec3{5, 5, 5}) {
		t.Errorf("character position = %v; want (5, 5, 5)", got)
	}
	if !m.Destroy(player) {
		t.Error("m.Destroy(player) = false")
	}
	if m.Type(char) != NoEntity {
		t.Error("destroying player left its character behind")
	}
	if m.Destroy(player) {
		t.Error("second m.Destroy(player) = true")
	}
}

func TestMemoryTypeChecks(t *testing.T) {
	m := new(Memory)
	car := m.CreateVehicle(90, Vec3{})
	if m.SetPlayerControl(car, false) {
		t.Error("m.SetPlayerControl(car) = true")
	}
	if m.RemoveBlip(car) {
		t.Error("m.RemoveBlip(car) = true")
	}
	if m.Type(car) != Vehicle {
		t.Error("m.RemoveBlip(car) destroyed the car")
	}
	if !m.SetVehicleColours(car, 1, 2) {
		t.Error("m.SetVehicleColours(car) = false")
	}
	if e, _ := m.Entity(car); e.Colours != [2]int32{1, 2} {
		t.Errorf("car colours = %v; want [1 2]", e.Colours)
	}
	if m.PickupCollected(car) {
		t.Error("m.PickupCollected(car) = true")
	}
}

func TestMemoryClock(t *testing.T) {
	m := new(Memory)
	m.SetClock(25, -1)
	if h, minute := m.Clock(); h != 1 || minute != 59 {
		t.Errorf("m.Clock() = %d, %d; want 1, 59", h, minute)
	}
	m.Advance(1500 * time.Millisecond)
	if got := m.GameTime(); got != 1500*time.Millisecond {
		t.Errorf("m.GameTime() = %v; want 1.5s", got)
	}
}

func TestMemoryFade(t *testing.T) {
	m := new(Memory)
	m.FadeScreen(time.Second, false)
	if !m.Fading() {
		t.Error("m.Fading() = false right after FadeScreen")
	}
	m.Advance(999 * time.Millisecond)
	if !m.Fading() {
		t.Error("m.Fading() = false before fade ends")
	}
	m.Advance(time.Millisecond)
	if m.Fading() {
		t.Error("m.Fading() = true after fade ends")
	}
}

func TestMemoryClearArea(t *testing.T) {
	m := new(Memory)
	player := m.CreatePlayer(0, Vec3{})
	char, _ := m.PlayerCharacter(player)
	near := m.CreateCharacter(4, 30, Vec3{1, 0, 0})
	far := m.CreateCharacter(4, 30, Vec3{100, 0, 0})
	owned := m.CreateVehicle(90, Vec3{0, 1, 0})
	m.TrackMissionEntity(owned)
	obj := m.CreateObject(1000, Vec3{})

	m.ClearArea(Vec3{}, 10)
	for _, h := range []Handle{player, char, far, owned, obj} {
		if m.Type(h) == NoEntity {
			t.Errorf("m.ClearArea removed %d", h)
		}
	}
	if m.Type(near) != NoEntity {
		t.Errorf("m.ClearArea kept %d", near)
	}
}

func TestMemoryMissionCleanup(t *testing.T) {
	m := new(Memory)
	car := m.CreateVehicle(90, Vec3{})
	blip, ok := m.AddBlipForEntity(car)
	if !ok {
		t.Fatal("m.AddBlipForEntity(car) = false")
	}
	m.TrackMissionEntity(car)
	m.TrackMissionEntity(blip)
	m.TrackMissionEntity(77)

	m.MissionCleanup()
	if m.Type(blip) != NoEntity {
		t.Error("mission blip survived cleanup")
	}
	if m.Type(car) != Vehicle {
		t.Error("mission car was destroyed by cleanup")
	}
	if m.MissionOwned(car) {
		t.Error("car still mission-owned after cleanup")
	}
}

func TestMemoryPrints(t *testing.T) {
	var seen []string
	m := &Memory{OnPrint: func(t Text) { seen = append(seen, t.ID) }}
	m.PrintText(Text{ID: "INTRO", Kind: TextBig, Duration: time.Second})
	m.PrintText(Text{ID: "HELP1", Kind: TextNow})
	if diff := cmp.Diff([]string{"INTRO", "HELP1"}, seen); diff != "" {
		t.Errorf("OnPrint calls (-want +got):\n%s", diff)
	}
	if got := len(m.Prints()); got != 2 {
		t.Errorf("len(m.Prints()) = %d; want 2", got)
	}
	m.ClearPrints()
	if got := len(m.Prints()); got != 0 {
		t.Errorf("len(m.Prints()) after clear = %d; want 0", got)
	}
}

func TestMemoryScore(t *testing.T) {
	m := new(Memory)
	player := m.CreatePlayer(0, Vec3{})
	m.AddScore(player, 100)
	m.AddScore(player, -30)
	if got, ok := m.Score(player); !ok || got != 70 {
		t.Errorf("m.Score(player) = %d, %t; want 70, true", got, ok)
	}
	if m.SetWantedLevel(player, 7) {
		t.Error("m.SetWantedLevel(player, 7) = true")
	}
	if !m.SetWantedLevel(player, 2) {
		t.Error("m.SetWantedLevel(player, 2) = false")
	}
}
