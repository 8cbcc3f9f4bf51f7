// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package opcodes

import (
	"context"
	"time"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/world"
	"zombiezen.com/go/log"
)

func bindEntities(b *script.Bindings) {
	b.Bind(0x0053, createPlayer, scm.KindModel, scm.KindVec3, scm.KindHandle)
	b.Bind(0x0054, getCoordinates(world.Player), scm.KindHandle, scm.KindFloat, scm.KindFloat, scm.KindFloat)
	b.Bind(0x0055, setCoordinates(world.Player), scm.KindHandle, scm.KindVec3)
	b.Bind(0x0056, isPlayerInArea2D, scm.KindHandle, scm.KindVec2, scm.KindVec2, scm.KindInt)
	b.Bind(0x0256, isPlayerPlaying, scm.KindHandle)
	b.Bind(0x01F5, getPlayerChar, scm.KindHandle, scm.KindHandle)
	b.Bind(0x0109, addScore, scm.KindHandle, scm.KindInt)
	b.Bind(0x010A, isScoreGreater, scm.KindHandle, scm.KindInt)
	b.Bind(0x010D, setWantedLevel, scm.KindHandle, scm.KindInt)
	b.Bind(0x0110, clearWantedLevel, scm.KindHandle)

	b.Bind(0x009A, createChar, scm.KindInt, scm.KindModel, scm.KindVec3, scm.KindHandle)
	b.Bind(0x009B, destroy(world.Character), scm.KindHandle)
	b.Bind(0x00A0, getCoordinates(world.Character), scm.KindHandle, scm.KindFloat, scm.KindFloat, scm.KindFloat)
	b.Bind(0x00A1, setCoordinates(world.Character), scm.KindHandle, scm.KindVec3)
	b.Bind(0x0118, isDead(world.Character), scm.KindHandle)

	b.Bind(0x00A5, createCar, scm.KindModel, scm.KindVec3, scm.KindHandle)
	b.Bind(0x00A6, destroy(world.Vehicle), scm.KindHandle)
	b.Bind(0x00AA, getCoordinates(world.Vehicle), scm.KindHandle, scm.KindFloat, scm.KindFloat, scm.KindFloat)
	b.Bind(0x00AB, setCoordinates(world.Vehicle), scm.KindHandle, scm.KindVec3)
	b.Bind(0x0119, isDead(world.Vehicle), scm.KindHandle)
	b.Bind(0x0229, changeCarColour, scm.KindHandle, scm.KindInt, scm.KindInt)

	b.Bind(0x0107, createObject, scm.KindModel, scm.KindVec3, scm.KindHandle)
	b.Bind(0x0108, destroy(world.Object), scm.KindHandle)

	b.Bind(0x0213, createPickup, scm.KindModel, scm.KindInt, scm.KindVec3, scm.KindHandle)
	b.Bind(0x0214, hasPickupBeenCollected, scm.KindHandle)
	b.Bind(0x0215, destroy(world.Pickup), scm.KindHandle)

	b.Bind(0x014B, createCarGenerator,
		scm.KindVec3, scm.KindFloat, scm.KindModel,
		scm.KindInt, scm.KindInt, scm.KindInt, scm.KindInt, scm.KindInt, scm.KindInt, scm.KindInt,
		scm.KindHandle)
	b.Bind(0x014C, switchCarGenerator, scm.KindHandle, scm.KindInt)

	for op, typ := range map[scm.Opcode]world.EntityType{
		0x0170: world.Player,
		0x0172: world.Character,
		0x0174: world.Vehicle,
		0x0176: world.Object,
	} {
		b.Bind(op, getHeading(typ), scm.KindHandle, scm.KindFloat)
		b.Bind(op+1, setHeading(typ), scm.KindHandle, scm.KindFloat)
	}

	b.Bind(0x0164, removeBlip, scm.KindHandle)
	b.Bind(0x0186, addBlipForEntity(world.Vehicle), scm.KindHandle, scm.KindHandle)
	b.Bind(0x0187, addBlipForEntity(world.Character), scm.KindHandle, scm.KindHandle)
	b.Bind(0x018A, addBlipForCoord, scm.KindVec3, scm.KindHandle)

	b.Bind(0x0395, clearArea, scm.KindVec3, scm.KindFloat, scm.KindInt)
}

func createPlayer(ctx context.Context, c *script.Call) bool {
	h := c.World().CreatePlayer(c.Int(0), c.Vec3(1))
	c.SetHandle(2, h)
	log.Debugf(ctx, "Thread %d (%s) created player %d", c.ThreadID(), c.ThreadName(), h)
	return false
}

func createChar(ctx context.Context, c *script.Call) bool {
	created(c, 3, c.World().CreateCharacter(c.Int(0), c.Int(1), c.Vec3(2)))
	return false
}

func createCar(ctx context.Context, c *script.Call) bool {
	created(c, 2, c.World().CreateVehicle(c.Int(0), c.Vec3(1)))
	return false
}

func createObject(ctx context.Context, c *script.Call) bool {
	created(c, 2, c.World().CreateObject(c.Int(0), c.Vec3(1)))
	return false
}

func createPickup(ctx context.Context, c *script.Call) bool {
	created(c, 3, c.World().CreatePickup(c.Int(0), c.Int(1), c.Vec3(2)))
	return false
}

func destroy(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		if !ok {
			log.Debugf(ctx, "Thread %d (%s): %v %d does not exist", c.ThreadID(), c.ThreadName(), typ, h)
			return false
		}
		return c.World().Destroy(h)
	}
}

func getCoordinates(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		if !ok {
			return false
		}
		pos, ok := c.World().Position(h)
		if !ok {
			return false
		}
		c.SetFloat(1, pos.X)
		c.SetFloat(2, pos.Y)
		c.SetFloat(3, pos.Z)
		return true
	}
}

func setCoordinates(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		if !ok {
			return false
		}
		return c.World().SetPosition(h, c.Vec3(1))
	}
}

func getHeading(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		if !ok {
			return false
		}
		heading, ok := c.World().Heading(h)
		if !ok {
			return false
		}
		c.SetFloat(1, heading)
		return true
	}
}

func setHeading(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		if !ok {
			return false
		}
		return c.World().SetHeading(h, c.Float(1))
	}
}

// isDead reports whether an entity is dead, wrecked, or gone.
func isDead(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		h, ok := entity(c, 0, typ)
		return !ok || !c.World().Alive(h)
	}
}

func isPlayerPlaying(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	return ok && c.World().Alive(h)
}

func isPlayerInArea2D(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	if !ok {
		return false
	}
	pos, ok := c.World().Position(h)
	if !ok {
		return false
	}
	// Parameter 3 asks for a debug marker, which is not drawn.
	return inArea(pos.XY(), c.Vec2(1), c.Vec2(2))
}

// inArea reports whether p is inside the rectangle with corners a and b.
func inArea(p, a, b world.Vec2) bool {
	return p.X >= min(a.X, b.X) && p.X <= max(a.X, b.X) &&
		p.Y >= min(a.Y, b.Y) && p.Y <= max(a.Y, b.Y)
}

func getPlayerChar(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	if !ok {
		return false
	}
	char, ok := c.World().PlayerCharacter(h)
	if !ok {
		return false
	}
	c.SetHandle(1, char)
	return true
}

func addScore(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	return ok && c.World().AddScore(h, c.Int(1))
}

func isScoreGreater(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	if !ok {
		return false
	}
	score, ok := c.World().Score(h)
	return ok && score > c.Int(1)
}

func setWantedLevel(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	return ok && c.World().SetWantedLevel(h, c.Int(1))
}

func clearWantedLevel(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	return ok && c.World().SetWantedLevel(h, 0)
}

func changeCarColour(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Vehicle)
	return ok && c.World().SetVehicleColours(h, c.Int(1), c.Int(2))
}

func hasPickupBeenCollected(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Pickup)
	return ok && c.World().PickupCollected(h)
}

func createCarGenerator(ctx context.Context, c *script.Call) bool {
	h := c.World().CreateCarGenerator(world.CarGeneratorParams{
		Position:        c.Vec3(0),
		Heading:         c.Float(1),
		Model:           c.Int(2),
		PrimaryColour:   c.Int(3),
		SecondaryColour: c.Int(4),
		ForceSpawn:      c.Bool(5),
		Alarm:           c.Int(6),
		DoorLock:        c.Int(7),
		MinDelay:        time.Duration(c.Int(8)) * time.Millisecond,
		MaxDelay:        time.Duration(c.Int(9)) * time.Millisecond,
	})
	// Generators outlive missions.
	c.SetHandle(10, h)
	return false
}

func switchCarGenerator(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.CarGenerator)
	return ok && c.World().SetCarGeneratorCount(h, c.Int(1))
}

func addBlipForEntity(typ world.EntityType) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		target, ok := entity(c, 0, typ)
		if !ok {
			return false
		}
		blip, ok := c.World().AddBlipForEntity(target)
		if !ok {
			return false
		}
		created(c, 1, blip)
		return true
	}
}

func addBlipForCoord(ctx context.Context, c *script.Call) bool {
	created(c, 1, c.World().AddBlipForCoord(c.Vec3(0)))
	return false
}

func removeBlip(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Blip)
	return ok && c.World().RemoveBlip(h)
}

func clearArea(ctx context.Context, c *script.Call) bool {
	// Parameter 2 also clears particle effects, which the world does not model.
	c.World().ClearArea(c.Vec3(0), c.Float(1))
	return false
}
