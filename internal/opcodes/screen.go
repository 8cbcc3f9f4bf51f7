// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package opcodes

import (
	"context"
	"time"

	"github.com/rwengine/openrw/internal/scm"
	"github.com/rwengine/openrw/internal/script"
	"github.com/rwengine/openrw/internal/world"
)

func bindScreen(b *script.Bindings) {
	b.Bind(0x00BA, printText(world.TextBig), scm.KindText, scm.KindInt, scm.KindInt)
	b.Bind(0x00BC, printText(world.TextNow), scm.KindText, scm.KindInt, scm.KindInt)
	b.Bind(0x00BD, printText(world.TextSoon), scm.KindText, scm.KindInt, scm.KindInt)
	b.Bind(0x00BE, clearPrints)
	b.Bind(0x0340, setTextColour, scm.KindRGBA)
	b.Bind(0x0346, setTextBackground, scm.KindRGBA)

	b.Bind(0x00BF, getTimeOfDay, scm.KindInt, scm.KindInt)
	b.Bind(0x00C0, setTimeOfDay, scm.KindInt, scm.KindInt)
	b.Bind(0x01BD, getGameTimer, scm.KindInt)
	b.Bind(0x00E1, isButtonPressed, scm.KindInt, scm.KindInt)
	b.Bind(0x01B4, setPlayerControl, scm.KindHandle, scm.KindInt)

	b.Bind(0x0159, pointCameraAtChar, scm.KindHandle, scm.KindInt, scm.KindInt)
	b.Bind(0x015A, restoreCamera)
	b.Bind(0x015F, setFixedCamera, scm.KindVec3, scm.KindVec3)
	b.Bind(0x0160, pointCameraAtPoint, scm.KindVec3, scm.KindInt)
	b.Bind(0x0169, setFadingColour, scm.KindRGB)
	b.Bind(0x016A, doFade, scm.KindInt, scm.KindInt)
	b.Bind(0x016B, getFadingStatus)
	b.Bind(0x01B6, forceWeather, scm.KindInt)
	b.Bind(0x02A3, switchWidescreen, scm.KindInt)
}

func printText(kind world.TextKind) script.Handler {
	return func(ctx context.Context, c *script.Call) bool {
		t := world.Text{
			ID:       c.Text(0),
			Kind:     kind,
			Duration: time.Duration(c.Int(1)) * time.Millisecond,
		}
		if kind == world.TextBig {
			t.Style = c.Int(2)
		}
		c.World().PrintText(t)
		return false
	}
}

func clearPrints(ctx context.Context, c *script.Call) bool {
	c.World().ClearPrints()
	return false
}

func setTextColour(ctx context.Context, c *script.Call) bool {
	c.World().SetTextColour(c.Colour(0))
	return false
}

func setTextBackground(ctx context.Context, c *script.Call) bool {
	c.World().SetTextBackground(c.Colour(0))
	return false
}

func getTimeOfDay(ctx context.Context, c *script.Call) bool {
	hour, minute := c.World().Clock()
	c.SetInt(0, int32(hour))
	c.SetInt(1, int32(minute))
	return false
}

func setTimeOfDay(ctx context.Context, c *script.Call) bool {
	c.World().SetClock(int(c.Int(0)), int(c.Int(1)))
	return false
}

func getGameTimer(ctx context.Context, c *script.Call) bool {
	c.SetInt(0, int32(c.World().GameTime().Milliseconds()))
	return false
}

func isButtonPressed(ctx context.Context, c *script.Call) bool {
	return c.World().ButtonPressed(int(c.Int(0)), int(c.Int(1)))
}

func setPlayerControl(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Player)
	return ok && c.World().SetPlayerControl(h, c.Bool(1))
}

func pointCameraAtChar(ctx context.Context, c *script.Call) bool {
	h, ok := entity(c, 0, world.Character)
	return ok && c.World().CameraFollow(h, int(c.Int(1)), int(c.Int(2)))
}

func restoreCamera(ctx context.Context, c *script.Call) bool {
	c.World().RestoreCamera()
	return false
}

func setFixedCamera(ctx context.Context, c *script.Call) bool {
	c.World().SetFixedCamera(c.Vec3(0), c.Vec3(1))
	return false
}

func pointCameraAtPoint(ctx context.Context, c *script.Call) bool {
	c.World().PointCamera(c.Vec3(0), int(c.Int(1)))
	return false
}

func setFadingColour(ctx context.Context, c *script.Call) bool {
	c.World().SetFadeColour(c.Colour(0))
	return false
}

// doFade fades the screen in if the direction is 1 and out otherwise.
func doFade(ctx context.Context, c *script.Call) bool {
	c.World().FadeScreen(time.Duration(c.Int(0))*time.Millisecond, c.Int(1) == 1)
	return false
}

func getFadingStatus(ctx context.Context, c *script.Call) bool {
	return c.World().Fading()
}

func forceWeather(ctx context.Context, c *script.Call) bool {
	c.World().SetWeather(int(c.Int(0)))
	return false
}

func switchWidescreen(ctx context.Context, c *script.Call) bool {
	c.World().SetWidescreen(c.Bool(0))
	return false
}
