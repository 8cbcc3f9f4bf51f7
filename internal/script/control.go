// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

package script

import (
	"context"
	"fmt"

	"github.com/rwengine/openrw/internal/scm"
	"zombiezen.com/go/log"
)

// Control-flow instructions.
const (
	opWait                  scm.Opcode = 0x0001
	opGoto                  scm.Opcode = 0x0002
	opGotoIfTrue            scm.Opcode = 0x004C
	opGotoIfFalse           scm.Opcode = 0x004D
	opTerminate             scm.Opcode = 0x004E
	opStartNewScript        scm.Opcode = 0x004F
	opGosub                 scm.Opcode = 0x0050
	opReturn                scm.Opcode = 0x0051
	opAndOr                 scm.Opcode = 0x00D6
	opLaunchMission         scm.Opcode = 0x00D7
	opMissionHasFinished    scm.Opcode = 0x00D8
	opSetDeathArrestState   scm.Opcode = 0x0111
	opHasDeathArrestBeenHit scm.Opcode = 0x0112
	opSetOnMissionFlag      scm.Opcode = 0x0180
	opSkippableWait         scm.Opcode = 0x02A1
	opGosubFile             scm.Opcode = 0x02CD
	opScriptName            scm.Opcode = 0x03A4
	opStartMission          scm.Opcode = 0x0417
	opSetTotalMissions      scm.Opcode = 0x042C
)

func bindIntrinsics(b *Bindings) {
	b.bindIntrinsic(opWait, wait, scm.KindInt)
	b.bindIntrinsic(opGoto, jump, scm.KindLabel)
	b.bindIntrinsic(opGotoIfTrue, jumpIfTrue, scm.KindLabel)
	b.bindIntrinsic(opGotoIfFalse, jumpIfFalse, scm.KindLabel)
	b.bindIntrinsic(opTerminate, terminate)
	b.bindIntrinsic(opStartNewScript, startNewScript, scm.KindLabel)
	b.bindIntrinsic(opGosub, gosub, scm.KindLabel)
	b.bindIntrinsic(opReturn, ret)
	b.bindIntrinsic(opAndOr, andOr, scm.KindInt)
	b.bindIntrinsic(opLaunchMission, launchMission, scm.KindLabel)
	b.bindIntrinsic(opMissionHasFinished, missionHasFinished)
	b.bindIntrinsic(opSetDeathArrestState, setDeathArrestState, scm.KindInt)
	b.bindIntrinsic(opHasDeathArrestBeenHit, hasDeathArrestBeenExecuted)
	b.bindIntrinsic(opSetOnMissionFlag, setOnMissionFlag, scm.KindInt)
	b.bindIntrinsic(opSkippableWait, skippableWait, scm.KindInt)
	b.bindIntrinsic(opGosubFile, gosubFile, scm.KindLabel, scm.KindLabel)
	b.bindIntrinsic(opScriptName, scriptName, scm.KindText)
	b.bindIntrinsic(opStartMission, startMission, scm.KindInt)
	b.bindIntrinsic(opSetTotalMissions, setTotalMissions, scm.KindInt)
}

func wait(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	t.sleep(c.Int(0), false)
	return false, nil
}

func skippableWait(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	t.sleep(c.Int(0), true)
	return false, nil
}

func jump(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	return false, m.jump(t, c.Label(0))
}

func jumpIfTrue(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	if !t.cond.result {
		return false, nil
	}
	return false, m.jump(t, c.Label(0))
}

func jumpIfFalse(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	if t.cond.result {
		return false, nil
	}
	return false, m.jump(t, c.Label(0))
}

func terminate(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	log.Debugf(ctx, "Thread %d (%s) terminated itself", t.id, t.name)
	t.kill(nil)
	return false, nil
}

func startNewScript(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	entry := c.Label(0)
	if !t.region.Contains(entry) {
		return false, fmt.Errorf("start thread at %#06x: outside of %v", entry, t.region)
	}
	child := m.spawn(t.region, t.base, entry, false)
	for i, v := range c.Extra() {
		if err := child.locals.write(i, v, false); err != nil {
			child.kill(nil)
			return false, fmt.Errorf("start thread at %#06x: argument %d: %w", entry, i+1, err)
		}
	}
	log.Debugf(ctx, "Thread %d (%s) started thread %d at %#06x", t.id, t.name, child.id, entry)
	return false, nil
}

func gosub(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	return false, m.call(t, c.Label(0), false)
}

func gosubFile(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	return false, m.call(t, uint32(c.scalar(0).Int()), true)
}

func ret(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	if len(t.stack) == 0 {
		return false, ErrCallStackUnderflow
	}
	t.pc = t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return false, nil
}

func andOr(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	switch n := c.Int(0); {
	case n == 0:
		t.cond.begin(1, false)
	case n >= 1 && n <= 7:
		t.cond.begin(int(n)+1, false)
	case n >= 21 && n <= 27:
		t.cond.begin(int(n)-19, true)
	default:
		return false, fmt.Errorf("invalid condition group %d", n)
	}
	return false, nil
}

func launchMission(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	entry := c.Label(0)
	region, ok := m.file.RegionOf(entry)
	if !ok {
		return false, fmt.Errorf("launch mission at %#06x: address outside of any script", entry)
	}
	child := m.spawn(region, region.Start, entry, true)
	log.Debugf(ctx, "Thread %d (%s) launched mission thread %d at %#06x", t.id, t.name, child.id, entry)
	return false, nil
}

func startMission(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	n := c.Int(0)
	id, err := m.LaunchMission(int(n))
	if err != nil {
		return false, err
	}
	log.Infof(ctx, "Started mission %d as thread %d", n, id)
	return false, nil
}

func missionHasFinished(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	m.world.MissionCleanup()
	if m.onMission >= 0 {
		if err := m.vars.SetGlobalInt(m.onMission, 0); err != nil {
			return false, err
		}
	}
	log.Debugf(ctx, "Thread %d (%s) finished its mission", t.id, t.name)
	return false, nil
}

func setOnMissionFlag(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	ref := c.args[0]
	if !ref.global {
		return false, fmt.Errorf("on-mission flag must be a global variable")
	}
	m.onMission = ref.index
	return false, nil
}

func setDeathArrestState(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	t.deathArrestCheck = c.Bool(0)
	return false, nil
}

func hasDeathArrestBeenExecuted(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	return t.wastedOrBusted, nil
}

func scriptName(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	t.name = c.Text(0)
	return false, nil
}

func setTotalMissions(ctx context.Context, m *Machine, t *Thread, c *Call) (bool, error) {
	m.world.SetTotalMissions(c.Int(0))
	return false, nil
}
