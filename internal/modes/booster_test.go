package modes

import (
	"math"
	"testing"
)

func TestApplyBooster_DormantBelowThreshold(t *testing.T) {
	// Dormant across N ticks: step frozen, output untouched.
	step := 3
	for tick := 0; tick < 10; tick++ {
		res := ApplyBooster(BoosterThreshold-0.01, 50, 30, step)

		if res.Applied {
			t.Fatalf("tick %d: booster applied below threshold", tick)
		}
		if res.Speed != 50 || res.Amplitude != 30 {
			t.Fatalf("tick %d: dormant booster changed output: %+v", tick, res)
		}
		if res.Step != step {
			t.Fatalf("tick %d: dormant booster moved step %d -> %d", tick, step, res.Step)
		}
		step = res.Step
	}
}

func TestApplyBooster_AdvancesOneStepPerTick(t *testing.T) {
	step := 0
	for tick := 0; tick < 20; tick++ {
		res := ApplyBooster(0.9, 50, 30, step)

		if !res.Applied {
			t.Fatalf("tick %d: booster not applied above threshold", tick)
		}
		if res.Step != step+1 {
			t.Fatalf("tick %d: step advanced %d -> %d, want +1", tick, step, res.Step)
		}
		step = res.Step
	}
}

func TestApplyBooster_FollowsPatternTable(t *testing.T) {
	speed, amplitude := 50.0, 30.0

	step := 0
	for tick := 0; tick < 2*len(boosterPattern); tick++ {
		res := ApplyBooster(1.0, speed, amplitude, step)

		phase := boosterPattern[res.Step%len(boosterPattern)]
		wantSpeed := speed * phase.SpeedMul
		wantAmp := amplitude + phase.AmpOffset

		if math.Abs(res.Speed-wantSpeed) > 1e-9 {
			t.Errorf("step %d: Speed = %v, want %v", res.Step, res.Speed, wantSpeed)
		}
		if math.Abs(res.Amplitude-wantAmp) > 1e-9 {
			t.Errorf("step %d: Amplitude = %v, want %v", res.Step, res.Amplitude, wantAmp)
		}
		step = res.Step
	}
}

func TestApplyBooster_ResumesAfterDormancy(t *testing.T) {
	// Active, then dormant for a while, then active again: the pattern
	// continues from the stored step instead of restarting.
	res := ApplyBooster(0.9, 50, 30, 4)
	if res.Step != 5 {
		t.Fatalf("first activation: step = %d, want 5", res.Step)
	}

	for i := 0; i < 3; i++ {
		res = ApplyBooster(0.1, 50, 30, res.Step)
	}
	if res.Step != 5 {
		t.Fatalf("after dormancy: step = %d, want 5", res.Step)
	}

	res = ApplyBooster(0.9, 50, 30, res.Step)
	if res.Step != 6 {
		t.Errorf("reactivation: step = %d, want 6", res.Step)
	}
}

func TestApplyBooster_ThresholdBoundary(t *testing.T) {
	// Exactly at threshold counts as active.
	res := ApplyBooster(BoosterThreshold, 50, 30, 0)
	if !res.Applied {
		t.Error("intensity at threshold should activate the booster")
	}
}
