package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/onestep/internal/app/timer"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestRearmLeavesOnePendingTimer(t *testing.T) {
	clock := timer.NewFakeClock(epoch)
	slot := timer.NewSlot(clock)

	var fires int
	slot.Arm(10*time.Minute, func() { fires++ })
	slot.Arm(10*time.Minute, func() { fires++ })

	assert.Equal(t, 1, clock.Pending())
	clock.Advance(10 * time.Minute)

	assert.Equal(t, 1, fires)
	assert.False(t, slot.Armed())
}

func TestRearmPushesDeadline(t *testing.T) {
	clock := timer.NewFakeClock(epoch)
	slot := timer.NewSlot(clock)

	var fires int
	slot.Arm(10*time.Minute, func() { fires++ })
	clock.Advance(6 * time.Minute)
	slot.Arm(10*time.Minute, func() { fires++ })
	clock.Advance(6 * time.Minute)
	assert.Equal(t, 0, fires, "first deadline was replaced")

	clock.Advance(4 * time.Minute)
	assert.Equal(t, 1, fires)
}

func TestCancelIsIdempotent(t *testing.T) {
	clock := timer.NewFakeClock(epoch)
	slot := timer.NewSlot(clock)

	slot.Cancel()
	slot.Arm(time.Second, func() { t.Fatal("cancelled timer fired") })
	slot.Cancel()
	slot.Cancel()

	clock.Advance(time.Minute)
	assert.False(t, slot.Armed())
	assert.True(t, slot.DueAt().IsZero())
}

func TestCallbackMayRearm(t *testing.T) {
	clock := timer.NewFakeClock(epoch)
	slot := timer.NewSlot(clock)

	var fires int
	var tick func()
	tick = func() {
		fires++
		require.False(t, slot.Armed(), "slot must be clear inside the callback")
		if fires < 3 {
			slot.Arm(time.Second, tick)
		}
	}
	slot.Arm(time.Second, tick)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 3, fires)
}

func TestShutdownRefusesArm(t *testing.T) {
	clock := timer.NewFakeClock(epoch)
	slot := timer.NewSlot(clock)

	slot.Arm(time.Second, func() { t.Fatal("fired after shutdown") })
	slot.Shutdown()

	assert.False(t, slot.Arm(time.Second, func() { t.Fatal("fired after shutdown") }))
	clock.Advance(time.Minute)
}

func TestRealClockNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	slot := timer.NewSlot(timer.Real())
	var fired atomic.Int32
	done := make(chan struct{})

	slot.Arm(5*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	slot.Arm(time.Hour, func() { fired.Add(1) })
	slot.Shutdown()

	assert.Equal(t, int32(1), fired.Load())
}
