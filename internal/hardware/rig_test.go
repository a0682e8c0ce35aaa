package hardware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testclock "k8s.io/utils/clock/testing"

	"github.com/hammamikhairi/ottobar/internal/logger"
)

func newTestRig(opts ...Option) (*Rig, *testclock.FakeClock) {
	clk := testclock.NewFakeClock(time.Unix(0, 0))
	return NewRig(clk, logger.Nop(), opts...), clk
}

func TestRigPoursWhilePumpIsOn(t *testing.T) {
	r, clk := newTestRig(WithFlowRate(20))
	r.PlaceCup(30)
	assert.Equal(t, 30.0, r.ReadWeight(10))

	r.SetActuator(1, true)
	clk.Step(500 * time.Millisecond)
	assert.InDelta(t, 40, r.ReadWeight(5), 1e-9)

	r.SetActuator(1, false)
	clk.Step(time.Second)
	assert.InDelta(t, 40, r.ReadWeight(5), 1e-9, "nothing flows once the pump is off")
}

func TestRigJammedPumpMovesNothing(t *testing.T) {
	r, clk := newTestRig()
	r.PlaceCup(30)
	r.Jam(0, true)
	r.SetActuator(0, true)
	clk.Step(3 * time.Second)
	assert.Equal(t, 30.0, r.ReadWeight(5))
	assert.True(t, r.Pumping()[0])
}

func TestRigWithoutCupWeighsNothing(t *testing.T) {
	r, clk := newTestRig()
	r.SetActuator(2, true)
	clk.Step(time.Second)
	assert.Zero(t, r.ReadWeight(5))
	assert.False(t, r.HasCup())

	r.PlaceCup(25)
	r.RemoveCup()
	assert.Zero(t, r.ReadWeight(5))
}

func TestRigNoiseStaysBounded(t *testing.T) {
	r, _ := newTestRig(WithNoise(2, 42))
	r.PlaceCup(30)
	for i := 0; i < 100; i++ {
		assert.InDelta(t, 30, r.ReadWeight(1), 2)
	}
}

func TestRigOffline(t *testing.T) {
	r, _ := newTestRig()
	assert.True(t, r.Ready())
	r.SetOffline(true)
	assert.False(t, r.Ready())
}

func TestRigStatus(t *testing.T) {
	r, clk := newTestRig(WithFlowRate(10), WithNoise(5, 1))
	r.PlaceCup(30)
	r.Jam(3, true)
	r.SetActuator(0, true)
	clk.Step(2 * time.Second)

	s := r.Status()
	assert.True(t, s.Cup)
	assert.InDelta(t, 20, s.Liquid, 1e-9)
	assert.Equal(t, [4]bool{true, false, false, false}, s.Pumping)
	assert.Equal(t, [4]bool{false, false, false, true}, s.Jammed)
	assert.False(t, s.Offline)
}
