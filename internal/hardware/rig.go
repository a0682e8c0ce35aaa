// Package hardware provides a simulated dispenser: a scale and a pump
// bank sharing one physical model. Liquid flows while a pump is on, as
// measured by the injected clock, so a fake clock drives it
// deterministically.
package hardware

import (
	"math/rand/v2"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.WeightSensor = (*Rig)(nil)
	_ domain.ActuatorBank = (*Rig)(nil)
)

// DefaultFlowRate is the simulated pump throughput in ml per second.
const DefaultFlowRate = 25.0

// Option configures the rig.
type Option func(*Rig)

// WithFlowRate sets the throughput of every pump in ml per second.
func WithFlowRate(mlPerSecond float64) Option {
	return func(r *Rig) {
		for i := range r.flow {
			r.flow[i] = mlPerSecond
		}
	}
}

// WithNoise adds uniform jitter of up to ±amplitude grams to every
// reading. Zero disables it.
func WithNoise(amplitude float64, seed uint64) Option {
	return func(r *Rig) {
		r.noise = amplitude
		r.rand = rand.New(rand.NewPCG(seed, seed))
	}
}

// Rig simulates the scale and the pumps. Safe for concurrent use, since
// the display goroutine places and removes cups.
type Rig struct {
	clock clock.PassiveClock
	log   *logger.Logger

	mu      sync.Mutex
	flow    [domain.IngredientCount]float64
	on      [domain.IngredientCount]bool
	jammed  [domain.IngredientCount]bool
	cup     float64 // 0 when no cup is on the scale
	liquid  float64
	settled time.Time
	offline bool
	noise   float64
	rand    *rand.Rand
}

// NewRig creates a rig with an empty scale and all pumps off.
func NewRig(clk clock.PassiveClock, log *logger.Logger, opts ...Option) *Rig {
	r := &Rig{clock: clk, log: log, settled: clk.Now()}
	for i := range r.flow {
		r.flow[i] = DefaultFlowRate
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadWeight returns the scale reading in grams. Liquids weigh 1 g/ml.
func (r *Rig) ReadWeight(samples int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	w := r.cup + r.liquid
	if r.noise > 0 && samples > 0 {
		// Averaging shrinks the jitter.
		w += (r.rand.Float64()*2 - 1) * r.noise / float64(samples)
	}
	return w
}

// Ready reports whether the scale is answering.
func (r *Rig) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.offline
}

// SetActuator switches a pump.
func (r *Rig) SetActuator(i int, on bool) {
	if i < 0 || i >= domain.IngredientCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	r.on[i] = on
}

// PlaceCup puts an empty cup of the given weight on the scale.
func (r *Rig) PlaceCup(grams float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	r.cup = grams
	r.liquid = 0
	r.log.Info("cup placed (%.0f g)", grams)
}

// RemoveCup takes the cup and its contents away.
func (r *Rig) RemoveCup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	if r.cup > 0 {
		r.log.Info("cup removed with %.0f ml", r.liquid)
	}
	r.cup = 0
	r.liquid = 0
}

// HasCup reports whether a cup is on the scale.
func (r *Rig) HasCup() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cup > 0
}

// Jam blocks or frees a pump line. A jammed pump runs but moves nothing.
func (r *Rig) Jam(i int, jammed bool) {
	if i < 0 || i >= domain.IngredientCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	r.jammed[i] = jammed
	r.log.Info("pump %d jammed=%t", i, jammed)
}

// SetOffline simulates a disconnected scale.
func (r *Rig) SetOffline(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = offline
}

// Pumping reports which pumps are on.
func (r *Rig) Pumping() [domain.IngredientCount]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Status is a snapshot of the rig for the operator panel.
type Status struct {
	Cup     bool
	Liquid  float64
	Pumping [domain.IngredientCount]bool
	Jammed  [domain.IngredientCount]bool
	Offline bool
}

// Status returns the current state without sensor noise.
func (r *Rig) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle()
	return Status{
		Cup:     r.cup > 0,
		Liquid:  r.liquid,
		Pumping: r.on,
		Jammed:  r.jammed,
		Offline: r.offline,
	}
}

// settle accounts for the liquid that flowed since the last call. Without
// a cup it runs into the drip tray and is not weighed. Caller holds mu.
func (r *Rig) settle() {
	now := r.clock.Now()
	elapsed := now.Sub(r.settled).Seconds()
	r.settled = now
	if elapsed <= 0 || r.cup == 0 {
		return
	}
	for i, on := range r.on {
		if on && !r.jammed[i] {
			r.liquid += r.flow[i] * elapsed
		}
	}
}
