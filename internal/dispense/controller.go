// Package dispense drives the pumps against live scale readings.
//
// Every wait here is a bounded poll loop: one sensor sample, one cancel
// check, one sleep. Cancellation therefore takes effect within one poll
// interval, and a stalled pour is detected by counting samples that show
// no progress, not by a deadline.
package dispense

import (
	"context"
	"math"
	"time"

	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Config holds the loop tuning. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// PresenceThreshold is the weight gain over the baseline (g) that
	// counts as a cup on the scale.
	PresenceThreshold float64
	// PresenceSamples is how many consecutive qualifying samples declare
	// a cup present.
	PresenceSamples int
	// BaseSamples and LoopSamples are the sensor averaging windows for the
	// baseline and for loop readings.
	BaseSamples int
	LoopSamples int
	// StallLimit is how many consecutive non-progressing samples end a
	// pour as a timeout.
	StallLimit int
	// NoiseThreshold is the smallest reading change (g) counted as
	// progress.
	NoiseThreshold float64
	PollInterval   time.Duration
}

// DefaultConfig returns the tuning of the reference hardware.
func DefaultConfig() Config {
	return Config{
		PresenceThreshold: 1.2,
		PresenceSamples:   10,
		BaseSamples:       10,
		LoopSamples:       5,
		StallLimit:        45,
		NoiseThreshold:    1.5,
		PollInterval:      100 * time.Millisecond,
	}
}

// Ledger is debited with what actually left each bottle.
type Ledger interface {
	Debit(ingredient int, amount float64) error
}

// CancelFunc is polled once per loop iteration and reports whether the
// operator asked to abort.
type CancelFunc func() bool

// CupStatus is the result of a cup wait.
type CupStatus int

const (
	CupDetected CupStatus = iota
	CupCancelled
)

// String returns a human-readable status.
func (s CupStatus) String() string {
	if s == CupDetected {
		return "detected"
	}
	return "cancelled"
}

// PourResult is the outcome of a single ingredient pour.
type PourResult struct {
	Outcome domain.Outcome
	Delta   float64 // measured weight gain, never negative
	Samples int
}

// Result is the outcome of a whole order.
type Result struct {
	Outcome domain.Outcome
	Poured  [domain.IngredientCount]float64
	// Failed is the ingredient that ended the order early, or -1.
	Failed int
}

// Option configures the controller.
type Option func(*Controller)

// WithConfig replaces the loop tuning.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithClock injects the clock used for sleeping. Tests pass a fake clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// Controller executes orders on the hardware.
type Controller struct {
	sensor domain.WeightSensor
	pumps  domain.ActuatorBank
	ledger Ledger
	clock  clock.Clock
	cfg    Config
	log    *logger.Logger
}

// NewController creates a controller.
func NewController(sensor domain.WeightSensor, pumps domain.ActuatorBank, ledger Ledger, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		sensor: sensor,
		pumps:  pumps,
		ledger: ledger,
		clock:  clock.RealClock{},
		cfg:    DefaultConfig(),
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the active loop tuning.
func (c *Controller) Config() Config { return c.cfg }

// WaitForCup blocks until a cup has weighed on the scale for
// PresenceSamples consecutive samples, or the wait is cancelled. A done
// context counts as a cancel.
func (c *Controller) WaitForCup(ctx context.Context, cancelled CancelFunc) CupStatus {
	baseline := c.sensor.ReadWeight(c.cfg.BaseSamples)
	c.log.Debug("waiting for cup, baseline %.2f g", baseline)

	streak := 0
	for sample := 1; ; sample++ {
		if c.sensor.Ready() && c.sensor.ReadWeight(c.cfg.LoopSamples)-baseline >= c.cfg.PresenceThreshold {
			streak++
		} else {
			streak = 0
		}
		if streak >= c.cfg.PresenceSamples {
			c.log.Info("cup detected after %d samples", sample)
			return CupDetected
		}
		if ctx.Err() != nil || cancelled() {
			c.log.Info("cup wait cancelled at sample %d (streak %d)", sample, streak)
			return CupCancelled
		}
		c.clock.Sleep(c.cfg.PollInterval)
	}
}

// PourIngredient runs the closed loop for one ingredient until the scale
// has gained target grams, the operator cancels, or the reading stops
// moving for StallLimit samples. The measured gain is debited in every
// case.
func (c *Controller) PourIngredient(ctx context.Context, ingredient int, target float64, cancelled CancelFunc) PourResult {
	base := c.sensor.ReadWeight(c.cfg.BaseSamples)
	previous := base
	current := base
	stalled := 0

	c.pumps.SetActuator(ingredient, true)
	c.log.Debug("pump %d on, base %.2f g, target %.2f g", ingredient, base, target)

	var res PourResult
	for {
		res.Samples++
		if c.sensor.Ready() {
			current = c.sensor.ReadWeight(c.cfg.LoopSamples)
		}
		res.Delta = math.Max(0, current-base)

		if current-base >= target {
			res.Outcome = domain.OutcomeCompleted
			break
		}
		if ctx.Err() != nil || cancelled() {
			res.Outcome = domain.OutcomeCancelled
			break
		}
		if math.Abs(current-previous) < c.cfg.NoiseThreshold {
			stalled++
		} else {
			stalled = 0
		}
		previous = current
		if stalled >= c.cfg.StallLimit {
			res.Outcome = domain.OutcomeTimeout
			break
		}
		c.clock.Sleep(c.cfg.PollInterval)
	}

	c.pumps.SetActuator(ingredient, false)
	if err := c.ledger.Debit(ingredient, res.Delta); err != nil {
		c.log.Error("debiting ingredient %d: %v", ingredient, err)
	}
	c.log.Info("pump %d off: %s after %d samples, %.1f/%.1f g", ingredient, res.Outcome, res.Samples, res.Delta, target)
	return res
}

// Pour dispenses the candidate ingredient by ingredient in pump order.
// Unused ingredients are skipped without touching their pump. The first
// cancelled or timed out ingredient ends the order; nothing already
// poured is taken back.
func (c *Controller) Pour(ctx context.Context, candidate domain.Candidate, cancelled CancelFunc) Result {
	res := Result{Outcome: domain.OutcomeCompleted, Failed: -1}
	for i := 0; i < domain.IngredientCount; i++ {
		target := candidate.Target(i)
		if target <= 0 {
			continue
		}
		pr := c.PourIngredient(ctx, i, target, cancelled)
		res.Poured[i] = pr.Delta
		if pr.Outcome != domain.OutcomeCompleted {
			res.Outcome = pr.Outcome
			res.Failed = i
			return res
		}
	}
	return res
}

// Clean runs every pump for d to flush the lines, or until cancelled.
// Nothing is debited: the lines are expected to hold water.
func (c *Controller) Clean(ctx context.Context, d time.Duration, cancelled CancelFunc) domain.Outcome {
	for i := 0; i < domain.IngredientCount; i++ {
		c.pumps.SetActuator(i, true)
	}
	defer func() {
		for i := 0; i < domain.IngredientCount; i++ {
			c.pumps.SetActuator(i, false)
		}
	}()

	c.log.Info("cleaning for %s", d)
	start := c.clock.Now()
	for c.clock.Since(start) < d {
		if ctx.Err() != nil || cancelled() {
			c.log.Info("cleaning cancelled after %s", c.clock.Since(start))
			return domain.OutcomeCancelled
		}
		c.clock.Sleep(c.cfg.PollInterval)
	}
	return domain.OutcomeCompleted
}
