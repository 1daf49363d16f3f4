// core.go - lifecycle orchestration: audio callback wiring, the compute
// thread, and the published read-mostly state the consumer polls
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// LifecycleState enumerates Core's states (spec.md 4.8): Idle, Starting,
// Running, Stopping.
type LifecycleState int32

const (
	StateIdle LifecycleState = iota
	StateStarting
	StateRunning
	StateStopping
)

// computeShutdownGrace bounds how long Stop waits for the compute thread
// to observe the cancellation before it gives up and reports a warning.
const computeShutdownGrace = 300 * time.Millisecond

// Core wires an AudioSource through the decimator and pitch estimator into
// the frequency locker, and publishes the result for a Consumer to poll.
// All dynamically-sized buffers (ring, estimator snapshots, FFT plan) are
// allocated once in New and live for Core's lifetime (invariant 5).
type Core struct {
	mu     sync.Mutex
	cfg    *Config
	source AudioSource

	ring      *temporalRing
	decimator *decimator
	estimator *pitchEstimator
	locker    *frequencyLocker
	messages  *messageQueue
	logger    *log.Logger

	state atomic.Int32

	running       atomic.Bool
	interrupted   atomic.Bool
	lastFrequency atomic.Uint64 // math.Float64bits(Hz)
	publishedSPL  atomic.Pointer[[]float64]

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New allocates the ring, decimator, estimator, locker and plan from cfg,
// and registers the decimator as the source's callback. It does not open
// or start the source; call Start for that.
func New(cfg *Config, source AudioSource, logger *log.Logger) (*Core, error) {
	if cfg.FFTSize <= 0 || cfg.TemporalBufferSize < cfg.FFTSize {
		return nil, &ErrResourceExhausted{Reason: "invalid buffer sizes in config"}
	}

	cfg.DeriveInternalBounds()

	c := &Core{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		messages: newMessageQueue(64, logger),
	}
	c.ring = newTemporalRing(cfg.TemporalBufferSize)

	maxCallback := cfg.FFTSize
	if cfg.TemporalBufferSize > maxCallback {
		maxCallback = cfg.TemporalBufferSize
	}
	c.decimator = newDecimator(c.ring, cfg.Oversampling, maxCallback)
	c.estimator = newPitchEstimator(c.ring, cfg)
	c.locker = newFrequencyLocker()

	source.SetCallback(c.decimator.processCallback)
	return c, nil
}

// Start opens and activates the audio source and, on success, spawns the
// compute thread and transitions Idle -> Starting -> Running. On failure
// it publishes an AudioOpenError and stays Idle.
func (c *Core) Start() error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return nil
	}

	realRate, _, err := c.source.Open(c.cfg.AudioDev[c.cfg.AudioSystem], int(c.cfg.SampleRateHW))
	if err != nil {
		c.messages.fail(err)
		c.state.Store(int32(StateIdle))
		return err
	}
	c.cfg.SampleRateHW = float64(realRate)

	if err := c.source.Start(); err != nil {
		openErr := &AudioOpenError{Device: c.cfg.AudioDev[c.cfg.AudioSystem], Reason: err.Error()}
		c.messages.fail(openErr)
		c.state.Store(int32(StateIdle))
		return openErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	c.group = group

	group.Go(func() error { return c.runComputeThread(gctx) })
	group.Go(func() error { return c.watchShutdown(gctx) })

	c.running.Store(true)
	c.interrupted.Store(false)
	c.state.Store(int32(StateRunning))
	return nil
}

// runComputeThread ticks at calculationRate, running the estimator and
// feeding its raw estimate through the locker (spec.md 4.6-4.7). It is the
// compute thread of spec.md 5: it takes the ring's mutex only for the
// estimator's snapshot step.
func (c *Core) runComputeThread(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / c.cfg.CalculationRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rawF := c.estimator.tick()
			published := c.locker.update(rawF, c.cfg.InternalMinFrequency)
			c.publish(published)
		}
	}
}

// watchShutdown observes the audio source's shutdown channel and marks the
// core interrupted, mapping spec.md's AudioRuntimeError handling.
func (c *Core) watchShutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-c.source.ShutdownEvents():
		if err != nil {
			c.messages.fail(err)
		}
		c.interrupted.Store(true)
		if c.cancel != nil {
			c.cancel()
		}
		return nil
	}
}

func (c *Core) publish(freqHz float64) {
	c.lastFrequency.Store(math.Float64bits(freqHz))
	spl := make([]float64, len(c.estimator.spl))
	copy(spl, c.estimator.spl)
	c.publishedSPL.Store(&spl)
}

// Stop cancels the compute thread, waits up to computeShutdownGrace for it
// to exit, then deactivates the audio source and zeroes the published
// state regardless of whether the grace period elapsed.
func (c *Core) Stop() error {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}

	c.running.Store(false)
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan error, 1)
	go func() { done <- c.group.Wait() }()

	select {
	case <-done:
	case <-time.After(computeShutdownGrace):
		c.messages.warn(&AudioRuntimeError{Reason: "compute thread did not exit within shutdown grace period"})
	}

	if err := c.source.Stop(); err != nil {
		c.messages.warn(err)
	}
	if err := c.source.Close(); err != nil {
		c.messages.warn(err)
	}

	c.lastFrequency.Store(0)
	zero := make([]float64, len(c.estimator.spl))
	c.publishedSPL.Store(&zero)
	c.state.Store(int32(StateIdle))
	return nil
}

// Destroy releases Core's buffers. After Destroy, Core must not be reused.
func (c *Core) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = nil
	c.estimator = nil
	c.decimator = nil
	c.locker = nil
}

// ChangeConfig swaps in a new configuration and re-derives its internal
// frequency bounds; the compute thread passes the new InternalMinFrequency
// to the locker as fMin from its next tick. The estimator and decimator
// are not rebuilt: they keep the FFT size, oversampling, frequency bounds
// and bin-index range they were given in New.
func (c *Core) ChangeConfig(cfg *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg.DeriveInternalBounds()
	c.cfg = cfg
}

// LatestFrequency returns the most recently published locked fundamental,
// or 0 for "no pitch" (Consumer contract, spec.md 6).
func (c *Core) LatestFrequency() float64 {
	return math.Float64frombits(c.lastFrequency.Load())
}

// LatestSPL copies the most recently published spectrum into dest.
func (c *Core) LatestSPL(dest []float32) {
	p := c.publishedSPL.Load()
	if p == nil {
		return
	}
	spl := *p
	n := len(dest)
	if n > len(spl) {
		n = len(spl)
	}
	for i := 0; i < n; i++ {
		dest[i] = float32(spl[i])
	}
}

// IsRunning reports whether the core is actively capturing and computing.
func (c *Core) IsRunning() bool { return c.running.Load() }

// WasInterrupted reports whether the audio source signalled a mid-stream
// shutdown.
func (c *Core) WasInterrupted() bool { return c.interrupted.Load() }

// Messages returns and clears the queued warnings/errors.
func (c *Core) Messages() []Message { return c.messages.drain() }
