package simulator

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"energy_simulator/internal/model"
	"energy_simulator/internal/store"
	"energy_simulator/internal/util"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 5 * time.Second

// State represents the current simulation state.
type State struct {
	Time     time.Time     `json:"time"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
	Ticks    uint64        `json:"ticks"`
}

// Config holds the engine parameters.
type Config struct {
	Interval  time.Duration
	Latitude  float64
	Longitude float64
	Location  *time.Location
	// Seed for the consumption jitter, 0 picks a time based seed
	Seed uint64
}

// Engine advances the device store at a fixed interval.
type Engine struct {
	log      *util.Logger
	store    *store.Store
	callback Callback
	clock    clock.Clock

	latitude, longitude float64
	location            *time.Location

	// tickMu serializes ticks, jitter is only used while holding it
	tickMu sync.Mutex
	jitter *rand.Rand

	mu       sync.Mutex
	running  bool
	interval time.Duration
	lastTick time.Time
	ticks    uint64
	stopCh   chan struct{}
}

func New(s *store.Store, cb Callback, clk clock.Clock, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(clk.Now().UnixNano())
	}

	return &Engine{
		log:       util.NewLogger("sim"),
		store:     s,
		callback:  cb,
		clock:     clk,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		location:  cfg.Location,
		jitter:    rand.New(rand.NewPCG(seed, seed)),
		interval:  cfg.Interval,
	}
}

// State returns the current simulation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

// state must be called with mu held.
func (e *Engine) state() State {
	return State{
		Time:     e.lastTick,
		Interval: e.interval,
		Running:  e.running,
		Ticks:    e.ticks,
	}
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	go e.loop(e.stopCh, e.interval)
	e.mu.Unlock()

	e.log.INFO.Printf("simulation started, interval %v", e.Interval())
	e.broadcastState()
}

// Pause stops the tick loop. A tick in progress completes.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.log.INFO.Println("simulation paused")
	e.broadcastState()
}

// Interval returns the tick period.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetInterval changes the tick period. A running loop is restarted with the new period.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}

	e.mu.Lock()
	e.interval = d
	if e.running {
		close(e.stopCh)
		e.stopCh = make(chan struct{})
		go e.loop(e.stopCh, d)
	}
	e.mu.Unlock()

	e.broadcastState()
}

// Step runs a single tick at the current clock time. Does not require Start().
func (e *Engine) Step() {
	e.tick()
}

func (e *Engine) loop(stop <-chan struct{}, interval time.Duration) {
	ticker := e.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	now := e.clock.Now().In(e.location)
	interval := e.Interval()

	var (
		next    model.Snapshot
		balance Balance
	)

	err := e.store.Update(func(snap *model.Snapshot) error {
		next, balance = Tick(*snap, TickInput{
			Now:       now,
			Interval:  interval,
			Latitude:  e.latitude,
			Longitude: e.longitude,
			Jitter:    e.jitter,
		})
		*snap = next
		return nil
	})
	if err != nil {
		e.log.ERROR.Printf("tick: %v", err)
		return
	}

	e.mu.Lock()
	e.lastTick = now
	e.ticks++
	e.mu.Unlock()

	for _, d := range next.Devices("") {
		e.log.TRACE.Printf("%s %s: %v", d.Class(), d.DeviceName(), d.States())
		if m, ok := d.(model.SmartMeter); ok {
			e.callback.OnMeter(m)
			continue
		}
		e.callback.OnDevice(d)
	}

	e.log.DEBUG.Printf("grid total %.1fW (production %.1fW, consumption %.1fW)",
		balance.Total(), balance.TotalProduction(), balance.TotalConsumption())

	e.callback.OnBalance(now, balance)
	e.broadcastState()
}

func (e *Engine) broadcastState() {
	e.callback.OnState(e.State())
}
