// Package status narrates backend latency through a single inline
// indicator: Thinking, then Typing, then Almost done, until the exchange
// settles Online or Offline.
package status

import (
	"sync"
	"time"

	"storagechat/pkg/logger"
)

const (
	DefaultTypingDelay     = 2000 * time.Millisecond
	DefaultAlmostDoneDelay = 3000 * time.Millisecond
)

// IndicatorSink owns the one inline indicator slot.
type IndicatorSink interface {
	ShowIndicator(phase Phase, text string)
	RemoveIndicator()
}

type Option func(*Engine)

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

func WithDelays(typing, almostDone time.Duration) Option {
	return func(e *Engine) {
		if typing > 0 {
			e.typingDelay = typing
		}
		if almostDone > 0 {
			e.almostDoneDelay = almostDone
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

type Engine struct {
	mu              sync.Mutex
	phase           Phase
	generation      uint64
	pending         Timer
	flashGen        uint64
	flashTimer      Timer
	sink            IndicatorSink
	scheduler       Scheduler
	typingDelay     time.Duration
	almostDoneDelay time.Duration
	log             *logger.Logger
}

func NewEngine(sink IndicatorSink, opts ...Option) *Engine {
	e := &Engine{
		phase:           Online,
		sink:            sink,
		scheduler:       RealScheduler(),
		typingDelay:     DefaultTypingDelay,
		almostDoneDelay: DefaultAlmostDoneDelay,
		log:             logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// EnterThinking starts a fresh narration chain. Any chain already running
// is cancelled first.
func (e *Engine) EnterThinking() {
	e.mu.Lock()
	defer e.mu.Unlock()

	gen := e.supersede()
	e.render(Thinking, Thinking.Text())
	e.schedule(gen, e.typingDelay, Typing)
}

func (e *Engine) EnterOnline() {
	e.settle(Online)
}

func (e *Engine) EnterOffline() {
	e.settle(Offline)
}

// Flash shows text in the indicator slot for d without changing the phase.
// A running narration chain keeps its timers: the next step replaces the
// flash, and when the flash retires first the current step is shown again.
// Any other transition retires it early.
func (e *Engine) Flash(text string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.phase.narrated() {
		e.supersede()
	}
	gen := e.dropFlash()
	e.sink.RemoveIndicator()
	e.sink.ShowIndicator(e.phase, text)
	e.flashTimer = e.scheduler.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.flashGen {
			return
		}
		e.flashTimer = nil
		if e.phase.narrated() {
			e.render(e.phase, e.phase.Text())
			return
		}
		e.sink.RemoveIndicator()
	})
}

// Stop cancels any pending transition and clears the indicator. The phase
// is left as it is.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.supersede()
	e.sink.RemoveIndicator()
}

func (e *Engine) settle(phase Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.supersede()
	e.phase = phase
	e.sink.RemoveIndicator()
	e.log.Debug("Status settled", "phase", phase.String())
}

// supersede invalidates every callback from earlier chains and flashes.
// Must hold mu.
func (e *Engine) supersede() uint64 {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.dropFlash()
	e.generation++
	return e.generation
}

// dropFlash cancels a pending flash retirement. Must hold mu.
func (e *Engine) dropFlash() uint64 {
	if e.flashTimer != nil {
		e.flashTimer.Stop()
		e.flashTimer = nil
	}
	e.flashGen++
	return e.flashGen
}

// render retires the current indicator before showing the next. Must hold mu.
func (e *Engine) render(phase Phase, text string) {
	e.phase = phase
	e.sink.RemoveIndicator()
	e.sink.ShowIndicator(phase, text)
}

func (e *Engine) schedule(gen uint64, d time.Duration, next Phase) {
	e.pending = e.scheduler.AfterFunc(d, func() {
		e.advance(gen, next)
	})
}

func (e *Engine) advance(gen uint64, next Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// a stopped timer can still fire if it was already running
	if gen != e.generation {
		return
	}
	e.pending = nil
	e.dropFlash()
	e.render(next, next.Text())
	e.log.Debug("Status advanced", "phase", next.String())

	if next == Typing {
		e.schedule(gen, e.almostDoneDelay, AlmostDone)
	}
}
