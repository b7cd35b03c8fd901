package service

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"storagechat/internal/chat/booking"
	"storagechat/internal/chat/identity"
	"storagechat/internal/chat/status"
	"storagechat/internal/chat/transcript"
	"storagechat/internal/chat/validator"
	"storagechat/internal/chat/webhook"
	"storagechat/pkg/logger"

	"github.com/google/uuid"
)

// NewSessionID returns session_<unix-ms>_<9 char suffix>.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}

// Session is one browser conversation. Each component guards its own
// state; the session only tracks lifetime and delayed quick-action replies.
type Session struct {
	ID        string
	CreatedAt time.Time

	transcript *transcript.Transcript
	status     *status.Engine
	gate       *identity.Gate
	exchanger  *webhook.Exchanger
	bookings   *booking.Manager

	scheduler status.Scheduler
	sendMu    sync.Mutex
	mu        sync.Mutex
	timers    map[status.Timer]struct{}
	closed    bool
	lastSeen  atomic.Int64

	log *logger.Logger
}

type sessionDeps struct {
	poster     webhook.Poster
	validator  *validator.ChatValidator
	scheduler  status.Scheduler
	facilities []string
	typing     time.Duration
	almostDone time.Duration
	exchange   []webhook.Option
	log        *logger.Logger
}

func newSession(id string, now time.Time, deps sessionDeps) *Session {
	log := deps.log.ForSession(id)
	tr := transcript.New()
	engine := status.NewEngine(tr,
		status.WithScheduler(deps.scheduler),
		status.WithDelays(deps.typing, deps.almostDone),
		status.WithLogger(log),
	)
	gate := identity.NewGate(deps.validator, tr, log)
	opts := append([]webhook.Option{webhook.WithLogger(log)}, deps.exchange...)
	exchanger := webhook.NewExchanger(id, gate, deps.poster, engine, tr, opts...)

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		transcript: tr,
		status:     engine,
		gate:       gate,
		exchanger:  exchanger,
		bookings:   booking.NewManager(deps.facilities, deps.validator, tr, exchanger, log),
		scheduler:  deps.scheduler,
		timers:     make(map[status.Timer]struct{}),
		log:        log,
	}
	s.touch(now)
	return s
}

// CanSend reports whether the send affordance is enabled for text.
func (s *Session) CanSend(text string) bool {
	return strings.TrimSpace(text) != "" && s.gate.Unlocked() && !s.exchanger.InFlight()
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:                 s.ID,
		Unlocked:           s.gate.Unlocked(),
		Phase:              s.status.Phase(),
		InFlight:           s.exchanger.InFlight(),
		HasExistingBooking: s.bookings.HasExistingBooking(),
	}
	snap.CanSend = snap.Unlocked && !snap.InFlight
	if form, ok := s.bookings.Active(); ok {
		snap.ActiveFormID = form.ID
	}
	return snap
}

func (s *Session) Transcript() *transcript.Transcript {
	return s.transcript
}

// after runs fn once d has passed unless the session is closed first.
func (s *Session) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var t status.Timer
	t = s.scheduler.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		delete(s.timers, t)
		s.mu.Unlock()
		fn()
	})
	s.timers[t] = struct{}{}
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	s.status.Stop()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}
