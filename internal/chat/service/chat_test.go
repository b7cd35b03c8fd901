package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storagechat/internal/chat/booking"
	"storagechat/internal/chat/events"
	"storagechat/internal/chat/identity"
	"storagechat/internal/chat/status"
	"storagechat/internal/chat/transcript"
	"storagechat/internal/chat/validator"
	"storagechat/internal/chat/webhook"
	"storagechat/pkg/client"
	"storagechat/pkg/config"
	apperrors "storagechat/pkg/errors"
	"storagechat/pkg/logger"
	"storagechat/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFacilities = []string{"Deegan Marine", "45 Fieldings Way", "780 South Road"}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type backend struct {
	server  *httptest.Server
	calls   atomic.Int32
	mu      sync.Mutex
	bodies  [][]byte
	handler func(w http.ResponseWriter, r *http.Request)
}

func newBackend(t *testing.T) *backend {
	b := &backend{handler: reply(http.StatusOK, `{"output":{"response":"Hi there"}}`)}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, body)
		h := b.handler
		b.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) respond(h func(http.ResponseWriter, *http.Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

func reply(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

type harness struct {
	svc     ChatService
	store   *Store
	sched   *status.ManualScheduler
	backend *backend
	pub     *capturePublisher
}

func newHarness(t *testing.T) *harness {
	b := newBackend(t)
	cfg := &config.Config{
		WaitlistURL:           "https://forms.example.com/waitlist",
		Facilities:            testFacilities,
		StatusTypingDelay:     2 * time.Second,
		StatusAlmostDoneDelay: 3 * time.Second,
		QuickActionFlash:      1500 * time.Millisecond,
		QuickActionDelay:      1500 * time.Millisecond,
		Log:                   logger.Discard(),
	}
	store := NewStore(time.Hour, 0, cfg.Log)
	t.Cleanup(store.Stop)
	sched := status.NewManualScheduler()
	pub := &capturePublisher{}
	svc := NewChatService(store, client.NewHttpClient(b.server.URL), validator.NewChatValidator(cfg.Log, testFacilities), pub, cfg,
		WithScheduler(sched),
	)
	return &harness{svc: svc, store: store, sched: sched, backend: b, pub: pub}
}

func (h *harness) start(t *testing.T) string {
	view, err := h.svc.Start(context.Background())
	require.NoError(t, err)
	return view.Session.ID
}

func (h *harness) unlocked(t *testing.T) string {
	id := h.start(t)
	_, err := h.svc.SubmitIdentity(context.Background(), id, "Sam", "s@x.com")
	require.NoError(t, err)
	return id
}

func (h *harness) entries(t *testing.T, id string) []transcript.Entry {
	view, err := h.svc.Get(context.Background(), id, 0)
	require.NoError(t, err)
	return view.Transcript.Entries
}

func requireAppError(t *testing.T, err error, status int) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func TestStart_SessionIDFormat(t *testing.T) {
	h := newHarness(t)
	view, err := h.svc.Start(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^session_\d{13}_[0-9a-f]{9}$`), view.Session.ID)
	assert.False(t, view.Session.Unlocked)
	assert.False(t, view.Session.CanSend)
	assert.Equal(t, status.Online, view.Session.Phase)
	assert.Empty(t, view.Transcript.Entries)
	assert.Contains(t, h.pub.types(), events.TypeSessionStarted)
}

func TestGet_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Get(context.Background(), "session_missing", 0)
	requireAppError(t, err, http.StatusNotFound)
}

func TestSendMessage_BeforeIdentity(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	_, err := h.svc.SendMessage(context.Background(), id, "hi")
	requireAppError(t, err, http.StatusForbidden)
	assert.Equal(t, int32(0), h.backend.calls.Load())

	entries := h.entries(t, id)
	require.NotEmpty(t, entries)
	assert.Equal(t, identity.GuidanceMessage, entries[len(entries)-1].Content)

	view, _ := h.svc.Get(context.Background(), id, 0)
	assert.False(t, view.Session.InFlight)
}

func TestSubmitIdentity_WelcomeOnce(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	snap, err := h.svc.SubmitIdentity(context.Background(), id, "Sam", "s@x.com")
	require.NoError(t, err)
	assert.True(t, snap.Unlocked)
	assert.True(t, snap.CanSend)

	_, err = h.svc.SubmitIdentity(context.Background(), id, "Sam", "s@x.com")
	requireAppError(t, err, http.StatusConflict)

	var welcomes int
	for _, e := range h.entries(t, id) {
		if e.Content == identity.WelcomeMessage("Sam") {
			welcomes++
		}
	}
	assert.Equal(t, 1, welcomes)
}

func TestSubmitIdentity_Validation(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	_, err := h.svc.SubmitIdentity(context.Background(), id, " ", "s@x.com")
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestSendMessage_Success(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	res, err := h.svc.SendMessage(context.Background(), id, "  do you have small units? ")
	require.NoError(t, err)
	assert.False(t, res.Offline)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "Hi there", res.Reply.Text)
	assert.Equal(t, status.Online, res.Session.Phase)

	var sent model.ChatRequest
	require.NoError(t, json.Unmarshal(h.backend.bodies[0], &sent))
	assert.Equal(t, "do you have small units?", sent.Message)
	assert.Equal(t, id, sent.SessionID)

	entries := h.entries(t, id)
	assert.Equal(t, transcript.RoleUser, entries[len(entries)-2].Role)
	assert.Equal(t, transcript.KindHTML, entries[len(entries)-1].Kind)
	assert.Contains(t, h.pub.types(), events.TypeExchangeCompleted)
}

func TestSendMessage_EmptyText(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	_, err := h.svc.SendMessage(context.Background(), id, "   ")
	requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, int32(0), h.backend.calls.Load())
}

func TestSendMessage_ServerErrorThenRetry(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	h.backend.respond(reply(http.StatusInternalServerError, "down"))

	res, err := h.svc.SendMessage(context.Background(), id, "hello")
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.Equal(t, status.Offline, res.Session.Phase)
	assert.False(t, res.Session.InFlight)

	entries := h.entries(t, id)
	var fallbacks int
	for _, e := range entries {
		if e.Content == webhook.ChatFailureMessage {
			fallbacks++
		}
	}
	assert.Equal(t, 1, fallbacks)
	assert.Contains(t, h.pub.types(), events.TypeExchangeFailed)

	h.backend.respond(reply(http.StatusOK, `{"output":{"response":"back"}}`))
	res, err = h.svc.SendMessage(context.Background(), id, "hello again")
	require.NoError(t, err)
	assert.False(t, res.Offline)
	assert.Equal(t, status.Online, res.Session.Phase)
}

func TestSendMessage_EmptyReplyStaysOnline(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	h.backend.respond(reply(http.StatusOK, `{}`))

	res, err := h.svc.SendMessage(context.Background(), id, "hello")
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	assert.True(t, res.Reply.Malformed)
	assert.Equal(t, status.Online, res.Session.Phase)

	entries := h.entries(t, id)
	assert.Equal(t, webhook.ChatEmptyMessage, entries[len(entries)-1].Content)
}

func TestSendMessage_RejectedWhileInFlight(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.backend.respond(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		reply(http.StatusOK, `{"output":{"response":"slow"}}`)(w, r)
	})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SendMessage(context.Background(), id, "first")
		done <- err
	}()
	<-entered

	view, _ := h.svc.Get(context.Background(), id, 0)
	assert.True(t, view.Session.InFlight)
	assert.False(t, view.Session.CanSend)
	assert.Equal(t, status.Thinking, view.Session.Phase)
	require.NotNil(t, view.Transcript.Indicator)
	assert.Equal(t, "Thinking...", view.Transcript.Indicator.Text)

	_, err := h.svc.SendMessage(context.Background(), id, "second")
	requireAppError(t, err, http.StatusConflict)
	assert.Equal(t, int32(1), h.backend.calls.Load())

	close(release)
	require.NoError(t, <-done)
}

func TestSendMessage_ExpiresActiveForm(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	_, err := h.svc.QuickAction(context.Background(), id, "book-now")
	require.NoError(t, err)
	h.sched.Advance(1500 * time.Millisecond)

	view, _ := h.svc.Get(context.Background(), id, 0)
	require.NotEmpty(t, view.Session.ActiveFormID)

	res, err := h.svc.SendMessage(context.Background(), id, "actually, a question")
	require.NoError(t, err)
	assert.Empty(t, res.Session.ActiveFormID)

	for _, e := range h.entries(t, id) {
		if e.Kind == transcript.KindBookingForm {
			assert.Equal(t, booking.StateExpired, e.Data.(booking.FormView).State)
		}
	}
}

func TestBookingScenario(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	ctx := context.Background()

	snap, err := h.svc.QuickAction(ctx, id, "book-now")
	require.NoError(t, err)
	assert.Empty(t, snap.ActiveFormID, "form appears after the quick-action delay")

	view, _ := h.svc.Get(ctx, id, 0)
	require.NotNil(t, view.Transcript.Indicator)
	assert.Equal(t, "Setting up booking...", view.Transcript.Indicator.Text)

	h.sched.Advance(1500 * time.Millisecond)
	view, _ = h.svc.Get(ctx, id, 0)
	require.NotEmpty(t, view.Session.ActiveFormID)
	assert.Nil(t, view.Transcript.Indicator)

	draft := model.BookingDraft{
		Facility:       "Deegan Marine",
		Unit:           "12",
		Bond:           "100",
		Monthly:        "50",
		LeaseStartDate: "2025-01-01",
	}
	_, err = h.svc.SubmitBooking(ctx, id, draft)
	require.NoError(t, err)
	assert.Equal(t, int32(0), h.backend.calls.Load(), "submit must not contact the backend")

	res, err := h.svc.ConfirmBooking(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Session.HasExistingBooking)
	assert.Empty(t, res.Session.ActiveFormID)

	require.Equal(t, int32(1), h.backend.calls.Load())
	var sent model.BookingRequest
	require.NoError(t, json.Unmarshal(h.backend.bodies[0], &sent))
	assert.Equal(t, draft, sent.Booking)
	assert.Equal(t, model.BookingMessage, sent.Message)
	assert.Contains(t, h.pub.types(), events.TypeBookingConfirmed)

	// a second Book Now offers edit or new
	_, err = h.svc.QuickAction(ctx, id, "book-now")
	require.NoError(t, err)
	h.sched.Advance(1500 * time.Millisecond)
	entries := h.entries(t, id)
	assert.Equal(t, transcript.KindBookingChoice, entries[len(entries)-1].Kind)

	snap, err = h.svc.ChooseBooking(ctx, id, "edit")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ActiveFormID)
}

func TestSubmitBooking_Invalid(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	_, err := h.svc.SubmitBooking(context.Background(), id, model.BookingDraft{})
	requireAppError(t, err, http.StatusConflict)

	h.svc.QuickAction(context.Background(), id, "book-now")
	h.sched.Advance(1500 * time.Millisecond)

	_, err = h.svc.SubmitBooking(context.Background(), id, model.BookingDraft{Facility: "Nowhere"})
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestBookNow_WithoutIdentityGivesGuidance(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	_, err := h.svc.QuickAction(context.Background(), id, "book-now")
	require.NoError(t, err)
	h.sched.Advance(1500 * time.Millisecond)

	entries := h.entries(t, id)
	require.NotEmpty(t, entries)
	assert.Equal(t, BookNowGuidance, entries[len(entries)-1].Content)
}

func TestQuickActions(t *testing.T) {
	tests := []struct {
		action string
		intro  string
		kind   transcript.Kind
	}{
		{"virtual-tour", VirtualTourIntro, transcript.KindGallery},
		{"waitlist", WaitlistIntro, transcript.KindWaitlist},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			h := newHarness(t)
			id := h.unlocked(t)

			_, err := h.svc.QuickAction(context.Background(), id, tt.action)
			require.NoError(t, err)
			h.sched.Advance(1500 * time.Millisecond)

			entries := h.entries(t, id)
			require.GreaterOrEqual(t, len(entries), 2)
			assert.Equal(t, tt.intro, entries[len(entries)-2].Content)
			assert.Equal(t, tt.kind, entries[len(entries)-1].Kind)
		})
	}
}

func TestQuickAction_Unknown(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	_, err := h.svc.QuickAction(context.Background(), id, "teleport")
	requireAppError(t, err, http.StatusBadRequest)
}

func TestEnd_ClosesSession(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)

	_, err := h.svc.QuickAction(context.Background(), id, "virtual-tour")
	require.NoError(t, err)

	require.NoError(t, h.svc.End(context.Background(), id))
	assert.Equal(t, 0, h.store.Len())

	// pending quick-action replies are dropped with the session
	h.sched.Advance(time.Minute)
	_, err = h.svc.Get(context.Background(), id, 0)
	requireAppError(t, err, http.StatusNotFound)

	err = h.svc.End(context.Background(), id)
	requireAppError(t, err, http.StatusNotFound)
}

func TestSession_CanSend(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	sess, ok := h.store.Get(id)
	require.True(t, ok)

	assert.False(t, sess.CanSend("hi"))
	_, err := h.svc.SubmitIdentity(context.Background(), id, "Sam", "s@x.com")
	require.NoError(t, err)
	assert.True(t, sess.CanSend("hi"))
	assert.False(t, sess.CanSend("   "))
}

func TestConfirmBooking_RequiresSubmittedDraft(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	ctx := context.Background()

	_, err := h.svc.ConfirmBooking(ctx, id)
	requireAppError(t, err, http.StatusConflict)

	_, err = h.svc.QuickAction(ctx, id, "book-now")
	require.NoError(t, err)
	h.sched.Advance(1500 * time.Millisecond)
	_, err = h.svc.SubmitBooking(ctx, id, model.BookingDraft{
		Facility:       "Deegan Marine",
		Unit:           "12",
		Bond:           "100",
		Monthly:        "50",
		LeaseStartDate: "2025-01-01",
	})
	require.NoError(t, err)

	// a chat message expires the form and its open disclaimer
	_, err = h.svc.SendMessage(ctx, id, "one more question")
	require.NoError(t, err)

	_, err = h.svc.ConfirmBooking(ctx, id)
	requireAppError(t, err, http.StatusConflict)

	view, _ := h.svc.Get(ctx, id, 0)
	assert.False(t, view.Session.HasExistingBooking)
	assert.Equal(t, int32(1), h.backend.calls.Load(), "only the chat message reached the backend")
	assert.NotContains(t, h.pub.types(), events.TypeBookingConfirmed)
}

func TestQuickAction_DuringExchangeKeepsNarration(t *testing.T) {
	h := newHarness(t)
	id := h.unlocked(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.backend.respond(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		reply(http.StatusOK, `{"output":{"response":"slow"}}`)(w, r)
	})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SendMessage(ctx, id, "question")
		done <- err
	}()
	<-entered

	_, err := h.svc.QuickAction(ctx, id, "virtual-tour")
	require.NoError(t, err)

	h.sched.Advance(1500 * time.Millisecond)
	view, _ := h.svc.Get(ctx, id, 0)
	require.NotNil(t, view.Transcript.Indicator)
	assert.Equal(t, "Thinking...", view.Transcript.Indicator.Text)
	assert.True(t, view.Session.InFlight)

	h.sched.Advance(500 * time.Millisecond)
	view, _ = h.svc.Get(ctx, id, 0)
	assert.Equal(t, status.Typing, view.Session.Phase)
	require.NotNil(t, view.Transcript.Indicator)
	assert.Equal(t, "Typing...", view.Transcript.Indicator.Text)

	close(release)
	require.NoError(t, <-done)

	view, _ = h.svc.Get(ctx, id, 0)
	assert.Equal(t, status.Online, view.Session.Phase)
	assert.Nil(t, view.Transcript.Indicator)
}
