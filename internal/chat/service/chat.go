package service

import (
	"context"
	"errors"
	"time"

	"storagechat/internal/chat/booking"
	chaterrors "storagechat/internal/chat/errors"
	"storagechat/internal/chat/events"
	"storagechat/internal/chat/status"
	"storagechat/internal/chat/transcript"
	"storagechat/internal/chat/validator"
	"storagechat/internal/chat/webhook"
	"storagechat/pkg/config"
	apperrors "storagechat/pkg/errors"
	"storagechat/pkg/middleware"
	"storagechat/pkg/model"
	"storagechat/pkg/sanitizer"
)

type Snapshot struct {
	ID                 string       `json:"id"`
	Unlocked           bool         `json:"unlocked"`
	Phase              status.Phase `json:"phase"`
	InFlight           bool         `json:"inFlight"`
	CanSend            bool         `json:"canSend"`
	HasExistingBooking bool         `json:"hasExistingBooking"`
	ActiveFormID       string       `json:"activeFormId,omitempty"`
}

type View struct {
	Session    Snapshot        `json:"session"`
	Transcript transcript.Page `json:"transcript"`
}

type ExchangeResult struct {
	Session Snapshot       `json:"session"`
	Reply   *webhook.Reply `json:"reply,omitempty"`
	Offline bool           `json:"offline"`
}

type ChatService interface {
	Start(ctx context.Context) (*View, error)
	Get(ctx context.Context, id string, after int64) (*View, error)
	End(ctx context.Context, id string) error
	SubmitIdentity(ctx context.Context, id string, name, email string) (*Snapshot, error)
	SendMessage(ctx context.Context, id string, text string) (*ExchangeResult, error)
	QuickAction(ctx context.Context, id string, action string) (*Snapshot, error)
	ChooseBooking(ctx context.Context, id string, choice string) (*Snapshot, error)
	SubmitBooking(ctx context.Context, id string, values model.BookingDraft) (*Snapshot, error)
	ConfirmBooking(ctx context.Context, id string) (*ExchangeResult, error)
	DismissDisclaimer(ctx context.Context, id string) (*Snapshot, error)
	CancelBooking(ctx context.Context, id string) (*Snapshot, error)
}

type Option func(*chatService)

func WithScheduler(s status.Scheduler) Option {
	return func(cs *chatService) {
		cs.scheduler = s
	}
}

func WithExchangeOptions(opts ...webhook.Option) Option {
	return func(cs *chatService) {
		cs.exchangeOpts = append(cs.exchangeOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(cs *chatService) {
		cs.now = now
	}
}

type chatService struct {
	store        *Store
	poster       webhook.Poster
	validator    *validator.ChatValidator
	publisher    events.Publisher
	scheduler    status.Scheduler
	exchangeOpts []webhook.Option
	now          func() time.Time
	cfg          *config.Config
}

func NewChatService(
	store *Store,
	poster webhook.Poster,
	validator *validator.ChatValidator,
	publisher events.Publisher,
	cfg *config.Config,
	opts ...Option,
) ChatService {
	s := &chatService{
		store:     store,
		poster:    poster,
		validator: validator,
		publisher: publisher,
		scheduler: status.RealScheduler(),
		now:       time.Now,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	store.onEvict = func(sess *Session) {
		s.publish(context.Background(), sess.ID, events.TypeSessionEnded, map[string]string{"reason": "idle"})
	}
	return s
}

func (s *chatService) Start(ctx context.Context) (*View, error) {
	now := s.now()
	sess := newSession(NewSessionID(now), now, sessionDeps{
		poster:     s.poster,
		validator:  s.validator,
		scheduler:  s.scheduler,
		facilities: s.cfg.Facilities,
		typing:     s.cfg.StatusTypingDelay,
		almostDone: s.cfg.StatusAlmostDoneDelay,
		exchange:   s.exchangeOpts,
		log:        s.cfg.Log,
	})
	s.store.Put(sess)

	sess.log.Info("Chat session started")
	s.publish(ctx, sess.ID, events.TypeSessionStarted, nil)

	return &View{Session: sess.Snapshot(), Transcript: sess.transcript.Since(0)}, nil
}

func (s *chatService) Get(_ context.Context, id string, after int64) (*View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if after < 0 {
		return nil, apperrors.InvalidInput("after must not be negative")
	}
	return &View{Session: sess.Snapshot(), Transcript: sess.transcript.Since(after)}, nil
}

func (s *chatService) End(ctx context.Context, id string) error {
	sess, ok := s.store.Delete(id)
	if !ok {
		return apperrors.NotFoundWithID("Session", id)
	}
	sess.log.Info("Chat session ended")
	s.publish(ctx, id, events.TypeSessionEnded, map[string]string{"reason": "closed"})
	return nil
}

func (s *chatService) SubmitIdentity(ctx context.Context, id string, name, email string) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	who, err := sess.gate.Submit(ctx, name, email)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.publish(ctx, id, events.TypeIdentityAccepted, who)
	snap := sess.Snapshot()
	return &snap, nil
}

// SendMessage expires any active booking form, echoes the visitor's text
// and runs one chat exchange. Transport failures are reported through
// Offline, not as an error.
func (s *chatService) SendMessage(ctx context.Context, id string, text string) (*ExchangeResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	message := sanitizer.NormalizeMessage(text)
	if message == "" {
		return nil, s.mapError(chaterrors.ErrEmptyMessage)
	}

	if !sess.sendMu.TryLock() {
		return nil, s.mapError(chaterrors.ErrExchangeInFlight)
	}
	defer sess.sendMu.Unlock()

	if sess.exchanger.InFlight() {
		return nil, s.mapError(chaterrors.ErrExchangeInFlight)
	}

	sess.bookings.ExpireActive()
	sess.transcript.AppendUser(message)

	exCtx, cancel := s.exchangeContext(ctx)
	defer cancel()

	reply, err := sess.exchanger.Chat(exCtx, message)
	return s.exchangeResult(ctx, sess, "chat", reply, err)
}

func (s *chatService) QuickAction(ctx context.Context, id string, action string) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	qa, ok := model.ParseQuickAction(action)
	if !ok {
		return nil, s.mapError(chaterrors.ErrUnknownQuickAction)
	}

	if err := s.runQuickAction(sess, qa); err != nil {
		return nil, s.mapError(err)
	}

	sess.log.Info("Quick action started", "action", string(qa))
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *chatService) ChooseBooking(_ context.Context, id string, choice string) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if !sess.gate.Unlocked() {
		return nil, s.mapError(chaterrors.ErrIdentityRequired)
	}

	if _, err := sess.bookings.Choose(booking.Choice(choice)); err != nil {
		return nil, s.mapError(err)
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *chatService) SubmitBooking(_ context.Context, id string, values model.BookingDraft) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if !sess.gate.Unlocked() {
		return nil, s.mapError(chaterrors.ErrIdentityRequired)
	}

	if _, err := sess.bookings.Submit(values); err != nil {
		return nil, s.mapError(err)
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *chatService) ConfirmBooking(ctx context.Context, id string) (*ExchangeResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if !sess.gate.Unlocked() {
		return nil, s.mapError(chaterrors.ErrIdentityRequired)
	}

	exCtx, cancel := s.exchangeContext(ctx)
	defer cancel()

	reply, err := sess.bookings.Confirm(exCtx)
	if errors.Is(err, chaterrors.ErrNoPendingConfirmation) {
		return nil, s.mapError(err)
	}
	s.publish(ctx, id, events.TypeBookingConfirmed, sess.bookings.Current())

	return s.exchangeResult(ctx, sess, "booking", reply, err)
}

func (s *chatService) DismissDisclaimer(_ context.Context, id string) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.bookings.DismissDisclaimer()
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *chatService) CancelBooking(_ context.Context, id string) (*Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.bookings.Cancel()
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *chatService) session(id string) (*Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Session ID cannot be empty")
	}
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, apperrors.NotFoundWithID("Session", id)
	}
	return sess, nil
}

// exchangeContext detaches the webhook call from the caller's cancellation
// and applies the optional request timeout.
func (s *chatService) exchangeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(detached, s.cfg.RequestTimeout)
	}
	return context.WithCancel(detached)
}

type exchangeOutcome struct {
	Kind       string `json:"kind"`
	Malformed  bool   `json:"malformed,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *chatService) exchangeResult(ctx context.Context, sess *Session, kind string, reply webhook.Reply, err error) (*ExchangeResult, error) {
	var exErr *webhook.ExchangeError
	switch {
	case err == nil:
		s.publish(ctx, sess.ID, events.TypeExchangeCompleted, exchangeOutcome{Kind: kind, Malformed: reply.Malformed})
		return &ExchangeResult{Session: sess.Snapshot(), Reply: &reply}, nil
	case errors.As(err, &exErr):
		s.publish(ctx, sess.ID, events.TypeExchangeFailed, exchangeOutcome{
			Kind:       kind,
			StatusCode: exErr.StatusCode,
			Error:      exErr.Error(),
		})
		return &ExchangeResult{Session: sess.Snapshot(), Offline: true}, nil
	default:
		return nil, s.mapError(err)
	}
}

func (s *chatService) mapError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make(map[string]any, len(verrs))
		for _, v := range verrs {
			details[v.Field] = v.Message
		}
		return apperrors.Validation("Validation failed", details)
	case errors.Is(err, chaterrors.ErrIdentityRequired):
		return apperrors.IdentityRequired("Please provide your name and email first.")
	case errors.Is(err, chaterrors.ErrIdentityLocked):
		return apperrors.Conflict(apperrors.CodeConflict, "Identity has already been submitted")
	case errors.Is(err, chaterrors.ErrExchangeInFlight):
		return apperrors.Conflict(apperrors.CodeExchangeInFlight, "Please wait for the current reply")
	case errors.Is(err, chaterrors.ErrNoActiveForm):
		return apperrors.Conflict(apperrors.CodeFormExpired, "This booking form has expired")
	case errors.Is(err, chaterrors.ErrNoPendingConfirmation):
		return apperrors.Conflict(apperrors.CodeNoPendingConfirm, "There is no booking waiting for confirmation")
	case errors.Is(err, chaterrors.ErrEmptyMessage):
		return apperrors.InvalidInput("Message cannot be empty")
	case errors.Is(err, chaterrors.ErrUnknownQuickAction):
		return apperrors.InvalidInput("Unknown quick action")
	case errors.Is(err, chaterrors.ErrUnknownChoice):
		return apperrors.InvalidInput("Choice must be 'edit' or 'new'")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Chat operation failed", err)
	}
}

// publish never fails the caller; lost events are logged.
func (s *chatService) publish(ctx context.Context, sessionID, eventType string, payload any) {
	event := events.Event{
		Type:      eventType,
		SessionID: sessionID,
		RequestID: middleware.RequestIDFromContext(ctx),
		At:        s.now().UTC(),
		Payload:   payload,
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Warn("Failed to publish chat event",
			"event_type", eventType,
			"session_id", sessionID,
			"error", err,
		)
	}
}
