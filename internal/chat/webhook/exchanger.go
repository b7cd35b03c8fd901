// Package webhook runs request/response exchanges with the automation
// backend for one chat session.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	chaterrors "storagechat/internal/chat/errors"
	"storagechat/internal/chat/identity"
	"storagechat/internal/chat/render"
	"storagechat/internal/chat/status"
	"storagechat/internal/chat/transcript"
	"storagechat/pkg/client"
	"storagechat/pkg/logger"
	"storagechat/pkg/model"
)

type Kind int

const (
	KindTransport Kind = iota + 1
)

func (k Kind) String() string {
	if k == KindTransport {
		return "transport"
	}
	return "unknown"
}

// ExchangeError reports a failed round trip. StatusCode is zero when no
// response arrived at all.
type ExchangeError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook %s error: status %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("webhook %s error: %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

type Reply struct {
	Text      string        `json:"text"`
	Tagged    render.Tagged `json:"tagged"`
	Malformed bool          `json:"malformed"`
}

type Poster interface {
	PostJSON(ctx context.Context, body any) (*client.Response, error)
}

type Indicator interface {
	EnterThinking()
	EnterOnline()
	EnterOffline()
	Phase() status.Phase
}

type IdentitySource interface {
	Require() (model.Identity, error)
}

type Sink interface {
	AppendBotText(text string) transcript.Entry
	AppendBotHTML(tagged render.Tagged) transcript.Entry
}

type Option func(*Exchanger)

func WithRand(rnd *rand.Rand) Option {
	return func(x *Exchanger) {
		x.rnd = rnd
	}
}

func WithClock(now func() time.Time) Option {
	return func(x *Exchanger) {
		x.now = now
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(x *Exchanger) {
		x.log = log
	}
}

// Exchanger serializes chat exchanges for one session. Booking exchanges
// bypass the gate but are counted while outstanding.
type Exchanger struct {
	sessionID string
	identity  IdentitySource
	poster    Poster
	status    Indicator
	sink      Sink

	mu       sync.Mutex
	inFlight int
	rnd      *rand.Rand

	now func() time.Time
	log *logger.Logger
}

func NewExchanger(sessionID string, identity IdentitySource, poster Poster, indicator Indicator, sink Sink, opts ...Option) *Exchanger {
	x := &Exchanger{
		sessionID: sessionID,
		identity:  identity,
		poster:    poster,
		status:    indicator,
		sink:      sink,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:       time.Now,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *Exchanger) InFlight() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.inFlight > 0
}

// Chat sends one visitor message. It is rejected without any network call
// when the identity is missing or another exchange is outstanding.
func (x *Exchanger) Chat(ctx context.Context, message string) (Reply, error) {
	who, err := x.identity.Require()
	if err != nil {
		x.sink.AppendBotText(identity.GuidanceMessage)
		return Reply{}, err
	}

	x.mu.Lock()
	if x.inFlight > 0 {
		x.mu.Unlock()
		return Reply{}, chaterrors.ErrExchangeInFlight
	}
	x.inFlight++
	x.mu.Unlock()
	defer x.finish()

	req := model.ChatRequest{
		Message:   message,
		UserInfo:  who,
		SessionID: x.sessionID,
		Timestamp: x.timestamp(),
		Source:    model.SourceChatbot,
	}

	return x.exchange(ctx, req, ChatEmptyMessage, func() string { return ChatFailureMessage })
}

// Booking notifies the backend of a confirmed booking. A nil draft sends
// empty defaults.
func (x *Exchanger) Booking(ctx context.Context, draft *model.BookingDraft) (Reply, error) {
	who, err := x.identity.Require()
	if err != nil {
		x.sink.AppendBotText(BookingGuidance)
		return Reply{}, err
	}

	booking := model.EmptyBooking()
	if draft != nil {
		booking = *draft
	}

	x.mu.Lock()
	x.inFlight++
	x.mu.Unlock()
	defer x.finish()

	req := model.BookingRequest{
		Message:   model.BookingMessage,
		UserInfo:  who,
		Booking:   booking,
		SessionID: x.sessionID,
		Timestamp: x.timestamp(),
		Source:    model.SourceChatbot,
	}

	return x.exchange(ctx, req, BookingEmptyMessage, x.pickBookingFallback)
}

func (x *Exchanger) exchange(ctx context.Context, body any, emptyText string, fallback func() string) (Reply, error) {
	x.status.EnterThinking()

	start := time.Now()
	resp, err := x.poster.PostJSON(ctx, body)
	if err != nil {
		x.status.EnterOffline()

		exErr := &ExchangeError{Kind: KindTransport, Err: err}
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			exErr.StatusCode = statusErr.StatusCode
		}

		x.sink.AppendBotText(fallback())
		x.log.Warn("Webhook exchange failed",
			"status_code", exErr.StatusCode,
			"duration", time.Since(start),
			"error", err,
		)
		return Reply{}, exErr
	}

	x.status.EnterOnline()

	var payload model.WebhookResponse
	text, ok := "", false
	if jsonErr := json.Unmarshal(resp.Body, &payload); jsonErr == nil {
		text, ok = payload.Text()
	}

	if !ok {
		x.sink.AppendBotText(emptyText)
		x.log.Info("Webhook returned no reply text",
			"status_code", resp.StatusCode,
			"duration", time.Since(start),
		)
		return Reply{Text: emptyText, Malformed: true}, nil
	}

	tagged := render.Classify(text)
	x.sink.AppendBotHTML(tagged)
	x.log.Debug("Webhook exchange completed",
		"variant", tagged.Variant,
		"duration", time.Since(start),
	)
	return Reply{Text: text, Tagged: tagged}, nil
}

func (x *Exchanger) finish() {
	x.mu.Lock()
	x.inFlight--
	x.mu.Unlock()

	if x.status.Phase() != status.Offline {
		x.status.EnterOnline()
	}
}

func (x *Exchanger) pickBookingFallback() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return PickFallback(BookingFallbacks, x.rnd)
}

func (x *Exchanger) timestamp() string {
	return x.now().UTC().Format(model.TimestampLayoutISO)
}
