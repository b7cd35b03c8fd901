// Package booking keeps at most one editable booking form alive per session
// and walks it through draft, expired and submitted.
package booking

import (
	"context"
	"strings"
	"sync"

	chaterrors "storagechat/internal/chat/errors"
	"storagechat/internal/chat/transcript"
	"storagechat/internal/chat/validator"
	"storagechat/internal/chat/webhook"
	"storagechat/pkg/logger"
	"storagechat/pkg/model"
	"storagechat/pkg/sanitizer"

	"github.com/google/uuid"
)

type Sink interface {
	Append(e transcript.Entry) transcript.Entry
	AppendBotText(text string) transcript.Entry
	Update(seq int64, fn func(e *transcript.Entry)) bool
}

type Notifier interface {
	Booking(ctx context.Context, draft *model.BookingDraft) (webhook.Reply, error)
}

type Manager struct {
	mu            sync.Mutex
	active        *Form
	pending       *model.BookingDraft
	current       *model.BookingDraft
	hasExisting   bool
	disclaimerSeq int64

	facilities []string
	validator  *validator.ChatValidator
	sink       Sink
	notifier   Notifier
	log        *logger.Logger
	newID      func() string
}

func NewManager(facilities []string, v *validator.ChatValidator, sink Sink, notifier Notifier, log *logger.Logger) *Manager {
	return &Manager{
		facilities: facilities,
		validator:  v,
		sink:       sink,
		notifier:   notifier,
		log:        log,
		newID:      func() string { return "form_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// Create expires any active form and renders a new draft, prefilled when
// existing is not nil.
func (m *Manager) Create(existing *model.BookingDraft) Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(existing)
}

func (m *Manager) createLocked(existing *model.BookingDraft) Form {
	m.expireLocked()

	form := &Form{
		ID:      m.newID(),
		State:   StateDraft,
		Prefill: existing.Clone(),
	}
	entry := m.sink.Append(transcript.Entry{
		Role:   transcript.RoleBot,
		Kind:   transcript.KindBookingForm,
		FormID: form.ID,
		Data:   draftView(form.Prefill, m.facilities),
	})
	form.Seq = entry.Seq
	m.active = form

	m.log.Debug("Booking form created", "form_id", form.ID, "prefilled", existing != nil)
	return *form
}

// ExpireActive turns the active draft into a read-only expired notice. It
// reports whether there was anything to expire.
func (m *Manager) ExpireActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireLocked()
}

func (m *Manager) expireLocked() bool {
	if m.active == nil {
		return false
	}

	m.active.State = StateExpired
	m.sink.Update(m.active.Seq, func(e *transcript.Entry) {
		e.Data = expiredView()
	})
	m.closeDisclaimerLocked(false)
	m.pending = nil
	m.log.Debug("Booking form expired", "form_id", m.active.ID)
	m.active = nil
	return true
}

// Cancel is the form's own cancel button.
func (m *Manager) Cancel() bool {
	return m.ExpireActive()
}

// Submit validates the active draft's values and asks for disclaimer
// confirmation. Nothing is sent to the backend yet.
func (m *Manager) Submit(values model.BookingDraft) (model.BookingDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return model.BookingDraft{}, chaterrors.ErrNoActiveForm
	}

	draft := model.BookingDraft{
		Facility:       sanitizer.TrimAndNormalize(values.Facility),
		Unit:           sanitizer.NormalizeUnit(values.Unit),
		Bond:           sanitizer.NormalizeAmount(values.Bond),
		Monthly:        sanitizer.NormalizeAmount(values.Monthly),
		LeaseStartDate: strings.TrimSpace(values.LeaseStartDate),
	}
	if err := m.validator.ValidateBooking(&draft); err != nil {
		return model.BookingDraft{}, err
	}

	m.closeDisclaimerLocked(false)
	m.pending = &draft
	entry := m.sink.Append(transcript.Entry{
		Role:   transcript.RoleBot,
		Kind:   transcript.KindDisclaimer,
		FormID: m.active.ID,
		Data:   DisclaimerView{FormID: m.active.ID, Draft: draft},
	})
	m.disclaimerSeq = entry.Seq

	return draft, nil
}

// DismissDisclaimer closes the disclaimer without confirming. The draft
// stays active.
func (m *Manager) DismissDisclaimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeDisclaimerLocked(false)
	m.pending = nil
}

// Confirm answers the open disclaimer: the submitted draft becomes the
// confirmed booking and the backend is notified once. Without an open
// disclaimer it fails with ErrNoPendingConfirmation.
func (m *Manager) Confirm(ctx context.Context) (webhook.Reply, error) {
	m.mu.Lock()
	if m.disclaimerSeq == 0 || m.pending == nil || m.active == nil {
		m.mu.Unlock()
		return webhook.Reply{}, chaterrors.ErrNoPendingConfirmation
	}
	m.closeDisclaimerLocked(true)

	summary := *m.pending
	m.active.State = StateSubmitted
	m.sink.Update(m.active.Seq, func(e *transcript.Entry) {
		e.Data = submittedView(summary)
	})
	m.log.Info("Booking form submitted",
		"form_id", m.active.ID,
		"facility", summary.Facility,
	)
	m.active = nil
	m.pending = nil
	m.current = &summary
	m.hasExisting = true
	draft := m.current.Clone()
	m.mu.Unlock()

	return m.notifier.Booking(ctx, draft)
}

// BookNow restarts the booking flow. With a booking already confirmed the
// visitor first chooses between editing it and starting over.
func (m *Manager) BookNow() (Form, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked()

	if m.hasExisting {
		m.sink.AppendBotText(ExistingBookingPrompt)
		m.sink.Append(transcript.Entry{
			Role: transcript.RoleBot,
			Kind: transcript.KindBookingChoice,
			Data: bookingChoices,
		})
		return Form{}, true
	}

	m.sink.AppendBotText(NewBookingIntro)
	return m.createLocked(nil), false
}

func (m *Manager) Choose(choice Choice) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch choice {
	case ChoiceEdit:
		m.expireLocked()
		m.sink.AppendBotText(EditBookingIntro)
		return m.createLocked(m.current), nil
	case ChoiceNew:
		m.expireLocked()
		m.sink.AppendBotText(AnotherBookingIntro)
		return m.createLocked(nil), nil
	default:
		return Form{}, chaterrors.ErrUnknownChoice
	}
}

func (m *Manager) HasExistingBooking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasExisting
}

// Active returns a copy of the active draft, if any.
func (m *Manager) Active() (Form, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Form{}, false
	}
	return *m.active, true
}

// Current returns the last confirmed booking, used to prefill the edit path.
func (m *Manager) Current() *model.BookingDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

func (m *Manager) closeDisclaimerLocked(confirmed bool) {
	if m.disclaimerSeq == 0 {
		return
	}
	m.sink.Update(m.disclaimerSeq, func(e *transcript.Entry) {
		if view, ok := e.Data.(DisclaimerView); ok {
			view.Dismissed = !confirmed
			view.Confirmed = confirmed
			e.Data = view
		}
	})
	m.disclaimerSeq = 0
}
