package transcript

import (
	"sync"
	"time"

	"storagechat/internal/chat/render"
	"storagechat/internal/chat/status"

	"github.com/microcosm-cc/bluemonday"
)

type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

type Kind string

const (
	KindText          Kind = "text"
	KindHTML          Kind = "html"
	KindQuickActions  Kind = "quick_actions"
	KindBookingForm   Kind = "booking_form"
	KindBookingChoice Kind = "booking_choice"
	KindDisclaimer    Kind = "disclaimer"
	KindGallery       Kind = "gallery"
	KindWaitlist      Kind = "waitlist"
)

// Entry is one bubble. Seq fixes its position; Rev changes whenever the
// entry is rewritten in place, so pollers can pick up expired forms.
type Entry struct {
	Seq       int64          `json:"seq"`
	Rev       int64          `json:"rev"`
	Role      Role           `json:"role"`
	Kind      Kind           `json:"kind"`
	Content   string         `json:"content,omitempty"`
	Variant   render.Variant `json:"variant,omitempty"`
	FormID    string         `json:"formId,omitempty"`
	Data      any            `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Indicator struct {
	Phase status.Phase `json:"phase"`
	Text  string       `json:"text"`
}

type Page struct {
	Entries   []Entry    `json:"entries"`
	Rev       int64      `json:"rev"`
	Indicator *Indicator `json:"indicator"`
}

// Transcript is the render sink for one session: an ordered list of
// entries plus the single inline indicator slot.
type Transcript struct {
	mu        sync.RWMutex
	entries   []Entry
	rev       int64
	indicator *Indicator
	policy    *bluemonday.Policy
	now       func() time.Time
}

func New() *Transcript {
	return &Transcript{
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

func (t *Transcript) Append(e Entry) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rev++
	e.Seq = int64(len(t.entries)) + 1
	e.Rev = t.rev
	e.CreatedAt = t.now()
	t.entries = append(t.entries, e)
	return e
}

// AppendUser stores visitor text with all markup stripped.
func (t *Transcript) AppendUser(text string) Entry {
	return t.Append(Entry{
		Role:    RoleUser,
		Kind:    KindText,
		Content: t.policy.Sanitize(text),
	})
}

func (t *Transcript) AppendBotText(text string) Entry {
	return t.Append(Entry{
		Role:    RoleBot,
		Kind:    KindText,
		Content: text,
	})
}

func (t *Transcript) AppendBotHTML(tagged render.Tagged) Entry {
	return t.Append(Entry{
		Role:    RoleBot,
		Kind:    KindHTML,
		Content: tagged.HTML,
		Variant: tagged.Variant,
	})
}

// Update rewrites the entry at seq in place. It reports false for an
// unknown seq.
func (t *Transcript) Update(seq int64, fn func(e *Entry)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq < 1 || seq > int64(len(t.entries)) {
		return false
	}
	e := &t.entries[seq-1]
	fn(e)
	t.rev++
	e.Seq = seq
	e.Rev = t.rev
	return true
}

func (t *Transcript) ShowIndicator(phase status.Phase, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indicator = &Indicator{Phase: phase, Text: text}
}

func (t *Transcript) RemoveIndicator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indicator = nil
}

func (t *Transcript) Indicator() *Indicator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.indicator == nil {
		return nil
	}
	ind := *t.indicator
	return &ind
}

// Since returns entries created or rewritten after rev, in display order.
func (t *Transcript) Since(rev int64) Page {
	t.mu.RLock()
	defer t.mu.RUnlock()

	page := Page{Entries: []Entry{}, Rev: t.rev}
	for _, e := range t.entries {
		if e.Rev > rev {
			page.Entries = append(page.Entries, e)
		}
	}
	if t.indicator != nil {
		ind := *t.indicator
		page.Indicator = &ind
	}
	return page
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of every entry.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
