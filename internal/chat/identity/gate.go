package identity

import (
	"context"
	"fmt"
	"sync"

	chaterrors "storagechat/internal/chat/errors"
	"storagechat/internal/chat/transcript"
	"storagechat/internal/chat/validator"
	"storagechat/pkg/logger"
	"storagechat/pkg/model"
	"storagechat/pkg/sanitizer"
)

const GuidanceMessage = "Please provide your name and email first."

func WelcomeMessage(name string) string {
	return fmt.Sprintf("Hello %s! I'm here to help you with information about our storage units. How can I assist you today?", name)
}

type Sink interface {
	Append(e transcript.Entry) transcript.Entry
	AppendBotText(text string) transcript.Entry
}

// Gate holds the visitor identity. Nothing else in a session can talk to
// the backend until Submit succeeds, and Submit succeeds at most once.
type Gate struct {
	mu        sync.RWMutex
	identity  model.Identity
	unlocked  bool
	validator *validator.ChatValidator
	sink      Sink
	log       *logger.Logger
}

func NewGate(v *validator.ChatValidator, sink Sink, log *logger.Logger) *Gate {
	return &Gate{
		validator: v,
		sink:      sink,
		log:       log,
	}
}

func (g *Gate) Submit(_ context.Context, name, email string) (model.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.unlocked {
		return g.identity, chaterrors.ErrIdentityLocked
	}

	candidate := model.Identity{
		Name:  sanitizer.NormalizeName(name),
		Email: sanitizer.NormalizeEmail(email),
	}
	if err := g.validator.ValidateIdentity(&candidate); err != nil {
		return model.Identity{}, err
	}

	g.identity = candidate
	g.unlocked = true

	g.sink.AppendBotText(WelcomeMessage(candidate.Name))
	g.sink.Append(transcript.Entry{
		Role: transcript.RoleBot,
		Kind: transcript.KindQuickActions,
		Data: model.QuickActionMenu,
	})

	g.log.Info("Identity accepted", "email_domain", emailDomain(candidate.Email))
	return candidate, nil
}

// Identity returns the captured identity and whether the gate is unlocked.
func (g *Gate) Identity() (model.Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity, g.unlocked
}

func (g *Gate) Unlocked() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.unlocked
}

// Require returns the identity or ErrIdentityRequired.
func (g *Gate) Require() (model.Identity, error) {
	identity, ok := g.Identity()
	if !ok {
		return model.Identity{}, chaterrors.ErrIdentityRequired
	}
	return identity, nil
}

func emailDomain(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return ""
}
