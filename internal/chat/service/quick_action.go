package service

import (
	chaterrors "storagechat/internal/chat/errors"
	"storagechat/internal/chat/transcript"
	"storagechat/pkg/model"
)

// runQuickAction expires the active form, flashes a short status, and
// replies once the quick-action delay has passed. Quick actions do not wait
// for an outstanding chat exchange.
func (s *chatService) runQuickAction(sess *Session, action model.QuickAction) error {
	switch action {
	case model.QuickActionVirtualTour:
		if !sess.gate.Unlocked() {
			return chaterrors.ErrIdentityRequired
		}
		s.startQuickAction(sess, flashVirtualTour, func() {
			sess.transcript.AppendBotText(VirtualTourIntro)
			sess.transcript.Append(transcript.Entry{
				Role: transcript.RoleBot,
				Kind: transcript.KindGallery,
				Data: virtualTourGallery,
			})
		})

	case model.QuickActionWaitlist:
		if !sess.gate.Unlocked() {
			return chaterrors.ErrIdentityRequired
		}
		s.startQuickAction(sess, flashWaitlist, func() {
			sess.transcript.AppendBotText(WaitlistIntro)
			sess.transcript.Append(transcript.Entry{
				Role: transcript.RoleBot,
				Kind: transcript.KindWaitlist,
				Data: waitlistCard(s.cfg.WaitlistURL),
			})
		})

	case model.QuickActionBookNow:
		s.startQuickAction(sess, flashBookNow, func() {
			if !sess.gate.Unlocked() {
				sess.transcript.AppendBotText(BookNowGuidance)
				return
			}
			sess.bookings.BookNow()
		})

	default:
		return chaterrors.ErrUnknownQuickAction
	}
	return nil
}

func (s *chatService) startQuickAction(sess *Session, flash string, reply func()) {
	sess.bookings.ExpireActive()
	sess.status.Flash(flash, s.cfg.QuickActionFlash)
	sess.after(s.cfg.QuickActionDelay, func() {
		if !sess.exchanger.InFlight() {
			sess.status.EnterOnline()
		}
		reply()
	})
}
