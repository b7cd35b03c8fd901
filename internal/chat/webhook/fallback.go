package webhook

import "math/rand/v2"

const (
	ChatFailureMessage    = "Sorry, I encountered an error. Please try again later."
	ChatEmptyMessage      = "I received an empty response. Please try again."
	BookingEmptyMessage   = "I received an empty response for the booking. Please try again."
	BookingGuidance       = "Please provide your name and email first before we can continue our conversation."
	defaultFallbackNotice = ChatFailureMessage
)

// BookingFallbacks are shown at random when a booking confirmation cannot
// reach the backend.
var BookingFallbacks = []string{
	"Blimey! I'm having a bit of trouble processing your booking right now. I'm either updating my booking system or improving my responses. Give me a tick and try again, mate!",
	"Crikey! I'm away updating my booking resources at the moment. Try again in a sec and I'll get your booking sorted, yeah?",
	"Fair dinkum! I'm having a moment with the booking system. I'm either refreshing my resources or getting better at processing bookings. Hang tight and give it another go!",
	"Stone the flamin' crows! I'm away improving my booking capabilities. Try again in a moment and I'll get your storage unit sorted!",
	"Oh mate, I'm having a bit of trouble with the booking system right now. I'm either updating my resources or improving to better help you. Give me a sec and try again!",
}

// PickFallback returns one message from pool chosen by rnd. An empty pool
// yields the generic failure text.
func PickFallback(pool []string, rnd *rand.Rand) string {
	if len(pool) == 0 {
		return defaultFallbackNotice
	}
	return pool[rnd.IntN(len(pool))]
}
