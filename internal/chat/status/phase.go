package status

type Phase int

const (
	Online Phase = iota
	Thinking
	Typing
	AlmostDone
	Offline
)

func (p Phase) String() string {
	switch p {
	case Online:
		return "online"
	case Thinking:
		return "thinking"
	case Typing:
		return "typing"
	case AlmostDone:
		return "almost-done"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Text is the inline indicator label for a narrated phase. Online and
// Offline have none.
func (p Phase) Text() string {
	switch p {
	case Thinking:
		return "Thinking..."
	case Typing:
		return "Typing..."
	case AlmostDone:
		return "Almost done..."
	default:
		return ""
	}
}

func (p Phase) narrated() bool {
	return p == Thinking || p == Typing || p == AlmostDone
}
