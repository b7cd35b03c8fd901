package model

type QuickAction string

const (
	QuickActionVirtualTour QuickAction = "virtual-tour"
	QuickActionWaitlist    QuickAction = "waitlist"
	QuickActionBookNow     QuickAction = "book-now"
)

type QuickActionItem struct {
	Action QuickAction `json:"action"`
	Label  string      `json:"label"`
}

// QuickActionMenu is the docked menu shown once the conversation unlocks.
var QuickActionMenu = []QuickActionItem{
	{Action: QuickActionVirtualTour, Label: "Virtual Tour"},
	{Action: QuickActionWaitlist, Label: "Join Waitlist"},
	{Action: QuickActionBookNow, Label: "Book Now"},
}

func ParseQuickAction(s string) (QuickAction, bool) {
	switch QuickAction(s) {
	case QuickActionVirtualTour, QuickActionWaitlist, QuickActionBookNow:
		return QuickAction(s), true
	}
	return "", false
}
