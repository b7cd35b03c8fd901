package booking

import (
	"fmt"

	"storagechat/pkg/model"
)

type State string

const (
	StateDraft     State = "draft"
	StateExpired   State = "expired"
	StateSubmitted State = "submitted"
)

type Choice string

const (
	ChoiceEdit Choice = "edit"
	ChoiceNew  Choice = "new"
)

const (
	ExistingBookingPrompt = "I see you already have a booking request. Would you like to edit your existing booking or create a new one?"
	NewBookingIntro       = "Great! I'd be happy to help you book a storage unit. Please fill out the form below with your details."
	EditBookingIntro      = "I'll help you edit your existing booking. Please update the details below."
	AnotherBookingIntro   = "I'll help you create a new booking. Please fill out the details below."

	expiredTitle   = "Form Expired"
	expiredMessage = "This form has expired. Kindly click \"Book Now\" to initiate again."
	draftTitle     = "Book Storage Unit"
	draftMessage   = "Please fill out the details below to book your storage unit"
	submitTitle    = "Booking Submitted"
	submitMessage  = "Your booking request has been submitted successfully!"
)

type Form struct {
	ID      string              `json:"id"`
	State   State               `json:"state"`
	Prefill *model.BookingDraft `json:"prefill,omitempty"`
	Seq     int64               `json:"seq"`
}

// FormView is what a booking form entry shows in the transcript at each
// state.
type FormView struct {
	State      State               `json:"state"`
	Title      string              `json:"title"`
	Message    string              `json:"message"`
	Facilities []string            `json:"facilities,omitempty"`
	Values     *model.BookingDraft `json:"values,omitempty"`
	Summary    []string            `json:"summary,omitempty"`
}

type ChoiceView struct {
	Choices []ChoiceItem `json:"choices"`
}

type ChoiceItem struct {
	Choice Choice `json:"choice"`
	Label  string `json:"label"`
}

var bookingChoices = ChoiceView{Choices: []ChoiceItem{
	{Choice: ChoiceEdit, Label: "Edit Existing Booking"},
	{Choice: ChoiceNew, Label: "Book Another Storage"},
}}

type DisclaimerView struct {
	FormID    string             `json:"formId"`
	Draft     model.BookingDraft `json:"draft"`
	Dismissed bool               `json:"dismissed"`
	Confirmed bool               `json:"confirmed"`
}

func draftView(prefill *model.BookingDraft, facilities []string) FormView {
	return FormView{
		State:      StateDraft,
		Title:      draftTitle,
		Message:    draftMessage,
		Facilities: facilities,
		Values:     prefill,
	}
}

func expiredView() FormView {
	return FormView{
		State:   StateExpired,
		Title:   expiredTitle,
		Message: expiredMessage,
	}
}

func submittedView(d model.BookingDraft) FormView {
	return FormView{
		State:   StateSubmitted,
		Title:   submitTitle,
		Message: submitMessage,
		Values:  &d,
		Summary: Summary(d),
	}
}

// Summary lists the confirmed booking the way the submitted form shows it.
func Summary(d model.BookingDraft) []string {
	return []string{
		fmt.Sprintf("Facility: %s", d.Facility),
		fmt.Sprintf("Unit: %s", d.Unit),
		fmt.Sprintf("Bond: $%s", d.Bond),
		fmt.Sprintf("Monthly: $%s", d.Monthly),
		fmt.Sprintf("Start Date: %s", d.LeaseStartDate),
	}
}
