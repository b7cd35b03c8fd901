package model

// BookingDraft holds the values of a submitted booking form. Amounts stay in
// their submitted decimal text form so the backend receives exactly what the
// visitor typed.
type BookingDraft struct {
	Facility       string `json:"facility" validate:"required,facility"`
	Unit           string `json:"unit" validate:"required,max=32"`
	Bond           string `json:"bond" validate:"required,amount"`
	Monthly        string `json:"monthly" validate:"required,amount"`
	LeaseStartDate string `json:"leaseStartDate" validate:"required,datetime=2006-01-02"`
}

// EmptyBooking is sent when a confirmation fires without a stored draft.
func EmptyBooking() BookingDraft {
	return BookingDraft{}
}

func (b *BookingDraft) Clone() *BookingDraft {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
