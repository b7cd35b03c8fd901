package model

// Identity is the visitor captured by the gate form. It is set once per
// session and never changes afterwards.
type Identity struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

func (i Identity) IsZero() bool {
	return i.Name == "" && i.Email == ""
}
