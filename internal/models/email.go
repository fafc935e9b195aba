package models

import "strings"

// Email only rejects blank input. Deliverability is confirmed by the
// identity provider, not here.
type Email struct {
	address string
}

func NewEmail(address string) (Email, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Email{}, NewValidationError("email", "must not be blank")
	}
	return Email{address: address}, nil
}

func (e Email) String() string { return e.address }
