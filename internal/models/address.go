package models

import (
	"strings"

	"github.com/google/uuid"
)

type Address struct {
	id         uuid.UUID
	street1    string
	street2    string
	city       string
	state      string
	postalCode string
	country    string
}

func NewAddress(id uuid.UUID, street1, street2, city, state, postalCode, country string) (Address, error) {
	if id == uuid.Nil {
		return Address{}, NewValidationError("address_id", "must not be empty")
	}
	a := Address{
		id:         id,
		street1:    strings.TrimSpace(street1),
		street2:    strings.TrimSpace(street2),
		city:       strings.TrimSpace(city),
		state:      strings.TrimSpace(state),
		postalCode: strings.TrimSpace(postalCode),
		country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	switch {
	case a.street1 == "":
		return Address{}, NewValidationError("street1", "must not be blank")
	case a.city == "":
		return Address{}, NewValidationError("city", "must not be blank")
	case a.postalCode == "":
		return Address{}, NewValidationError("postal_code", "must not be blank")
	case len(a.country) != 2:
		return Address{}, NewValidationError("country", "must be an alpha-2 country code")
	}
	return a, nil
}

func (a Address) ID() uuid.UUID      { return a.id }
func (a Address) Street1() string    { return a.street1 }
func (a Address) Street2() string    { return a.street2 }
func (a Address) City() string       { return a.city }
func (a Address) State() string      { return a.state }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) Country() string    { return a.country }
