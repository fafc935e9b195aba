package models

import "strings"

type BusinessName struct {
	full    string
	display string
}

// NewBusinessName requires the registered full name. The display name is
// optional and stays empty when blank.
func NewBusinessName(full, display string) (BusinessName, error) {
	full = strings.TrimSpace(full)
	if full == "" {
		return BusinessName{}, NewValidationError("business_fullname", "must not be blank")
	}
	return BusinessName{full: full, display: strings.TrimSpace(display)}, nil
}

func (n BusinessName) Full() string { return n.full }

func (n BusinessName) Display() string { return n.display }
