package models

import (
	"strings"
)

type Name struct {
	first string
	last  string
}

func NewName(first, last string) (Name, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" {
		return Name{}, NewValidationError("first_name", "must not be blank")
	}
	if last == "" {
		return Name{}, NewValidationError("last_name", "must not be blank")
	}
	return Name{first: first, last: last}, nil
}

// NewNameFromFull derives first and last names from a free-form full name.
// Parsing is best effort: parts it cannot determine are left empty and the
// call never fails. The nickname stands in for the first name when the full
// name yields nothing.
func NewNameFromFull(fullName, nickname string) Name {
	first, last := parseHumanName(fullName)
	if first == "" {
		first = strings.TrimSpace(nickname)
	}
	return Name{first: first, last: last}
}

func (n Name) First() string { return n.first }

func (n Name) Last() string { return n.last }

func (n Name) Full() string {
	return strings.TrimSpace(n.first + " " + n.last)
}

func (n Name) Equal(other Name) bool {
	return n.first == other.first && n.last == other.last
}
