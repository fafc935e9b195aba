package models

import (
	"strings"
	"unicode/utf8"
)

const identitySubjectLength = 24

// IdentityRef is the external identity provider's reference for a user,
// formatted as provider|subject.
type IdentityRef struct {
	provider string
	subject  string
}

func NewIdentityRef(raw string) (IdentityRef, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return IdentityRef{}, NewValidationError("identity_ref", "must have the form provider|subject")
	}
	provider, subject := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if provider == "" {
		return IdentityRef{}, NewValidationError("identity_ref", "provider is empty")
	}
	if utf8.RuneCountInString(subject) != identitySubjectLength {
		return IdentityRef{}, NewValidationError("identity_ref", "subject must be exactly 24 characters")
	}
	return IdentityRef{provider: provider, subject: subject}, nil
}

func (r IdentityRef) Provider() string { return r.provider }

func (r IdentityRef) Subject() string { return r.subject }

func (r IdentityRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.provider + "|" + r.subject
}

func (r IdentityRef) IsZero() bool {
	return r.provider == "" && r.subject == ""
}
