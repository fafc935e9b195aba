package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{M}0-9_-]+$`)

type Username struct {
	display string
}

func NewUsername(name string) (Username, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 20 {
		return Username{}, NewValidationError("username", "must be between 2 and 20 characters long")
	}
	if !usernamePattern.MatchString(name) {
		return Username{}, NewValidationError("username", "may only contain letters, digits, hyphens and underscores")
	}
	return Username{display: name}, nil
}

func (u Username) Display() string { return u.display }
