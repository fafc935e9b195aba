package models

import (
	"strings"
)

var namePrefixes = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "mx": {}, "dr": {}, "prof": {},
	"sir": {}, "dame": {}, "rev": {}, "fr": {}, "capt": {}, "hon": {},
}

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
	"phd": {}, "md": {}, "esq": {}, "dds": {}, "cpa": {},
}

// Lowercase particles that belong to the surname ("van der Berg").
var surnameParticles = map[string]struct{}{
	"van": {}, "von": {}, "der": {}, "den": {}, "de": {}, "del": {}, "della": {},
	"di": {}, "da": {}, "du": {}, "la": {}, "le": {}, "st": {}, "bin": {}, "al": {},
}

func normalizeNameToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,"))
}

// parseHumanName handles "First Last", "First Middle Last", "Last, First",
// titles, generational suffixes and surname particles. Anything else falls
// back to first token / last token.
func parseHumanName(full string) (first, last string) {
	full = strings.Join(strings.Fields(full), " ")
	if full == "" {
		return "", ""
	}

	if idx := strings.Index(full, ","); idx >= 0 {
		before := strings.TrimSpace(full[:idx])
		after := strings.TrimSpace(full[idx+1:])
		// "Smith, John" but not "John Smith, Jr."
		if after != "" && !isNameSuffix(after) && len(strings.Fields(before)) <= 2 {
			tokens := stripNameAffixes(strings.Fields(after))
			if len(tokens) > 0 {
				return strings.Trim(tokens[0], ","), before
			}
			return "", before
		}
		full = before
	}

	tokens := stripNameAffixes(strings.Fields(full))
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	}

	first = tokens[0]
	lastStart := len(tokens) - 1
	for lastStart > 1 {
		if _, ok := surnameParticles[normalizeNameToken(tokens[lastStart-1])]; !ok {
			break
		}
		lastStart--
	}
	return first, strings.Join(tokens[lastStart:], " ")
}

func stripNameAffixes(tokens []string) []string {
	for len(tokens) > 1 {
		if _, ok := namePrefixes[normalizeNameToken(tokens[0])]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && isNameSuffix(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.Trim(t, ","); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isNameSuffix(tok string) bool {
	_, ok := nameSuffixes[normalizeNameToken(tok)]
	return ok
}
