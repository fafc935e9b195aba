package models

import "strings"

// BusinessStructure pairs a legal-structure type code with the ISO 3166
// alpha-2 country it is registered in.
type BusinessStructure struct {
	typeID      int
	countryCode string
}

func NewBusinessStructure(typeID int, countryCode string) (BusinessStructure, error) {
	if typeID <= 0 {
		return BusinessStructure{}, NewValidationError("business_structure_type_id", "must be a positive type code")
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if len(countryCode) != 2 {
		return BusinessStructure{}, NewValidationError("country_code", "must be an alpha-2 country code")
	}
	return BusinessStructure{typeID: typeID, countryCode: countryCode}, nil
}

func (s BusinessStructure) TypeID() int { return s.typeID }

func (s BusinessStructure) CountryCode() string { return s.countryCode }
