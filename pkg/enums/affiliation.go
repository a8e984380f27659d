package enums

import "fmt"

// Affiliation identifies the organizational unit (college) a buyer or a
// product's posting owner belongs to. Role-based pricing overrides apply
// only when buyer and owner affiliations match.
type Affiliation string

const (
	AffiliationCEA           Affiliation = "CEA"
	AffiliationCAS           Affiliation = "CAS"
	AffiliationCBA           Affiliation = "CBA"
	AffiliationCON           Affiliation = "CON"
	AffiliationCCS           Affiliation = "CCS"
	AffiliationCED           Affiliation = "CED"
	AffiliationNotApplicable Affiliation = "NOT_APPLICABLE"
)

var validAffiliations = []Affiliation{
	AffiliationCEA,
	AffiliationCAS,
	AffiliationCBA,
	AffiliationCON,
	AffiliationCCS,
	AffiliationCED,
	AffiliationNotApplicable,
}

// String implements fmt.Stringer.
func (a Affiliation) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Affiliation.
func (a Affiliation) IsValid() bool {
	for _, candidate := range validAffiliations {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAffiliation converts raw input into an Affiliation.
func ParseAffiliation(value string) (Affiliation, error) {
	for _, candidate := range validAffiliations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid affiliation %q", value)
}
