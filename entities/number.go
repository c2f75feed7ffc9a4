package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// ProjectNumber is the computed project identifier: two-digit year, country
// dial code, two-digit sequence, rendered as "YY-CCCNN" (e.g. "25-97105").
type ProjectNumber struct {
	Year    uint   `json:"year"`    // 20-50
	Country uint   `json:"country"` // dial code
	Seq     uint   `json:"seq"`     // 1-999
	ID      string `json:"id"`      // computed
}

// NewProjectNumber builds a number with its rendered ID.
func NewProjectNumber(year, country, seq uint) ProjectNumber {
	return ProjectNumber{
		Year:    year,
		Country: country,
		Seq:     seq,
		ID:      fmt.Sprintf("%02d-%d%02d", year, country, seq),
	}
}

// ParseProjectNumber parses a rendered "YY-CCCNN" identifier. The second part
// must be exactly five digits: a three-digit country code followed by a
// two-digit sequence.
func ParseProjectNumber(id string) (ProjectNumber, error) {
	yearPart, rest, found := strings.Cut(id, "-")
	if !found {
		return ProjectNumber{}, fmt.Errorf("invalid project number %q: expected YY-CCCNN", id)
	}

	year, err := strconv.ParseUint(yearPart, 10, 32)
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("invalid project number %q: bad year: %w", id, err)
	}
	if len(rest) != 5 {
		return ProjectNumber{}, fmt.Errorf("invalid project number %q: expected 5-digit country/sequence", id)
	}
	country, err := strconv.ParseUint(rest[:3], 10, 32)
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("invalid project number %q: bad country code: %w", id, err)
	}
	seq, err := strconv.ParseUint(rest[3:], 10, 32)
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("invalid project number %q: bad sequence: %w", id, err)
	}

	return NewProjectNumber(uint(year), uint(country), uint(seq)), nil
}
