package entities

import "strings"

// ValidationErrors accumulates every rule an entity breaks so the UI can show
// all of them at once instead of failing on the first.
type ValidationErrors []string

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// orNil returns nil for an empty list so callers can test err == nil.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Validate checks the project's declarative field rules.
func (p Project) Validate() error {
	var errs ValidationErrors
	if p.Name == "" {
		errs = append(errs, "project name cannot be empty")
	}
	if p.Number.Year < 20 || p.Number.Year > 50 {
		errs = append(errs, "year must be between 20 and 50")
	}
	if p.Number.Seq < 1 || p.Number.Seq > 999 {
		errs = append(errs, "sequence must be between 1 and 999")
	}
	return errs.orNil()
}

// Validate checks the fee proposal's declarative field rules.
func (r Rfp) Validate() error {
	var errs ValidationErrors
	if r.Name == "" {
		errs = append(errs, "RFP name cannot be empty")
	}
	if !isSixDigits(r.IssueDate) {
		errs = append(errs, "issue date must be 6 digits in YYMMDD format")
	}
	return errs.orNil()
}

// Validate checks the company's declarative field rules.
func (c Company) Validate() error {
	var errs ValidationErrors
	if c.Name == "" {
		errs = append(errs, "company name cannot be empty")
	}
	return errs.orNil()
}

// Validate checks the contact's declarative field rules.
func (c Contact) Validate() error {
	var errs ValidationErrors
	if !strings.Contains(c.Email, "@") {
		errs = append(errs, "invalid email format")
	}
	if c.Phone == "" || !strings.Contains(c.Phone, "+") {
		errs = append(errs, "phone must contain '+' and not be empty")
	}
	return errs.orNil()
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
