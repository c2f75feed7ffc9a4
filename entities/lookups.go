package entities

import (
	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/lookup"
)

// Display fallbacks, shown wherever a reference cannot be resolved.
const (
	UnknownCompany = "Unknown Company"
	UnknownContact = "Unknown Contact"
)

// CompanyDirectory resolves company references to display attributes. Build a
// fresh directory whenever the company collection changes; it is a snapshot
// index, not a live view.
type CompanyDirectory struct {
	index *lookup.Index[Company]
}

// NewCompanyDirectory indexes a snapshot of the company collection.
func NewCompanyDirectory(companies []Company) *CompanyDirectory {
	return &CompanyDirectory{
		index: lookup.Build(companies, func(c Company) identity.Ref { return c.ID }),
	}
}

// Get returns the referenced company, if it existed at build time.
func (d *CompanyDirectory) Get(ref identity.Ref) (Company, bool) {
	return d.index.Get(ref)
}

// Name returns the referenced company's name, or "Unknown Company".
func (d *CompanyDirectory) Name(ref identity.Ref) string {
	return d.index.Display(ref, func(c Company) string { return c.Name }, UnknownCompany)
}

// Abbreviation returns the referenced company's abbreviation, or
// "Unknown Company".
func (d *CompanyDirectory) Abbreviation(ref identity.Ref) string {
	return d.index.Display(ref, func(c Company) string { return c.Abbreviation }, UnknownCompany)
}

// Size reports how many companies are indexed, for diagnostics.
func (d *CompanyDirectory) Size() int { return d.index.Size() }

// ContactDirectory resolves contact references to display attributes, with
// the same rebuild-on-change contract as CompanyDirectory.
type ContactDirectory struct {
	index *lookup.Index[Contact]
}

// NewContactDirectory indexes a snapshot of the contact collection.
func NewContactDirectory(contacts []Contact) *ContactDirectory {
	return &ContactDirectory{
		index: lookup.Build(contacts, func(c Contact) identity.Ref { return c.ID }),
	}
}

// Get returns the referenced contact, if it existed at build time.
func (d *ContactDirectory) Get(ref identity.Ref) (Contact, bool) {
	return d.index.Get(ref)
}

// FullName returns the referenced contact's full name, composed from first
// and last name when the backend has not computed one, or "Unknown Contact".
func (d *ContactDirectory) FullName(ref identity.Ref) string {
	contact, ok := d.index.Get(ref)
	if !ok {
		return UnknownContact
	}
	if contact.FullName != "" {
		return contact.FullName
	}
	name := contact.FirstName + " " + contact.LastName
	if name == " " {
		return UnknownContact
	}
	return name
}

// Email returns the referenced contact's email, or "Unknown Contact".
func (d *ContactDirectory) Email(ref identity.Ref) string {
	return d.index.Display(ref, func(c Contact) string { return c.Email }, UnknownContact)
}

// Size reports how many contacts are indexed, for diagnostics.
func (d *ContactDirectory) Size() int { return d.index.Size() }
