package entities

import (
	"time"

	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/query"
)

// NewProjectStore wires a synchronization store for projects: free-text
// search over names, location, and the rendered project number; filters and
// sorts over the lifecycle fields.
func NewProjectStore(backend entitystore.Backend[Project], opts entitystore.Options) *entitystore.Store[Project] {
	engine := query.NewEngine(query.Config[Project]{
		SearchFields: []query.Field[Project]{
			func(p Project) string { return p.Name },
			func(p Project) string { return p.NameShort },
			func(p Project) string { return p.City },
			func(p Project) string { return p.Country },
			func(p Project) string { return p.Number.ID },
		},
		Filters: map[string]query.Field[Project]{
			"status":   func(p Project) string { return p.Status },
			"stage":    func(p Project) string { return p.Stage },
			"activity": func(p Project) string { return p.Activity },
			"country":  func(p Project) string { return p.Country },
		},
		SortFields: map[string]query.Field[Project]{
			"name":    func(p Project) string { return p.Name },
			"number":  func(p Project) string { return p.Number.ID },
			"city":    func(p Project) string { return p.City },
			"country": func(p Project) string { return p.Country },
			"status":  func(p Project) string { return p.Status },
		},
		UpdatedAt: func(p Project) time.Time { return p.Time.UpdatedAt },
		CreatedAt: func(p Project) time.Time { return p.Time.CreatedAt },
	})
	return entitystore.New[Project](backend, entitystore.Accessors[Project]{
		Ref:    func(p Project) identity.Ref { return p.ID },
		SetRef: func(p Project, r identity.Ref) Project { p.ID = r; return p },
	}, engine, opts)
}

// NewRfpStore wires a synchronization store for fee proposals.
func NewRfpStore(backend entitystore.Backend[Rfp], opts entitystore.Options) *entitystore.Store[Rfp] {
	engine := query.NewEngine(query.Config[Rfp]{
		SearchFields: []query.Field[Rfp]{
			func(r Rfp) string { return r.Name },
			func(r Rfp) string { return r.Number },
			func(r Rfp) string { return r.StrapLine },
			func(r Rfp) string { return r.StaffName },
		},
		Filters: map[string]query.Field[Rfp]{
			"status": func(r Rfp) string { return r.Status },
			"stage":  func(r Rfp) string { return r.Stage },
		},
		SortFields: map[string]query.Field[Rfp]{
			"name":       func(r Rfp) string { return r.Name },
			"number":     func(r Rfp) string { return r.Number },
			"issue_date": func(r Rfp) string { return r.IssueDate },
			"status":     func(r Rfp) string { return r.Status },
		},
		UpdatedAt: func(r Rfp) time.Time { return r.Time.UpdatedAt },
		CreatedAt: func(r Rfp) time.Time { return r.Time.CreatedAt },
	})
	return entitystore.New[Rfp](backend, entitystore.Accessors[Rfp]{
		Ref:    func(r Rfp) identity.Ref { return r.ID },
		SetRef: func(r Rfp, ref identity.Ref) Rfp { r.ID = ref; return r },
	}, engine, opts)
}

// NewCompanyStore wires a synchronization store for companies.
func NewCompanyStore(backend entitystore.Backend[Company], opts entitystore.Options) *entitystore.Store[Company] {
	engine := query.NewEngine(query.Config[Company]{
		SearchFields: []query.Field[Company]{
			func(c Company) string { return c.Name },
			func(c Company) string { return c.NameShort },
			func(c Company) string { return c.Abbreviation },
			func(c Company) string { return c.City },
		},
		Filters: map[string]query.Field[Company]{
			"country": func(c Company) string { return c.Country },
			"city":    func(c Company) string { return c.City },
		},
		SortFields: map[string]query.Field[Company]{
			"name":         func(c Company) string { return c.Name },
			"abbreviation": func(c Company) string { return c.Abbreviation },
			"city":         func(c Company) string { return c.City },
			"country":      func(c Company) string { return c.Country },
		},
		UpdatedAt: func(c Company) time.Time { return c.Time.UpdatedAt },
		CreatedAt: func(c Company) time.Time { return c.Time.CreatedAt },
	})
	return entitystore.New[Company](backend, entitystore.Accessors[Company]{
		Ref:    func(c Company) identity.Ref { return c.ID },
		SetRef: func(c Company, r identity.Ref) Company { c.ID = r; return c },
	}, engine, opts)
}

// NewContactStore wires a synchronization store for contacts.
func NewContactStore(backend entitystore.Backend[Contact], opts entitystore.Options) *entitystore.Store[Contact] {
	engine := query.NewEngine(query.Config[Contact]{
		SearchFields: []query.Field[Contact]{
			func(c Contact) string { return c.FirstName },
			func(c Contact) string { return c.LastName },
			func(c Contact) string { return c.Email },
			func(c Contact) string { return c.Position },
		},
		Filters: map[string]query.Field[Contact]{
			"position": func(c Contact) string { return c.Position },
			"company":  func(c Contact) string { return c.Company.String() },
		},
		SortFields: map[string]query.Field[Contact]{
			"first_name": func(c Contact) string { return c.FirstName },
			"last_name":  func(c Contact) string { return c.LastName },
			"email":      func(c Contact) string { return c.Email },
		},
		UpdatedAt: func(c Contact) time.Time { return c.Time.UpdatedAt },
		CreatedAt: func(c Contact) time.Time { return c.Time.CreatedAt },
	})
	return entitystore.New[Contact](backend, entitystore.Accessors[Contact]{
		Ref:    func(c Contact) identity.Ref { return c.ID },
		SetRef: func(c Contact, r identity.Ref) Contact { c.ID = r; return c },
	}, engine, opts)
}
