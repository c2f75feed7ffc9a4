package entities

import (
	"time"

	"github.com/newillusions/e-fees-sub005/identity"
)

// Project lifecycle enumerations, persisted as their display strings.
const (
	ActivityDesignAndConsultancy = "Design and Consultancy"
	ActivityManagement           = "Management"
	ActivityConstruction         = "Construction"
	ActivityMaintenance          = "Maintenance"
	ActivityResearch             = "Research"
	ActivityOther                = "Other"
)

const (
	ProjectStatusDraft     = "Draft"
	ProjectStatusRFP       = "RFP"
	ProjectStatusActive    = "Active"
	ProjectStatusOnHold    = "On Hold"
	ProjectStatusCompleted = "Completed"
	ProjectStatusCancelled = "Cancelled"
)

const (
	ProjectStageConcept           = "Concept"
	ProjectStageDesignDevelopment = "Design Development"
	ProjectStageDocumentation     = "Documentation"
	ProjectStageTender            = "Tender"
	ProjectStageConstruction      = "Construction"
	ProjectStageHandover          = "Handover"
)

const (
	RfpStatusDraft     = "Draft"
	RfpStatusActive    = "Active"
	RfpStatusSent      = "Sent"
	RfpStatusAwarded   = "Awarded"
	RfpStatusLost      = "Lost"
	RfpStatusCancelled = "Cancelled"
)

const (
	RfpStageDraft         = "Draft"
	RfpStagePrepared      = "Prepared"
	RfpStageSent          = "Sent"
	RfpStageUnderReview   = "Under Review"
	RfpStageClarification = "Clarification"
	RfpStageNegotiation   = "Negotiation"
	RfpStageAwarded       = "Awarded"
	RfpStageLost          = "Lost"
)

// TimeInfo carries the backend-maintained timestamps of a record.
type TimeInfo struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision is one entry of an RFP's revision history.
type Revision struct {
	RevisionNumber int       `json:"revision_number"`
	RevisionDate   time.Time `json:"revision_date"`
	AuthorEmail    string    `json:"author_email"`
	AuthorName     string    `json:"author_name"`
	Notes          string    `json:"notes"`
}

// Project is a commissioned piece of work, numbered per year and country.
type Project struct {
	ID        identity.Ref  `json:"id"`
	Name      string        `json:"name"`
	NameShort string        `json:"name_short"`
	Activity  string        `json:"activity"`
	Package   string        `json:"package"`
	Status    string        `json:"status"`
	Stage     string        `json:"stage"`
	Area      string        `json:"area"`
	City      string        `json:"city"`
	Country   string        `json:"country"`
	Folder    string        `json:"folder"`
	Number    ProjectNumber `json:"number"`
	Time      TimeInfo      `json:"time"`
}

// Rfp is a fee proposal issued against a project to a company contact.
type Rfp struct {
	ID            identity.Ref `json:"id"`
	Name          string       `json:"name"`
	Number        string       `json:"number"`
	ProjectID     identity.Ref `json:"project_id"`
	CompanyID     identity.Ref `json:"company_id"`
	ContactID     identity.Ref `json:"contact_id"`
	Status        string       `json:"status"`
	Stage         string       `json:"stage"`
	IssueDate     string       `json:"issue_date"` // YYMMDD
	Activity      string       `json:"activity,omitempty"`
	Package       string       `json:"package,omitempty"`
	StrapLine     string       `json:"strap_line,omitempty"`
	StaffName     string       `json:"staff_name,omitempty"`
	StaffEmail    string       `json:"staff_email,omitempty"`
	StaffPhone    string       `json:"staff_phone,omitempty"`
	StaffPosition string       `json:"staff_position,omitempty"`
	Rev           int          `json:"rev,omitempty"`
	Revisions     []Revision   `json:"revisions"`
	Time          TimeInfo     `json:"time"`
}

// Company is a client or partner organisation.
type Company struct {
	ID           identity.Ref `json:"id"`
	Name         string       `json:"name"`
	NameShort    string       `json:"name_short"`
	Abbreviation string       `json:"abbreviation"`
	City         string       `json:"city"`
	Country      string       `json:"country"`
	RegNo        string       `json:"reg_no,omitempty"`
	TaxNo        string       `json:"tax_no,omitempty"`
	Time         TimeInfo     `json:"time"`
}

// Contact is a person at a company.
type Contact struct {
	ID        identity.Ref `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Position  string       `json:"position"`
	Company   identity.Ref `json:"company"`
	FullName  string       `json:"full_name,omitempty"`
	Time      TimeInfo     `json:"time"`
}

// Country is reference data used for project numbering and addresses.
type Country struct {
	ID           identity.Ref `json:"id"`
	Name         string       `json:"name"`
	NameFormal   string       `json:"name_formal"`
	NameOfficial string       `json:"name_official"`
	Code         string       `json:"code"`
	CodeAlt      string       `json:"code_alt"`
	DialCode     uint         `json:"dial_code"`
	CurrencyCode identity.Ref `json:"currency_code"`
}

// Currency is reference data.
type Currency struct {
	ID   identity.Ref `json:"id"`
	Code string       `json:"code"`
	Name string       `json:"name"`
}
