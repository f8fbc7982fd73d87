// ABOUTME: Data models for workspace entities
// ABOUTME: Defines Contact, Company, Deal plus their detail projections and form inputs
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityKind discriminates the three first-class record types.
type EntityKind string

const (
	EntityContact EntityKind = "contact"
	EntityCompany EntityKind = "company"
	EntityDeal    EntityKind = "deal"
)

// Label returns the human-facing name used in notifications.
func (k EntityKind) Label() string {
	switch k {
	case EntityContact:
		return "Contact"
	case EntityCompany:
		return "Company"
	case EntityDeal:
		return "Deal"
	}
	return "Record"
}

// Contact statuses.
const (
	ContactStatusLead      = "lead"
	ContactStatusProspect  = "prospect"
	ContactStatusQualified = "qualified"
	ContactStatusCustomer  = "customer"
	ContactStatusChurned   = "churned"
)

var ContactStatuses = []string{
	ContactStatusLead,
	ContactStatusProspect,
	ContactStatusQualified,
	ContactStatusCustomer,
	ContactStatusChurned,
}

// Company statuses.
const (
	CompanyStatusProspect  = "prospect"
	CompanyStatusQualified = "qualified"
	CompanyStatusCustomer  = "customer"
	CompanyStatusChurned   = "churned"
)

var CompanyStatuses = []string{
	CompanyStatusProspect,
	CompanyStatusQualified,
	CompanyStatusCustomer,
	CompanyStatusChurned,
}

// Company size buckets.
var CompanySizes = []string{"1-10", "11-50", "51-200", "201-1000", "1000+"}

// Deal stages, in pipeline order.
const (
	StageDiscovery     = "discovery"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// StageOrder is the fixed, totally ordered stage taxonomy.
var StageOrder = []string{
	StageDiscovery,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// OpenStages are the stages available for manual entry on the form.
var OpenStages = []string{
	StageDiscovery,
	StageQualification,
	StageProposal,
	StageNegotiation,
}

// Deal statuses. Stored independently of stage but re-aligned on every write.
const (
	DealStatusOpen = "open"
	DealStatusWon  = "won"
	DealStatusLost = "lost"
)

// IsValidStage reports whether stage belongs to the fixed taxonomy.
func IsValidStage(stage string) bool {
	for _, s := range StageOrder {
		if stage == s {
			return true
		}
	}
	return false
}

// StatusForStage maps a stage to its aligned deal status.
func StatusForStage(stage string) string {
	switch stage {
	case StageClosedWon:
		return DealStatusWon
	case StageClosedLost:
		return DealStatusLost
	}
	return DealStatusOpen
}

type Contact struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status"`
	Score     *int       `json:"score,omitempty"`
	LinkedIn  string     `json:"linkedin,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	// CompanyName is populated only when the fetch joined the company row.
	CompanyName string    `json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName is the trimmed first/last concatenation, "Unknown" when both are empty.
func (c *Contact) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return "Unknown"
	}
	return name
}

// ContactDetail is the relation-inclusive projection returned by detail fetches.
// Engagement counters are never part of the list shape.
type ContactDetail struct {
	Contact
	OpenCount     int `json:"open_count"`
	ResponseCount int `json:"response_count"`
	ClickCount    int `json:"click_count"`
}

type Company struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Domain   string    `json:"domain,omitempty"`
	Industry string    `json:"industry,omitempty"`
	Size     string    `json:"size,omitempty"`
	Status   string    `json:"status"`
	Website  string    `json:"website,omitempty"`
	City     string    `json:"city,omitempty"`
	State    string    `json:"state,omitempty"`
	Score    *int      `json:"score,omitempty"`
	// Summary counts supplied by the list fetch, not a live relation.
	ContactCount int       `json:"contacts"`
	DealCount    int       `json:"deals"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompanyDetail carries bounded previews of the actual relations.
type CompanyDetail struct {
	Company
	Contacts   []Contact `json:"related_contacts,omitempty"`
	Deals      []Deal    `json:"related_deals,omitempty"`
	TotalValue float64   `json:"total_value"`
}

type Deal struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Value             *float64   `json:"value,omitempty"`
	Stage             string     `json:"stage"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	Status            string     `json:"status"`
	CompanyID         *uuid.UUID `json:"company_id,omitempty"`
	CompanyName       string     `json:"company_name,omitempty"`
	ContactID         *uuid.UUID `json:"primary_contact_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DealDetail resolves the weak primary contact reference.
type DealDetail struct {
	Deal
	PrimaryContact *Contact `json:"primary_contact,omitempty"`
}

// ContactInput is the typed form payload for contact create/update.
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Title     string
	Status    string
	LinkedIn  string
	CompanyID *uuid.UUID
}

func (in *ContactInput) Validate() error {
	if in.Status == "" {
		in.Status = ContactStatusLead
	}
	if !contains(ContactStatuses, in.Status) {
		return fmt.Errorf("unknown contact status %q", in.Status)
	}
	return nil
}

// CompanyInput is the typed form payload for company create/update.
type CompanyInput struct {
	Name     string
	Domain   string
	Industry string
	Size     string
	Status   string
	Website  string
	City     string
	State    string
}

func (in *CompanyInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	if in.Status == "" {
		in.Status = CompanyStatusProspect
	}
	if !contains(CompanyStatuses, in.Status) {
		return fmt.Errorf("unknown company status %q", in.Status)
	}
	if in.Size != "" && !contains(CompanySizes, in.Size) {
		return fmt.Errorf("unknown company size %q", in.Size)
	}
	return nil
}

// DealInput is the typed form payload for deal create/update.
type DealInput struct {
	Name              string
	Value             *float64
	Stage             string
	Probability       int
	ExpectedCloseDate *time.Time
	CompanyID         *uuid.UUID
	ContactID         *uuid.UUID
}

func (in *DealInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("deal name is required")
	}
	if in.Stage == "" {
		in.Stage = StageDiscovery
	}
	if !IsValidStage(in.Stage) {
		return fmt.Errorf("invalid stage: %s (valid: %s)", in.Stage, strings.Join(StageOrder, ", "))
	}
	if in.Value != nil && *in.Value < 0 {
		return fmt.Errorf("deal value cannot be negative")
	}
	// Probability bounds are advisory; clamp rather than reject.
	if in.Probability < 0 {
		in.Probability = 0
	}
	if in.Probability > 100 {
		in.Probability = 100
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
