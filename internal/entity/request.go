package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

func (l Location) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *Location) Scan(value any) error      { return jsonbScan(value, l) }

type Contact struct {
	Person string `json:"person"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

func (c Contact) Value() (driver.Value, error) { return jsonbValue(c) }
func (c *Contact) Scan(value any) error      { return jsonbScan(value, c) }

// AcceptedQuote is the snapshot copied onto a request when one of its quotes is accepted.
type AcceptedQuote struct {
	QuoteId      string          `json:"quoteId"`
	ProviderId   string          `json:"providerId"`
	ProviderName string          `json:"providerName"`
	Price        decimal.Decimal `json:"price"`
	AcceptedAt   time.Time       `json:"acceptedAt"`
}

func (a AcceptedQuote) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *AcceptedQuote) Scan(value any) error      { return jsonbScan(value, a) }

// db model
type Request struct {
	Id               uuid.UUID           `json:"id" db:"id"`
	Title            string              `json:"title" db:"title"`
	Description      string              `json:"description" db:"description"`
	ServiceType      string              `json:"serviceType" db:"service_type"`
	Priority         string              `json:"priority" db:"priority"`
	Status           string              `json:"status" db:"status"`
	Location         Location            `json:"location" db:"location"`
	BudgetAmount     decimal.NullDecimal `json:"budgetAmount" db:"budget_amount"`
	BudgetCurrency   string              `json:"budgetCurrency" db:"budget_currency"`
	Contact          Contact             `json:"contact" db:"contact"`
	Files            []string            `json:"files" db:"files"`
	CreatedBy        uuid.UUID           `json:"createdBy" db:"created_by"`
	ProviderAssigned bool                `json:"providerAssigned" db:"provider_assigned"`
	ProviderId       uuid.NullUUID       `json:"providerId" db:"provider_id"`
	AcceptedQuoteId  uuid.NullUUID       `json:"acceptedQuoteId" db:"accepted_quote_id"`
	AcceptedQuote    *AcceptedQuote      `json:"acceptedQuote" db:"accepted_quote"`
	Rating           *int                `json:"rating" db:"rating"`
	Review           string              `json:"review" db:"review"`
	RatedAt          *time.Time          `json:"ratedAt" db:"rated_at"`
	CreatedAt        time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time           `json:"updatedAt" db:"updated_at"`
	CompletedAt      *time.Time          `json:"completedAt" db:"completed_at"`
	CancelledAt      *time.Time          `json:"cancelledAt" db:"cancelled_at"`
}

// service input model
type CreateRequestInput struct {
	OwnerId        string               // given, from the authenticated actor
	Title          string               // given
	Description    string               // given
	ServiceType    string               // given
	Priority       string               // given
	Location       Location             // given
	BudgetAmount   *decimal.Decimal     // optional
	BudgetCurrency string               // optional, defaults to EUR
	Contact        Contact              // given
	Files          []string             // optional
	// Status sets automatically: "pending"
	// Id, CreatedAt, UpdatedAt set automatically
}

// UpdateRequestInput carries the fields to merge into an existing request. Nil fields are kept.
type UpdateRequestInput struct {
	Title          *string
	Description    *string
	ServiceType    *string
	Priority       *string
	Location       *Location
	BudgetAmount   *decimal.Decimal
	BudgetCurrency *string
	Contact        *Contact
	Files          *[]string
}

func (in *UpdateRequestInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.ServiceType == nil && in.Priority == nil &&
		in.Location == nil && in.BudgetAmount == nil && in.BudgetCurrency == nil && in.Contact == nil && in.Files == nil
}

type BudgetOutputModel struct {
	Amount   decimal.NullDecimal `json:"amount"`
	Currency string              `json:"currency"`
}

// controller model
type RequestOutputModel struct {
	Id               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	ServiceType      string            `json:"serviceType"`
	Priority         string            `json:"priority"`
	Status           string            `json:"status"`
	Location         Location          `json:"location"`
	Budget           BudgetOutputModel `json:"budget"`
	Contact          Contact           `json:"contact"`
	Files            []string          `json:"files"`
	CreatedBy        string            `json:"createdBy"`
	ProviderAssigned bool              `json:"providerAssigned"`
	ProviderId       *string           `json:"providerId"`
	AcceptedQuoteId  *string           `json:"acceptedQuoteId"`
	AcceptedQuote    *AcceptedQuote    `json:"acceptedQuote"`
	Rating           *int              `json:"rating,omitempty"`
	Review           string            `json:"review,omitempty"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
	CompletedAt      *string           `json:"completedAt,omitempty"`
	CancelledAt      *string           `json:"cancelledAt,omitempty"`
}
