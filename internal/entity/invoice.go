package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// db model
type Invoice struct {
	Id           uuid.UUID       `json:"id" db:"id"`
	ProjectId    uuid.UUID       `json:"projectId" db:"project_id"`
	ProviderId   uuid.UUID       `json:"providerId" db:"provider_id"`
	OrderGiverId uuid.UUID       `json:"orderGiverId" db:"order_giver_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Currency     string          `json:"currency" db:"currency"`
	Note         string          `json:"note" db:"note"`
	Status       string          `json:"status" db:"status"`
	Date         time.Time       `json:"date" db:"date"`
	InvoiceUrl   string          `json:"invoiceUrl" db:"invoice_url"`
	PaidAt       *time.Time      `json:"paidAt" db:"paid_at"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// InvoiceOverridesInput replaces values that would otherwise come from the project.
type InvoiceOverridesInput struct {
	Amount   *decimal.Decimal
	Currency *string
	Note     *string
}

// InvoiceDocument is everything the PDF renderer needs to lay out an invoice.
type InvoiceDocument struct {
	InvoiceId          string
	IssuedAt           time.Time
	ProviderName       string
	ClientName         string
	ProjectTitle       string
	ProjectDescription string
	Currency           string
	Amount             decimal.Decimal
	Note               string
}

// controller model
type InvoiceOutputModel struct {
	Id           string          `json:"id"`
	ProjectId    string          `json:"projectId"`
	ProviderId   string          `json:"providerId"`
	OrderGiverId string          `json:"orderGiverId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Note         string          `json:"note"`
	Status       string          `json:"status"`
	Date         string          `json:"date"`
	InvoiceUrl   *string         `json:"invoiceUrl"`
	PaidAt       *string         `json:"paidAt,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}
