package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records a processed payment-success callback, keyed by the gateway payment id.
type Payment struct {
	Id        string          `json:"id" db:"id"`
	QuoteId   uuid.UUID       `json:"quoteId" db:"quote_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    string          `json:"status" db:"status"`
	Simulated bool            `json:"simulated" db:"simulated"`
	InvoiceId uuid.NullUUID   `json:"invoiceId" db:"invoice_id"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// service input model
type PaymentResultInput struct {
	Id        string // gateway payment id
	QuoteId   string
	Amount    int64 // smallest currency unit
	Status    string
	Simulated bool
}

// controller model
type PaymentIntentOutputModel struct {
	PaymentId    string `json:"paymentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Simulated    bool   `json:"simulated"`
}

// controller model
type CheckoutOutputModel struct {
	PaymentId string              `json:"paymentId"`
	Replayed  bool                `json:"replayed"`
	Quote     *QuoteOutputModel   `json:"quote,omitempty"`
	Invoice   *InvoiceOutputModel `json:"invoice,omitempty"`
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	CascadesRepaired    int `json:"cascadesRepaired"`
	AcceptancesRepaired int `json:"acceptancesRepaired"`
	DocumentsRetried    int `json:"documentsRetried"`
	Failures            int `json:"failures"`
}

// PaymentIntentParams is what the payment gateway needs to open an intent.
type PaymentIntentParams struct {
	QuoteId   string
	Amount    int64 // smallest currency unit
	Currency  string
	MethodRef string
}

// PaymentIntent is the gateway's answer to an intent request.
type PaymentIntent struct {
	Id           string
	ClientSecret string
	Simulated    bool
}
