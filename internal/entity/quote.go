package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// db model
type Quote struct {
	Id               uuid.UUID       `json:"id" db:"id"`
	RequestId        uuid.UUID       `json:"requestId" db:"request_id"`
	ProviderId       uuid.UUID       `json:"providerId" db:"provider_id"`
	ClientId         uuid.UUID       `json:"clientId" db:"client_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Currency         string          `json:"currency" db:"currency"`
	Duration         string          `json:"duration" db:"duration"`
	Note             string          `json:"note" db:"note"`
	Package          string          `json:"package" db:"package"`
	DeliverySpeed    string          `json:"deliverySpeed" db:"delivery_speed"`
	Revisions        int             `json:"revisions" db:"revisions"`
	IncludeMaterials bool            `json:"includeMaterials" db:"include_materials"`
	Attachments      []string        `json:"attachments" db:"attachments"`
	Status           string          `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// service input model
type CreateQuoteInput struct {
	ProviderId       string          // given, from the authenticated actor
	RequestId        string          // given
	Amount           decimal.Decimal // given, >= 0
	Currency         string          // optional, defaults to EUR
	Duration         string
	Note             string
	Package          string
	DeliverySpeed    string
	Revisions        int
	IncludeMaterials bool
	Attachments      []string
	// ClientId is copied from the request owner
	// Status sets automatically: "pending"
}

// controller model
type QuoteOutputModel struct {
	Id               string          `json:"id"`
	RequestId        string          `json:"requestId"`
	ProviderId       string          `json:"providerId"`
	ClientId         string          `json:"clientId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Duration         string          `json:"duration"`
	Note             string          `json:"note"`
	Package          string          `json:"package"`
	DeliverySpeed    string          `json:"deliverySpeed"`
	Revisions        int             `json:"revisions"`
	IncludeMaterials bool            `json:"includeMaterials"`
	Attachments      []string        `json:"attachments"`
	Status           string          `json:"status"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}

// controller model
type AcceptQuoteOutputModel struct {
	Quote   QuoteOutputModel   `json:"quote"`
	Request RequestOutputModel `json:"request"`
	Project ProjectOutputModel `json:"project"`
}
