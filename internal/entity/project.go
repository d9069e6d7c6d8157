package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Photo struct {
	Url        string    `json:"url"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Photos []Photo

func (p Photos) Value() (driver.Value, error) {
	if p == nil {
		return jsonbValue([]Photo{})
	}

	return jsonbValue([]Photo(p))
}

func (p *Photos) Scan(value any) error { return jsonbScan(value, p) }

type Comment struct {
	Text      string    `json:"text"`
	AuthorId  string    `json:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comments []Comment

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		return jsonbValue([]Comment{})
	}

	return jsonbValue([]Comment(c))
}

func (c *Comments) Scan(value any) error { return jsonbScan(value, c) }

// db model
type Project struct {
	Id          uuid.UUID           `json:"id" db:"id"`
	RequestId   uuid.UUID           `json:"requestId" db:"request_id"`
	QuoteId     uuid.UUID           `json:"quoteId" db:"quote_id"`
	ProviderId  uuid.UUID           `json:"providerId" db:"provider_id"`
	ClientId    uuid.UUID           `json:"clientId" db:"client_id"`
	Title       string              `json:"title" db:"title"`
	Description string              `json:"description" db:"description"`
	Status      string              `json:"status" db:"status"`
	Progress    int                 `json:"progress" db:"progress"`
	Photos      Photos              `json:"photos" db:"photos"`
	Comments    Comments            `json:"comments" db:"comments"`
	Budget      decimal.NullDecimal `json:"budget" db:"budget"`
	Currency    string              `json:"currency" db:"currency"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" db:"updated_at"`
	CompletedAt *time.Time          `json:"completedAt" db:"completed_at"`
}

// ProjectUpdatesInput holds the optional extra fields merged by a progress update.
type ProjectUpdatesInput struct {
	Status  *string
	Comment *string
	Photo   *Photo
}

// controller model
type ProjectOutputModel struct {
	Id          string              `json:"id"`
	RequestId   string              `json:"requestId"`
	QuoteId     string              `json:"quoteId"`
	ProviderId  string              `json:"providerId"`
	ClientId    string              `json:"clientId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	Photos      []Photo             `json:"photos"`
	Comments    []Comment           `json:"comments"`
	Budget      decimal.NullDecimal `json:"budget"`
	Currency    string              `json:"currency"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	CompletedAt *string             `json:"completedAt,omitempty"`
}
