package entity

import (
	"time"

	"github.com/google/uuid"
)

// db model
type User struct {
	Id            uuid.UUID `json:"id" db:"id"`
	DisplayName   string    `json:"displayName" db:"display_name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Role          string    `json:"role" db:"role"`
	ServiceType   string    `json:"serviceType" db:"service_type"`
	Services      []string  `json:"services" db:"services"`
	ServiceArea   string    `json:"serviceArea" db:"service_area"`
	City          string    `json:"city" db:"city"`
	PushTokens    []string  `json:"pushTokens" db:"push_tokens"`
	RatingAverage float64   `json:"ratingAverage" db:"rating_average"`
	RatingCount   int       `json:"ratingCount" db:"rating_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// ProviderRating is one rating left by an order giver on a completed request.
type ProviderRating struct {
	Id         uuid.UUID `json:"id" db:"id"`
	ProviderId uuid.UUID `json:"providerId" db:"provider_id"`
	RequestId  uuid.UUID `json:"requestId" db:"request_id"`
	AuthorId   uuid.UUID `json:"authorId" db:"author_id"`
	Rating     int       `json:"rating" db:"rating"`
	Review     string    `json:"review" db:"review"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// controller model
type ProviderOutputModel struct {
	Id            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	Role          string   `json:"role"`
	ServiceType   string   `json:"serviceType,omitempty"`
	Services      []string `json:"services,omitempty"`
	ServiceArea   string   `json:"serviceArea,omitempty"`
	City          string   `json:"city,omitempty"`
	RatingAverage float64  `json:"ratingAverage"`
	RatingCount   int      `json:"ratingCount"`
}
