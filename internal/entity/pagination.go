package entity

// MaxPageSize caps every listing, also those that ask for no limit.
const MaxPageSize = 100

// PaginationInput selects a window of a listing. A nil *PaginationInput
// means the whole listing, used by internal callers such as subscriptions.
type PaginationInput struct {
	Limit  int
	Offset int
}

// NewPaginationInput clamps limit to 1..MaxPageSize (0 meaning the maximum)
// and offset to >= 0.
func NewPaginationInput(limit int, offset int) *PaginationInput {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return &PaginationInput{
		Limit:  limit,
		Offset: offset,
	}
}
