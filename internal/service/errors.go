package service

import "errors"

// Error kinds. Every error returned by a service wraps exactly one of them,
// so callers can branch with errors.Is without knowing the specific cause.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrAuthRequired  = errors.New("authentication required")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidKind   = errors.New("invalid notification kind")
	ErrUploadFailure = errors.New("upload failure")
	ErrInvalidInput  = errors.New("invalid input")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	ErrRequestNotFound      = newError(ErrNotFound, "request not found")
	ErrQuoteNotFound        = newError(ErrNotFound, "quote not found")
	ErrProjectNotFound      = newError(ErrNotFound, "project not found")
	ErrInvoiceNotFound      = newError(ErrNotFound, "invoice not found")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
	ErrUserNotFound         = newError(ErrNotFound, "user not found")

	ErrNoActor = newError(ErrAuthRequired, "no authenticated user")

	ErrNotRequestOwner     = newError(ErrForbidden, "user doesn't own the request")
	ErrNoAccessToRequest   = newError(ErrForbidden, "user has no access to the request")
	ErrNoAccessToQuote     = newError(ErrForbidden, "user has no access to the quote")
	ErrNotQuoteProvider    = newError(ErrForbidden, "only the quote author can do this")
	ErrNoAccessToProject   = newError(ErrForbidden, "user has no access to the project")
	ErrNotProjectProvider  = newError(ErrForbidden, "only the assigned provider can update the project")
	ErrNoAccessToInvoice   = newError(ErrForbidden, "user has no access to the invoice")
	ErrNotInvoicePayer     = newError(ErrForbidden, "only the order giver can pay the invoice")
	ErrNotNotificationUser = newError(ErrForbidden, "notification belongs to another user")
	ErrProviderRequired    = newError(ErrForbidden, "only providers can quote")
	ErrQuoteOwnRequest     = newError(ErrForbidden, "can't quote on your own request")

	ErrRequestNotOpen      = newError(ErrInvalidState, "request doesn't accept quotes anymore")
	ErrRequestTransition   = newError(ErrInvalidState, "request can't move to that status")
	ErrRequestClosed       = newError(ErrInvalidState, "request is closed")
	ErrRequestNotRateable  = newError(ErrInvalidState, "only completed requests with an accepted quote can be rated")
	ErrRequestAlreadyRated = newError(ErrInvalidState, "request already rated")
	ErrQuoteNotPending     = newError(ErrInvalidState, "quote is not pending")
	ErrProjectCompleted    = newError(ErrInvalidState, "project is already completed")
	ErrProjectAlreadyPaid  = newError(ErrInvalidState, "project already has a paid invoice")
	ErrPaymentNotSucceeded = newError(ErrInvalidState, "payment did not succeed")
	ErrQuoteNotPayable     = newError(ErrInvalidState, "quote can't be paid")
	ErrNoPaymentGateway    = newError(ErrInvalidState, "payments are not configured")

	ErrNoNewChanges         = newError(ErrInvalidInput, "no new values")
	ErrInvalidRating        = newError(ErrInvalidInput, "rating must be between 1 and 5")
	ErrNegativeAmount       = newError(ErrInvalidInput, "amount can't be negative")
	ErrUnknownPackage       = newError(ErrInvalidInput, "unknown package")
	ErrUnknownDeliverySpeed = newError(ErrInvalidInput, "unknown delivery speed")
	ErrUnknownProjectStatus = newError(ErrInvalidInput, "unknown project status")
	ErrEmptyComment         = newError(ErrInvalidInput, "comment is empty")
	ErrEmptyPhotoUrl        = newError(ErrInvalidInput, "photo url is empty")
	ErrMissingRecipient     = newError(ErrInvalidInput, "notification recipient is empty")
	ErrPaymentMismatch      = newError(ErrInvalidInput, "payment doesn't match the quote")
	ErrMissingPaymentId     = newError(ErrInvalidInput, "payment id is empty")

	ErrUnknownNotificationKind = newError(ErrInvalidKind, "unknown notification kind")

	ErrDocumentUpload = newError(ErrUploadFailure, "invoice document upload failed")
)
