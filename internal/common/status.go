package common

// Request statuses
const (
	RequestPending    = "pending"
	RequestInProgress = "in_progress"
	RequestCompleted  = "completed"
	RequestCancelled  = "cancelled"
	RequestDraft      = "draft"
	RequestArchived   = "archived"
)

// Request priorities
const (
	PriorityEmergencyRepair = "urgence_depannage"
	PriorityUrgentOnQuote   = "urgent_sur_devis"
	PriorityMajorWorks      = "travaux_importants"
)

// Quote statuses
const (
	QuotePending   = "pending"
	QuoteAccepted  = "accepted"
	QuoteRejected  = "rejected"
	QuoteWithdrawn = "withdrawn"
)

// Quote package tiers
const (
	PackageBasic    = "basic"
	PackageStandard = "standard"
	PackagePremium  = "premium"
)

// Quote delivery speeds
const (
	DeliveryStandard = "standard"
	DeliveryExpress  = "express"
	DeliveryUrgent   = "urgent"
)

const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
)

const (
	InvoiceGenerated = "generated"
	InvoicePaid      = "paid"
)

const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// User roles. Every role except RoleOrderGiver may be matched against requests.
const (
	RoleOrderGiver      = "order_giver"
	RoleServiceProvider = "service_provider"
	RoleProvider        = "provider"
	RoleCompany         = "company"
	RoleAgency          = "agency"
	RoleContractor      = "contractor"
)

const DefaultCurrency = "EUR"

var ProviderRoles = []string{RoleServiceProvider, RoleProvider, RoleCompany, RoleAgency, RoleContractor}

func IsProviderRole(role string) bool {
	for _, r := range ProviderRoles {
		if r == role {
			return true
		}
	}

	return false
}

var requestTransitions = map[string][]string{
	RequestDraft:      {RequestPending, RequestCancelled},
	RequestPending:    {RequestInProgress, RequestCancelled},
	RequestInProgress: {RequestCompleted, RequestCancelled},
}

// CanTransitionRequest reports whether a request may move from one status to another.
// Completed, cancelled and archived requests never move again.
func CanTransitionRequest(from, to string) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

func IsTerminalRequestStatus(status string) bool {
	return len(requestTransitions[status]) == 0
}
