package constants

// WorkflowStatus is the canonical post-capture business status for a stored
// document. Transitions are forward-only; nothing is reachable from
// WorkflowPaymentReceived.
type WorkflowStatus string

// Stable values (store these exact strings in the DB).
const (
	WorkflowInquiryStarted     WorkflowStatus = "inquiry_started"
	WorkflowPrescriptionSaved  WorkflowStatus = "prescription_saved"
	WorkflowMaterialsDelivered WorkflowStatus = "materials_delivered"
	WorkflowDocumentsUploaded  WorkflowStatus = "documents_uploaded"
	WorkflowInvoiced           WorkflowStatus = "invoiced"
	WorkflowPaymentReceived    WorkflowStatus = "payment_received"
)

var workflowOrder = map[WorkflowStatus]int{
	WorkflowInquiryStarted:     0,
	WorkflowPrescriptionSaved:  1,
	WorkflowMaterialsDelivered: 2,
	WorkflowDocumentsUploaded:  3,
	WorkflowInvoiced:           4,
	WorkflowPaymentReceived:    5,
}

// ValidWorkflowStatus reports whether s is one of the canonical statuses.
func ValidWorkflowStatus(s WorkflowStatus) bool {
	_, ok := workflowOrder[s]
	return ok
}

// CanTransition reports whether from -> to is a legal forward step.
func CanTransition(from, to WorkflowStatus) bool {
	fi, ok := workflowOrder[from]
	if !ok {
		return false
	}
	ti, ok := workflowOrder[to]
	if !ok {
		return false
	}
	return ti > fi
}

// MatchLevel is the discrete confidence bucket attached to an identity
// resolution result.
type MatchLevel string

const (
	MatchHigh    MatchLevel = "high"
	MatchMedium  MatchLevel = "medium"
	MatchLow     MatchLevel = "low"
	MatchKeyword MatchLevel = "keyword"
	MatchNone    MatchLevel = "none"
)
