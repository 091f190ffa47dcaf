package overtime

// Status is the overtime state of an attendance record, derived once per
// read from the computation and the artifact store.
//
//	Uncomputed -> NoOvertime | PendingReview | Approved
//	PendingReview -> Approved (approval) | NoOvertime (reset)
//
// Approved is terminal while its artifact is not voided.
type Status string

const (
	StatusUncomputed    Status = "uncomputed"
	StatusNoOvertime    Status = "no_overtime"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
)

// Label is the operator-facing report label.
func (s Status) Label() string {
	switch s {
	case StatusApproved:
		return "Approved & Paid"
	case StatusPendingReview:
		return "Pending Review"
	case StatusNoOvertime:
		return "No Overtime"
	default:
		return "Not Computed"
	}
}

// DeriveStatus combines a computation with the approving artifact, if any.
func DeriveStatus(c *Computation, artifact *ApprovalArtifact) Status {
	if artifact != nil && !artifact.IsVoided() {
		return StatusApproved
	}
	if c == nil {
		return StatusUncomputed
	}
	if c.HasOvertime() {
		return StatusPendingReview
	}
	return StatusNoOvertime
}
