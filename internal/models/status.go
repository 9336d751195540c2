// internal/models/status.go
package models

type ApplicationStatus string

const (
	StatusDraft        ApplicationStatus = "DRAFT"
	StatusSubmitted    ApplicationStatus = "SUBMITTED"
	StatusPreScreening ApplicationStatus = "PRE_SCREENING"
	StatusUnderReview  ApplicationStatus = "UNDER_REVIEW"
	StatusPendingInfo  ApplicationStatus = "PENDING_INFO"
	StatusApproved     ApplicationStatus = "APPROVED"
	StatusRejected     ApplicationStatus = "REJECTED"
	StatusIssued       ApplicationStatus = "ISSUED"
	StatusWithdrawn    ApplicationStatus = "WITHDRAWN"
)

var applicationStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusPreScreening,
	StatusUnderReview,
	StatusPendingInfo,
	StatusApproved,
	StatusRejected,
	StatusIssued,
	StatusWithdrawn,
}

// transitions is built once and never mutated. Successor order is stable so
// error messages and API payloads are deterministic. WITHDRAWN has no edges.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusDraft:        {StatusSubmitted},
	StatusSubmitted:    {StatusPreScreening},
	StatusPreScreening: {StatusUnderReview},
	StatusUnderReview:  {StatusApproved, StatusRejected, StatusPendingInfo},
	StatusPendingInfo:  {StatusUnderReview},
	StatusApproved:     {StatusIssued},
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range applicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the successor set of s.
func (s ApplicationStatus) AllowedTransitions() []ApplicationStatus {
	next := transitions[s]
	out := make([]ApplicationStatus, len(next))
	copy(out, next)
	return out
}

func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s ApplicationStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(applicationStatuses))
	copy(out, applicationStatuses)
	return out
}
