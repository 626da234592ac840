package documents

import "strings"

// ReviewStatus is the human review state of a Document. Every state may move to every state.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusInReview ReviewStatus = "IN_REVIEW"
	StatusApproved ReviewStatus = "APPROVED"
	StatusRejected ReviewStatus = "REJECTED"
)

// ReviewStatuses lists the states in workflow order.
var ReviewStatuses = []ReviewStatus{StatusPending, StatusInReview, StatusApproved, StatusRejected}

// ParseReviewStatus validates a status name. Matching ignores case and surrounding space.
func ParseReviewStatus(raw string) (ReviewStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid("status is required")
	}
	candidate := ReviewStatus(strings.ToUpper(trimmed))
	for _, s := range ReviewStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", invalid("status must be one of PENDING, IN_REVIEW, APPROVED, REJECTED")
}
