package models

import (
	"errors"
	"time"
)

var (
	ErrClaimNotFound     = errors.New("claim not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid claim status transition")
	ErrInvalidInput      = errors.New("invalid claim input")
)

type ClaimStatus string

const (
	StatusPending           ClaimStatus = "pending"
	StatusEscalate          ClaimStatus = "escalate"
	StatusApproved          ClaimStatus = "approved"
	StatusRejected          ClaimStatus = "rejected"
	StatusWaitingUserAction ClaimStatus = "waiting_user_action"
	StatusOfferAccepted     ClaimStatus = "offer_accepted"
	StatusOfferRejected     ClaimStatus = "offer_rejected"
)

type ResolutionType string

const (
	ResolutionFullRefund    ResolutionType = "full_refund"
	ResolutionPartialRefund ResolutionType = "partial_refund"
	ResolutionReplacement   ResolutionType = "replacement"
	ResolutionNone          ResolutionType = "none"
	ResolutionNotSure       ResolutionType = "not_sure"
)

// Valid reports whether r is one of the resolutions a customer may request.
func (r ResolutionType) Valid() bool {
	switch r {
	case ResolutionFullRefund, ResolutionPartialRefund, ResolutionReplacement, ResolutionNone, ResolutionNotSure:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Customer identifies the owner of a claim history. Demo customers see every
// locally cached claim when the remote store has nothing for them.
type Customer struct {
	ID   int64
	Demo bool
}

// ClaimInput is what a customer submits through the form or the guided chat.
type ClaimInput struct {
	OrderID             int64          `json:"order_id"`
	CustomerID          int64          `json:"customer_id"`
	IssueDescription    string         `json:"issue_description"`
	RequestedResolution ResolutionType `json:"requested_resolution"`
	Attachments         []string       `json:"attachments,omitempty"`
}

// AdminNote is one entry in a claim's append-only note log.
type AdminNote struct {
	Author    string    `json:"author"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type Claim struct {
	ClaimID             string         `json:"claim_id"`
	OrderID             int64          `json:"order_id"`
	CustomerID          int64          `json:"customer_id"`
	IssueDescription    string         `json:"issue_description"`
	RequestedResolution ResolutionType `json:"requested_resolution"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	AIDecision          *Decision      `json:"ai_decision"`
	Status              ClaimStatus    `json:"status"`
	RiskLevel           RiskLevel      `json:"risk_level"`
	AdminNotes          []AdminNote    `json:"admin_notes,omitempty"`

	// Populated by hydration only; never persisted.
	OrderAmount *float64 `json:"order_amount,omitempty"`
	ItemsDetail string   `json:"items_detail,omitempty"`
}

// Persistable returns a copy of c without the hydrated order fields.
func (c Claim) Persistable() Claim {
	c.OrderAmount = nil
	c.ItemsDetail = ""
	return c
}

// NewerThan reports whether c was written after other. Records without an
// update time count as written at creation.
func (c Claim) NewerThan(other Claim) bool {
	return c.lastWrite().After(other.lastWrite())
}

func (c Claim) lastWrite() time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}

// ClaimUpdate carries an admin override or a customer response.
type ClaimUpdate struct {
	Status         ClaimStatus
	ResolutionType *ResolutionType
	RefundAmount   *float64
	Note           *AdminNote
}
