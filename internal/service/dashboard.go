package service

import (
	"fmt"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

type ClaimFilter string

const (
	FilterAll          ClaimFilter = "all"
	FilterAutoResolved ClaimFilter = "auto_resolved"
	FilterPending      ClaimFilter = "pending"
	FilterHighRisk     ClaimFilter = "high_risk"
)

func ParseClaimFilter(s string) (ClaimFilter, error) {
	switch f := ClaimFilter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterAutoResolved, FilterPending, FilterHighRisk:
		return f, nil
	}
	return "", fmt.Errorf("unknown claim filter %q", s)
}

// DashboardStats are the counters shown above the admin claim table.
type DashboardStats struct {
	Total   int `json:"total"`
	Auto    int `json:"auto"`
	Pending int `json:"pending"`
	Risk    int `json:"risk"`
}

func (f ClaimFilter) matches(c models.Claim) bool {
	switch f {
	case FilterAutoResolved:
		switch c.Status {
		case models.StatusApproved, models.StatusRejected, models.StatusOfferAccepted, models.StatusOfferRejected:
			return true
		}
		return false
	case FilterPending:
		switch c.Status {
		case models.StatusPending, models.StatusEscalate, models.StatusWaitingUserAction:
			return true
		}
		return false
	case FilterHighRisk:
		return c.RiskLevel == models.RiskHigh
	default:
		return true
	}
}

func FilterClaims(claims []models.Claim, f ClaimFilter) []models.Claim {
	out := make([]models.Claim, 0, len(claims))
	for _, c := range claims {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func ComputeStats(claims []models.Claim) DashboardStats {
	stats := DashboardStats{Total: len(claims)}
	for _, c := range claims {
		if FilterAutoResolved.matches(c) {
			stats.Auto++
		}
		if FilterPending.matches(c) {
			stats.Pending++
		}
		if FilterHighRisk.matches(c) {
			stats.Risk++
		}
	}
	return stats
}
