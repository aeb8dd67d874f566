package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/service"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

// CustomerResolver turns a customer id into a Customer with its demo flag.
type CustomerResolver func(id int64) models.Customer

type ClaimHandler struct {
	repo      interfaces.ClaimRepository
	intake    *service.Intake
	lifecycle *service.LifecycleController
	lookup    *service.OrderLookup
	watcher   interfaces.ClaimWatcher
	customers CustomerResolver
}

func NewClaimHandler(
	repo interfaces.ClaimRepository,
	intake *service.Intake,
	lifecycle *service.LifecycleController,
	lookup *service.OrderLookup,
	watcher interfaces.ClaimWatcher,
	customers CustomerResolver,
) *ClaimHandler {
	return &ClaimHandler{
		repo:      repo,
		intake:    intake,
		lifecycle: lifecycle,
		lookup:    lookup,
		watcher:   watcher,
		customers: customers,
	}
}

type claimResponse struct {
	models.Claim
	DisplayReason string `json:"display_reason"`
}

func newClaimResponse(c models.Claim) claimResponse {
	return claimResponse{Claim: c, DisplayReason: models.DisplayReason(c)}
}

func newClaimResponses(claims []models.Claim) []claimResponse {
	out := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, newClaimResponse(c))
	}
	return out
}

type overrideRequest struct {
	Status         models.ClaimStatus     `json:"status" binding:"required"`
	ResolutionType *models.ResolutionType `json:"resolution_type"`
	RefundAmount   *float64               `json:"refund_amount"`
	AdminNotes     string                 `json:"admin_notes"`
	Author         string                 `json:"author"`
}

type respondRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

func (h *ClaimHandler) SubmitClaim(c *gin.Context) {
	var input models.ClaimInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	submission, err := h.intake.Submit(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"claim":    newClaimResponse(submission.Claim),
		"decision": submission.Decision,
	})
}

func (h *ClaimHandler) ListClaims(c *gin.Context) {
	filter, err := service.ParseClaimFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	claims = h.lookup.Hydrate(c.Request.Context(), claims)
	c.JSON(http.StatusOK, newClaimResponses(service.FilterClaims(claims, filter)))
}

func (h *ClaimHandler) ClaimStats(c *gin.Context) {
	claims, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ComputeStats(claims))
}

func (h *ClaimHandler) GetClaim(c *gin.Context) {
	claim, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	hydrated := h.lookup.Hydrate(c.Request.Context(), []models.Claim{claim})
	c.JSON(http.StatusOK, newClaimResponse(hydrated[0]))
}

func (h *ClaimHandler) CustomerClaims(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer id must be a positive number"})
		return
	}

	claims, err := h.repo.ListForCustomer(c.Request.Context(), h.customers(id))
	if err != nil {
		writeError(c, err)
		return
	}
	claims = h.lookup.Hydrate(c.Request.Context(), claims)
	c.JSON(http.StatusOK, newClaimResponses(claims))
}

func (h *ClaimHandler) OverrideClaim(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RefundAmount != nil && *req.RefundAmount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refund_amount must not be negative"})
		return
	}
	if req.ResolutionType != nil && !req.ResolutionType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resolution_type"})
		return
	}

	claim, err := h.lifecycle.AdminOverride(c.Request.Context(), c.Param("id"), service.AdminOverride{
		Target:         req.Status,
		ResolutionType: req.ResolutionType,
		RefundAmount:   req.RefundAmount,
		Note:           req.AdminNotes,
		Author:         req.Author,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClaimResponse(claim))
}

func (h *ClaimHandler) RespondToOffer(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.lifecycle.RespondToOffer(c.Request.Context(), c.Param("id"), *req.Accepted)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClaimResponse(claim))
}

// WatchClaims streams claim events as server-sent events.
func (h *ClaimHandler) WatchClaims(c *gin.Context) {
	var customer models.Customer
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id must be a positive number"})
			return
		}
		customer = h.customers(id)
	}

	events, err := h.watcher.Watch(c.Request.Context(), customer)
	if err != nil {
		telemetry.Logger.Error("Failed to start claim watch", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "claim updates unavailable"})
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("claim", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrClaimNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		telemetry.Logger.Error("Claim request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process claim request"})
	}
}
