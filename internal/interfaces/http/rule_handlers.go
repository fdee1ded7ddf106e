package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// RuleRequest creates or replaces an approval rule.
type RuleRequest struct {
	Name               string                `json:"name" binding:"required"`
	Type               string                `json:"type" binding:"required"`
	Sequence           []entity.SequenceStep `json:"sequence"`
	Percentage         int                   `json:"percentage"`
	SpecificApproverID *int64                `json:"specific_approver_id"`
	MinAmount          float64               `json:"min_amount"`
	MaxAmount          *float64              `json:"max_amount"`
	Categories         []string              `json:"categories"`
}

func (r RuleRequest) toInput() service.RuleInput {
	return service.RuleInput{
		Name:               r.Name,
		Type:               r.Type,
		Sequence:           r.Sequence,
		Percentage:         r.Percentage,
		SpecificApproverID: r.SpecificApproverID,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		Categories:         r.Categories,
	}
}

// CreateRule handles POST /api/rules
func (h *Handlers) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.deps.RuleService.Create(c.Request.Context(), currentUser(c), req.toInput())
	if err != nil {
		h.logger.Error("Failed to create rule", "error", err)
		respondServiceError(c, err)
		return
	}
	respondCreated(c, rule)
}

// ListRules handles GET /api/rules
func (h *Handlers) ListRules(c *gin.Context) {
	rules, err := h.deps.RuleService.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rules)
}

// GetRule handles GET /api/rules/:id
func (h *Handlers) GetRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rule, err := h.deps.RuleService.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rule)
}

// UpdateRule handles PUT /api/rules/:id
func (h *Handlers) UpdateRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.deps.RuleService.Update(c.Request.Context(), id, currentUser(c), req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rule)
}

// DeleteRule handles DELETE /api/rules/:id
func (h *Handlers) DeleteRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.deps.RuleService.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "rule deleted"})
}

// ToggleRule handles POST /api/rules/:id/toggle
func (h *Handlers) ToggleRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rule, err := h.deps.RuleService.Toggle(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rule)
}
