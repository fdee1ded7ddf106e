package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
)

// CreateExpenseRequest submits a new expense claim.
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	ReceiptURL  string  `json:"receipt_url"`
}

// DecisionRequest carries an approver's comment on approve/reject.
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// ExpenseFilterRequest narrows expense history queries.
type ExpenseFilterRequest struct {
	Status    string `form:"status"`
	Category  string `form:"category"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (r ExpenseFilterRequest) toFilter() (port.ExpenseFilter, error) {
	filter := port.ExpenseFilter{Status: r.Status, Category: r.Category}
	if r.StartDate != "" {
		t, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date: %s", r.StartDate)
		}
		filter.StartDate = &t
	}
	if r.EndDate != "" {
		t, err := time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date: %s", r.EndDate)
		}
		filter.EndDate = &t
	}
	return filter, nil
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	expense, err := h.deps.ExpenseService.Create(c.Request.Context(), currentUser(c), service.CreateExpenseInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		ReceiptURL:  req.ReceiptURL,
	})
	if err != nil {
		h.logger.Error("Failed to create expense", "error", err)
		respondServiceError(c, err)
		return
	}

	respondCreated(c, expense)
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	expense, err := h.deps.ExpenseService.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// ListExpenses handles GET /api/expenses — role-scoped history.
func (h *Handlers) ListExpenses(c *gin.Context) {
	var req ExpenseFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.deps.ExpenseService.ListForRole(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		h.logger.Error("Failed to list expenses", "error", err)
		respondServiceError(c, err)
		return
	}
	respondOK(c, expenses)
}

// ListMyExpenses handles GET /api/expenses/mine
func (h *Handlers) ListMyExpenses(c *gin.Context) {
	expenses, err := h.deps.ExpenseService.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expenses)
}

// ApproveExpense handles POST /api/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.deps.ExpenseService.Approve(c.Request.Context(), id, currentUser(c), req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// RejectExpense handles POST /api/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.deps.ExpenseService.Reject(c.Request.Context(), id, currentUser(c), req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	expenses, err := h.deps.ExpenseService.ListPendingApprovals(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expenses)
}

// ListTeamExpenses handles GET /api/approvals/team
func (h *Handlers) ListTeamExpenses(c *gin.Context) {
	expenses, err := h.deps.ExpenseService.ListTeam(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, expenses)
}

// ExportExpenses handles GET /api/expenses/export — role-scoped history
// as an xlsx download.
func (h *Handlers) ExportExpenses(c *gin.Context) {
	var req ExpenseFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	actor := currentUser(c)
	expenses, err := h.deps.ExpenseService.ListForRole(c.Request.Context(), actor, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	company, err := h.deps.CompanyRepo.GetByID(c.Request.Context(), actor.CompanyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	if err := h.deps.Exporter.Write(c.Writer, company.Currency, expenses); err != nil {
		h.logger.Error("Failed to export expenses", "error", err)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
