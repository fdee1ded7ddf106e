package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ConvertRequest converts an amount between two currencies.
type ConvertRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	From   string  `json:"from" binding:"required"`
	To     string  `json:"to" binding:"required"`
}

// ListCountries handles GET /api/currency/countries
func (h *Handlers) ListCountries(c *gin.Context) {
	countries, err := h.deps.Countries.Countries(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list countries", "error", err)
		respondError(c, http.StatusBadGateway, "failed to fetch countries")
		return
	}
	respondOK(c, gin.H{"countries": countries})
}

// GetRates handles GET /api/currency/rates/:base
func (h *Handlers) GetRates(c *gin.Context) {
	base := strings.ToUpper(c.Param("base"))

	rates, err := h.deps.Converter.Rates(c.Request.Context(), base)
	if err != nil {
		h.logger.Error("Failed to fetch rates", "base", base, "error", err)
		respondError(c, http.StatusBadGateway, "failed to fetch exchange rates")
		return
	}
	respondOK(c, gin.H{"base": base, "rates": rates})
}

// ConvertCurrency handles POST /api/currency/convert
func (h *Handlers) ConvertCurrency(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	converted, err := h.deps.Converter.Convert(c.Request.Context(), req.Amount, req.From, req.To)
	if err != nil {
		h.logger.Error("Failed to convert currency", "error", err)
		respondError(c, http.StatusBadGateway, "failed to convert currency")
		return
	}
	respondOK(c, gin.H{
		"amount":           req.Amount,
		"from":             strings.ToUpper(req.From),
		"to":               strings.ToUpper(req.To),
		"converted_amount": converted,
	})
}
