package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// respondServiceError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message; the detail stays in the
// server log.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrUnauthorized):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
