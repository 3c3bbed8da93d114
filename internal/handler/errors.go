package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itemforge/itemforge-backend/internal/response"
	"github.com/itemforge/itemforge-backend/internal/service"
)

// failService maps service-layer sentinel errors onto HTTP error responses.
// Anything unrecognized is a 500.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoEligibleItems):
		response.Fail(c, http.StatusNotFound, response.ErrNoEligibleItems)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrTaskNotCompleted):
		response.Fail(c, http.StatusConflict, response.ErrTaskNotCompleted)
	case errors.Is(err, service.ErrTaskNotResettable):
		response.Fail(c, http.StatusConflict, response.ErrTaskNotResettable)
	case errors.Is(err, service.ErrNoCandidates):
		response.Fail(c, http.StatusConflict, response.ErrNoCandidates)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
