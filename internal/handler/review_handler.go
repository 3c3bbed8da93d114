package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/itemforge/itemforge-backend/internal/middleware"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
	"github.com/itemforge/itemforge-backend/internal/service"
	"github.com/itemforge/itemforge-backend/internal/validator"
)

// ReviewHandler handles single and batch review endpoints.
type ReviewHandler struct {
	reviewService *service.ReviewService
	batchService  *service.BatchService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService, batchService *service.BatchService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, batchService: batchService}
}

// ─── Single question ─────────────────────────────────────────────────

// AIReview godoc
// POST /api/v1/questions/:id/ai-review
// Runs the AI gate: ai_reviewing → ai_approved | ai_rejected.
func (h *ReviewHandler) AIReview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.reviewService.AIReview(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// ManualReview godoc
// POST /api/v1/questions/:id/review
// Records the human decision: ai_approved → approved | rejected.
func (h *ReviewHandler) ManualReview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ManualReviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.reviewService.ManualReview(c.Request.Context(), claims.UserID, id, req.Action, req.Reason)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Approve godoc
// POST /api/v1/questions/:id/approve
// Legacy direct path: pending → approved.
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.legacyDecision(c, model.ReviewActionApprove)
}

// Reject godoc
// POST /api/v1/questions/:id/reject
// Legacy direct path: pending → rejected.
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.legacyDecision(c, model.ReviewActionReject)
}

func (h *ReviewHandler) legacyDecision(c *gin.Context, action model.ReviewAction) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var (
		question *model.Question
		svcErr   error
	)
	if action == model.ReviewActionApprove {
		question, svcErr = h.reviewService.Approve(c.Request.Context(), claims.UserID, id)
	} else {
		question, svcErr = h.reviewService.Reject(c.Request.Context(), claims.UserID, id)
	}
	if svcErr != nil {
		failService(c, svcErr)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// ─── Batch ───────────────────────────────────────────────────────────

// BatchAIReview godoc
// POST /api/v1/questions/batch/ai-review
// Runs the AI gate over every eligible requested question. Ineligible IDs are
// silently excluded; the response carries aggregate counts only.
func (h *ReviewHandler) BatchAIReview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BatchIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.batchService.AIReview(c.Request.Context(), claims.UserID, req.QuestionIDs)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// BatchManualReview godoc
// POST /api/v1/questions/batch/review
// Applies one human decision across the eligible ai_approved subset.
func (h *ReviewHandler) BatchManualReview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BatchManualReviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.batchService.ManualReview(c.Request.Context(), claims.UserID, req.QuestionIDs, req.Action, req.Reason)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// BatchApprove godoc
// POST /api/v1/questions/batch/approve
// Legacy batch path: pending → approved for the eligible subset.
func (h *ReviewHandler) BatchApprove(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BatchIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.batchService.Approve(c.Request.Context(), claims.UserID, req.QuestionIDs)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// BatchDelete godoc
// POST /api/v1/questions/batch/delete
// Deletes every requested question the caller owns.
func (h *ReviewHandler) BatchDelete(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BatchIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.batchService.Delete(c.Request.Context(), claims.UserID, req.QuestionIDs)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
