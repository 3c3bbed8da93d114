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

// QuestionHandler handles question endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreateQuestion godoc
// POST /api/v1/questions
// Inserts a hand-written question at status pending, skipping the AI gate.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// ListTaskQuestions godoc
// GET /api/v1/tasks/:id/questions
// Lists the question rows created from a task's candidates.
func (h *QuestionHandler) ListTaskQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListByTask(c.Request.Context(), claims.UserID, taskID)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListBank godoc
// GET /api/v1/bank?type=&difficulty=&page=&per_page=
// Lists the shared bank of approved questions.
func (h *QuestionHandler) ListBank(c *gin.Context) {
	page, perPage := parsePagination(c)

	questions, pagination, err := h.questionService.ListPublished(
		c.Request.Context(), c.Query("type"), c.Query("difficulty"), page, perPage)
	if err != nil {
		failService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}
