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

// TaskHandler handles generation task endpoints.
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask godoc
// POST /api/v1/tasks
// Starts a generation task and returns it immediately in state pending.
// Clients observe completion by polling GET /tasks/:id.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"task": task})
}

// GetTask godoc
// GET /api/v1/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// ListTasks godoc
// GET /api/v1/tasks?page=&per_page=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := parsePagination(c)

	tasks, pagination, err := h.taskService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		failService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tasks": tasks}, pagination)
}

// SubmitForReview godoc
// POST /api/v1/tasks/:id/submit
// Turns a completed task's candidates into question rows awaiting AI review.
func (h *TaskHandler) SubmitForReview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.taskService.SubmitForReview(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// Regenerate godoc
// POST /api/v1/tasks/:id/regenerate
// Resets a finished or failed task to pending and re-enqueues it.
func (h *TaskHandler) Regenerate(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.taskService.Regenerate(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"task": task})
}
