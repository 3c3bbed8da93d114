package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/itemforge/itemforge-backend/internal/middleware"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
	"github.com/itemforge/itemforge-backend/internal/service"
	"github.com/itemforge/itemforge-backend/internal/validator"
)

// MaterialHandler handles material and knowledge point endpoints.
type MaterialHandler struct {
	materialService *service.MaterialService
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(materialService *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

// CreateMaterial godoc
// POST /api/v1/materials
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateMaterialRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	material, err := h.materialService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"material": material})
}

// GetMaterial godoc
// GET /api/v1/materials/:id
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	material, err := h.materialService.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"material": material})
}

// ListMaterials godoc
// GET /api/v1/materials?page=&per_page=
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := parsePagination(c)

	materials, pagination, err := h.materialService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		failService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"materials": materials}, pagination)
}

// DeleteMaterial godoc
// DELETE /api/v1/materials/:id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.materialService.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "material deleted"})
}

// AddKnowledgePoint godoc
// POST /api/v1/materials/:id/knowledge-points
func (h *MaterialHandler) AddKnowledgePoint(c *gin.Context) {
	claims := middleware.GetClaims(c)

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateKnowledgePointRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	kp, err := h.materialService.AddKnowledgePoint(c.Request.Context(), claims.UserID, materialID, &req)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"knowledge_point": kp})
}

// ListKnowledgePoints godoc
// GET /api/v1/materials/:id/knowledge-points
func (h *MaterialHandler) ListKnowledgePoints(c *gin.Context) {
	claims := middleware.GetClaims(c)

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	kps, err := h.materialService.ListKnowledgePoints(c.Request.Context(), claims.UserID, materialID)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"knowledge_points": kps})
}

// DeleteKnowledgePoint godoc
// DELETE /api/v1/knowledge-points/:id
func (h *MaterialHandler) DeleteKnowledgePoint(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.materialService.DeleteKnowledgePoint(c.Request.Context(), claims.UserID, id); err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "knowledge point deleted"})
}

// parsePagination reads ?page= and ?per_page= with defaults. Bounds are
// enforced in the service layer.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return page, perPage
}
