package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
)

// materialStore is the slice of the material store this service needs.
type materialStore interface {
	Create(ctx context.Context, m *model.Material) error
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error)
	ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.Material, int, error)
	DeleteOwned(ctx context.Context, id uuid.UUID, ownerID int) (bool, error)
}

type knowledgePointStore interface {
	Create(ctx context.Context, kp *model.KnowledgePoint) error
	ListByMaterial(ctx context.Context, materialID uuid.UUID, ownerID int) ([]model.KnowledgePoint, error)
	DeleteOwned(ctx context.Context, id uuid.UUID, ownerID int) (bool, error)
}

// MaterialService manages source materials and their knowledge points. Both
// are strictly caller-scoped; nothing here is shared across users.
type MaterialService struct {
	materials materialStore
	kps       knowledgePointStore
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(materials materialStore, kps knowledgePointStore) *MaterialService {
	return &MaterialService{materials: materials, kps: kps}
}

// Create registers a new material.
func (s *MaterialService) Create(ctx context.Context, callerID int, req *model.CreateMaterialRequest) (*model.Material, error) {
	m := &model.Material{
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: callerID,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns one of the caller's materials including content.
func (s *MaterialService) Get(ctx context.Context, callerID int, id uuid.UUID) (*model.Material, error) {
	m, err := s.materials.GetOwned(ctx, id, callerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return m, nil
}

// List returns the caller's materials with pagination. Content is omitted
// from list rows.
func (s *MaterialService) List(ctx context.Context, callerID, page, perPage int) ([]model.Material, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)

	materials, total, err := s.materials.ListByOwner(ctx, callerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if materials == nil {
		materials = []model.Material{}
	}

	return materials, paginate(page, perPage, total), nil
}

// Delete removes a material. Its tasks go with it; question rows survive with
// their task reference cleared.
func (s *MaterialService) Delete(ctx context.Context, callerID int, id uuid.UUID) error {
	ok, err := s.materials.DeleteOwned(ctx, id, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// AddKnowledgePoint tags a topic under one of the caller's materials.
func (s *MaterialService) AddKnowledgePoint(ctx context.Context, callerID int, materialID uuid.UUID, req *model.CreateKnowledgePointRequest) (*model.KnowledgePoint, error) {
	if _, err := s.materials.GetOwned(ctx, materialID, callerID); err != nil {
		return nil, mapStoreErr(err)
	}

	kp := &model.KnowledgePoint{
		MaterialID: materialID,
		Title:      req.Title,
		CreatedBy:  callerID,
	}
	if err := s.kps.Create(ctx, kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// ListKnowledgePoints returns the knowledge points under a material.
func (s *MaterialService) ListKnowledgePoints(ctx context.Context, callerID int, materialID uuid.UUID) ([]model.KnowledgePoint, error) {
	if _, err := s.materials.GetOwned(ctx, materialID, callerID); err != nil {
		return nil, mapStoreErr(err)
	}

	kps, err := s.kps.ListByMaterial(ctx, materialID, callerID)
	if err != nil {
		return nil, err
	}
	if kps == nil {
		kps = []model.KnowledgePoint{}
	}
	return kps, nil
}

// DeleteKnowledgePoint removes a knowledge point.
func (s *MaterialService) DeleteKnowledgePoint(ctx context.Context, callerID int, id uuid.UUID) error {
	ok, err := s.kps.DeleteOwned(ctx, id, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
