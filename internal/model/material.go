package model

import (
	"time"

	"github.com/google/uuid"
)

// Material is a piece of source content questions are generated from.
// Text extraction happens upstream; this service only stores the result.
type Material struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMaterialRequest is the payload for registering a new material.
type CreateMaterialRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=255"`
	Content string `json:"content" binding:"required,min=1"`
}

// KnowledgePoint is a tagged topic within a material. Generation tasks may
// reference a set of knowledge points; the worker round-robins over them.
type KnowledgePoint struct {
	ID         uuid.UUID `json:"id"`
	MaterialID uuid.UUID `json:"material_id"`
	Title      string    `json:"title"`
	CreatedBy  int       `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateKnowledgePointRequest is the payload for adding a knowledge point.
type CreateKnowledgePointRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}
