package dto

import (
	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
)

type CreateCategoryRequest struct {
	Name     string     `json:"name" binding:"required,max=100"`
	ParentID *uuid.UUID `json:"parentId"`
	Icon     string     `json:"icon" binding:"max=100"`
}

type CategoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
	Icon     string     `json:"icon"`
}

func FromEntity(c *entity.Category) CategoryResponse {
	return CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		ParentID: c.ParentID,
		Icon:     c.Icon,
	}
}
