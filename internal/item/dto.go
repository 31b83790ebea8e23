package item

import "time"

// CreateItemRequest represents the request to create a new item
type CreateItemRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Type        Type     `json:"type,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// UpdateItemRequest is a partial update; the owner is not updatable.
// ClearLocation removes the stored coordinates.
type UpdateItemRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	IsPublic      *bool    `json:"is_public,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	ClearLocation bool     `json:"clear_location,omitempty"`
}

// ItemResponse represents the response for an item
type ItemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	UserID      string    `json:"user_id"`
	Type        Type      `json:"type"`
	IsPublic    bool      `json:"is_public"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts an Item model to an ItemResponse DTO
func (i *Item) ToResponse() *ItemResponse {
	return &ItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		UserID:      i.UserID,
		Type:        i.Type,
		IsPublic:    i.IsPublic,
		Latitude:    i.Latitude,
		Longitude:   i.Longitude,
		CreatedAt:   i.CreatedAt,
	}
}

// ToResponses converts a slice of items
func ToResponses(items []*Item) []*ItemResponse {
	out := make([]*ItemResponse, len(items))
	for i, it := range items {
		out[i] = it.ToResponse()
	}
	return out
}
