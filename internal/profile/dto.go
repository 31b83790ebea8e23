package profile

// UpdateProfileRequest replaces the caller's editable profile fields
type UpdateProfileRequest struct {
	FullName    *string  `json:"full_name,omitempty"`
	ContactInfo *string  `json:"contact_info,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ProfileResponse represents a single profile
type ProfileResponse struct {
	ID          string   `json:"id"`
	FullName    *string  `json:"full_name"`
	ContactInfo *string  `json:"contact_info"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Role        Role     `json:"role"`
	UpdatedAt   string   `json:"updated_at"`
}

// ToResponse converts a Profile model to a ProfileResponse DTO
func (p *Profile) ToResponse() *ProfileResponse {
	return &ProfileResponse{
		ID:          p.ID,
		FullName:    p.FullName,
		ContactInfo: p.ContactInfo,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Role:        p.Role,
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponses converts a slice of profiles
func ToResponses(profiles []*Profile) []*ProfileResponse {
	out := make([]*ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = p.ToResponse()
	}
	return out
}
