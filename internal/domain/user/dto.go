package user

// UpdateProfileRequest is the payload for PUT /users/me
type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	City      string `json:"city" validate:"omitempty,max=100"`
	Bio       string `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=500"`
}
