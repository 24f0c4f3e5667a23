package user

import (
	"time"

	"hunteros-backend/internal/models"
)

// UserResponse defines the response structure for user information.
type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	Stats     *UserStats `json:"stats,omitempty"`
	Token     string     `json:"token,omitempty"`
}

// UserStats summarizes the user's dashboard
type UserStats struct {
	Widgets         int64 `json:"widgets"`
	CustomWidgets   int64 `json:"custom_widgets"`
	BoundWidgets    int64 `json:"bound_widgets"`
	Templates       int64 `json:"templates"`
	PublicTemplates int64 `json:"public_templates"`
}

func NewUserResponse(u models.User, token string) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		Token:     token,
	}
}
