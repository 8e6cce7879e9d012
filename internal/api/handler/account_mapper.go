package handler

import (
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// accountResponse is the public view of an account. It never carries the
// password hash.
type accountResponse struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	LoginCount  int     `json:"login_count"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toAccountResponse(a domain.Account) accountResponse {
	resp := accountResponse{
		ID:          int64(a.ID),
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role.String(),
		LoginCount:  a.LoginCount,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.LastLoginAt != nil {
		ts := a.LastLoginAt.UTC().Format(time.RFC3339)
		resp.LastLoginAt = &ts
	}
	return resp
}
