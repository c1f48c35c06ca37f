package api

import (
	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/theme"
)

// UserResponse is the signed-in caller.
type UserResponse struct {
	ID          string   `json:"id" example:"7c1a..."`
	Email       string   `json:"email" example:"ada@example.gc.ca"`
	FirstName   string   `json:"first_name" example:"Ada"`
	LastName    string   `json:"last_name" example:"Lovelace"`
	DisplayName string   `json:"display_name" example:"Ada Lovelace"`
	Roles       []string `json:"roles" example:"applicant"`
}

func newUserResponse(u *apiclient.User) UserResponse {
	roles := u.RoleNames()
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		Roles:       roles,
	}
}

// ThemeResponse describes the device's theme.
type ThemeResponse struct {
	Key       string `json:"key" example:"default"`
	Mode      string `json:"mode" example:"pref" enums:"light,dark,pref"`
	Effective string `json:"effective" example:"dark" enums:"light,dark"`
	ClassName string `json:"class_name" example:"default dark"`
}

func newThemeResponse(c *theme.Container) ThemeResponse {
	return ThemeResponse{
		Key:       string(c.Key()),
		Mode:      string(c.FullMode()),
		Effective: string(c.Mode()),
		ClassName: c.ClassName(),
	}
}

// ThemeRequest changes the theme. Omitted fields keep their value.
type ThemeRequest struct {
	Key  *string `json:"key,omitempty" example:"iap"`
	Mode *string `json:"mode,omitempty" example:"dark" enums:"light,dark,pref"`
}
