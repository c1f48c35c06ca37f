package api

import (
	"net/http"

	"github.com/joestump/talent-portal/internal/auth"
)

// usersAPIHandler provides REST handlers for user endpoints.
type usersAPIHandler struct{}

// Me godoc
//
//	@Summary      Current user
//	@Description  Returns the caller as reported by the platform API, with role names.
//	@Tags         users
//	@Produce      json
//	@Security     BearerToken
//	@Success      200  {object}  UserResponse
//	@Failure      401  {object}  ErrorResponse
//	@Router       /me [get]
func (h *usersAPIHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
