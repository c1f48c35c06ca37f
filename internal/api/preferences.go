package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

// preferencesAPIHandler reads and writes the device's theme.
type preferencesAPIHandler struct{}

func container(r *http.Request) *theme.Container {
	b := pipeline.BagFromContext(r.Context())
	if b == nil {
		return nil
	}
	c, _ := theme.ContainerSlot.Get(b)
	return c
}

// GetTheme godoc
//
//	@Summary      Theme preference
//	@Description  Returns the stored theme and the mode it resolves to for this request.
//	@Tags         preferences
//	@Produce      json
//	@Success      200  {object}  ThemeResponse
//	@Router       /preferences/theme [get]
func (h *preferencesAPIHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	c := container(r)
	if c == nil {
		writeError(w, http.StatusInternalServerError, "theme unavailable", "internal")
		return
	}
	writeJSON(w, http.StatusOK, newThemeResponse(c))
}

// PutTheme godoc
//
//	@Summary      Update theme preference
//	@Description  Changes the key, the mode, or both. Omitted fields are kept.
//	@Tags         preferences
//	@Accept       json
//	@Produce      json
//	@Param        body  body      ThemeRequest  true  "New theme"
//	@Success      200   {object}  ThemeResponse
//	@Failure      400   {object}  ErrorResponse
//	@Failure      503   {object}  ErrorResponse
//	@Router       /preferences/theme [put]
func (h *preferencesAPIHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	c := container(r)
	if c == nil {
		writeError(w, http.StatusInternalServerError, "theme unavailable", "internal")
		return
	}

	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "bad_request")
		return
	}
	if req.Key == nil && req.Mode == nil {
		writeError(w, http.StatusBadRequest, "key or mode is required", "bad_request")
		return
	}

	next := c.Theme()
	if req.Key != nil {
		k, err := theme.ParseKey(*req.Key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "invalid_key")
			return
		}
		next.Key = k
	}
	if req.Mode != nil {
		m, err := theme.ParseMode(*req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "invalid_mode")
			return
		}
		next.Mode = m
	}

	if err := c.SetTheme(r.Context(), next); err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "preference storage unavailable", "storage_unavailable")
			return
		}
		zap.L().Error("saving theme", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "internal")
		return
	}
	writeJSON(w, http.StatusOK, newThemeResponse(c))
}
