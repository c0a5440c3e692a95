package handler

import (
	"context"
	"net/http"

	"github.com/panda19/prisonscore/internal/api/request"
	"github.com/panda19/prisonscore/internal/api/response"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/gameplay"
	"github.com/panda19/prisonscore/internal/services/profiles"
)

// AdminHandler serves operator endpoints
type AdminHandler struct {
	loop     *mainloop.Loop
	profiles *profiles.Manager
	policy   *policy.Service
	gameplay *gameplay.Handler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(loop *mainloop.Loop, profileManager *profiles.Manager, pol *policy.Service, handler *gameplay.Handler) *AdminHandler {
	return &AdminHandler{
		loop:     loop,
		profiles: profileManager,
		policy:   pol,
		gameplay: handler,
	}
}

// Reload handles POST /api/v1/admin/reload. A file that fails to parse
// still answers 200; the defaults it fell back to are live.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	var out response.ReloadResponse
	err := onLoop(r.Context(), h.loop, func() error {
		reloadErr := h.gameplay.ReloadPolicy(ctx)
		out = response.ReloadResponse{
			Clean:         reloadErr == nil,
			Revalidated:   h.profiles.Len(),
			ConfigVersion: h.policy.Current().ConfigVersion,
		}
		if reloadErr != nil {
			out.Error = reloadErr.Error()
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

// Save handles POST /api/v1/admin/save
func (h *AdminHandler) Save(w http.ResponseWriter, r *http.Request) {
	var scheduled int
	err := onLoop(r.Context(), h.loop, func() error {
		n, err := h.profiles.SaveAllAsync()
		scheduled = n
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Accepted(w, response.SaveResponse{Scheduled: scheduled})
}

// Delete handles DELETE /api/v1/admin/profiles/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	err = onLoop(r.Context(), h.loop, func() error {
		return h.profiles.DeleteAsync(id)
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Grant handles POST /api/v1/admin/profiles/{id}/experience
func (h *AdminHandler) Grant(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.GrantRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	var out response.GrantResponse
	err = onLoop(r.Context(), h.loop, func() error {
		res, err := h.gameplay.GrantExperience(ctx, id, req.Amount)
		if err != nil {
			return err
		}
		out = response.GrantResponse{
			Progress: response.ProgressFromModel(res),
			Profile:  view(h.policy, h.profiles.Get(id)),
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}
