package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/panda19/prisonscore/internal/api/apierr"
	"github.com/panda19/prisonscore/internal/api/request"
	"github.com/panda19/prisonscore/internal/api/response"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/gameplay"
	"github.com/panda19/prisonscore/internal/services/profiles"
)

// SessionHandler relays host gameplay signals
type SessionHandler struct {
	loop     *mainloop.Loop
	profiles *profiles.Manager
	policy   *policy.Service
	gameplay *gameplay.Handler
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(loop *mainloop.Loop, profileManager *profiles.Manager, pol *policy.Service, handler *gameplay.Handler) *SessionHandler {
	return &SessionHandler{
		loop:     loop,
		profiles: profileManager,
		policy:   pol,
		gameplay: handler,
	}
}

// Join handles POST /api/v1/sessions. It answers once the profile is
// loaded and cached.
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	id, err := model.ParseProfileID(req.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	// Runs past the request so a disconnect does not strand the load
	bg := context.WithoutCancel(r.Context())
	ready := make(chan response.Profile, 1)
	err = onLoop(r.Context(), h.loop, func() error {
		h.gameplay.OnJoin(bg, id, name, func(p *model.Profile) {
			ready <- view(h.policy, p)
		})
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	select {
	case p := <-ready:
		response.JSON(w, http.StatusCreated, p)
	case <-r.Context().Done():
		WriteError(w, apierr.NewTimeoutError())
	}
}

// Leave handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	err = onLoop(r.Context(), h.loop, func() error {
		return h.gameplay.OnLeave(id)
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Yield handles POST /api/v1/profiles/{id}/yield
func (h *SessionHandler) Yield(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.YieldRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Resource) == "" {
		WriteError(w, NewInvalidRequestError("resource is required"))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	var out response.YieldResponse
	err = onLoop(r.Context(), h.loop, func() error {
		res, err := h.gameplay.OnResourceYield(ctx, id, req.Resource, req.Location)
		if err != nil {
			return err
		}
		out = response.YieldResponse{
			Resource: res.Resource,
			Mineable: res.Mineable,
			XP:       res.XP,
			Money:    res.Money,
			Progress: response.ProgressFromModel(res.Progress),
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

// Death handles POST /api/v1/profiles/{id}/death
func (h *SessionHandler) Death(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	var out response.DeathResponse
	err = onLoop(r.Context(), h.loop, func() error {
		lost, err := h.gameplay.OnDeath(ctx, id)
		if err != nil {
			return err
		}
		out = response.DeathResponse{Lost: lost, Profile: view(h.policy, h.profiles.Get(id))}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}
