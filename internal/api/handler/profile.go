package handler

import (
	"net/http"
	"sort"

	"github.com/panda19/prisonscore/internal/api/response"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/profiles"
)

// ProfileHandler serves profile reads
type ProfileHandler struct {
	loop     *mainloop.Loop
	profiles *profiles.Manager
	policy   *policy.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(loop *mainloop.Loop, profileManager *profiles.Manager, pol *policy.Service) *ProfileHandler {
	return &ProfileHandler{
		loop:     loop,
		profiles: profileManager,
		policy:   pol,
	}
}

// List handles GET /api/v1/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var out []response.Profile
	err := onLoop(r.Context(), h.loop, func() error {
		for _, p := range h.profiles.List() {
			out = append(out, view(h.policy, p))
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	if out == nil {
		out = []response.Profile{}
	}
	response.JSON(w, http.StatusOK, response.ProfileList{Profiles: out})
}

// Get handles GET /api/v1/profiles/{id}. Offline players are read from
// storage through the I/O worker.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var (
		out   response.Profile
		found bool
	)
	err = onLoop(r.Context(), h.loop, func() error {
		if p := h.profiles.Get(id); p != nil {
			out, found = view(h.policy, p), true
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	if found {
		response.JSON(w, http.StatusOK, out)
		return
	}

	rec, err := h.profiles.LoadStored(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfileFromRecord(*rec, 0, h.policy.XPToReachLevel(rec.Level), false))
}

// view renders a cached profile
func view(pol *policy.Service, p *model.Profile) response.Profile {
	p.Lock()
	progress := p.Progress()
	p.Unlock()
	rec := p.Snapshot()
	return response.ProfileFromRecord(rec, progress, pol.XPToReachLevel(rec.Level), true)
}
