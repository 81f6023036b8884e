package handlers

import (
	"net/http"

	"voxscribe/internal/domain"
	"voxscribe/internal/profile"
)

type profileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Name        *string `json:"name"`
	Occupation  *string `json:"occupation"`
}

type completeProfileRequest struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
}

// Me returns the profile document together with the completion gate.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	user, err := a.Profiles.Get(r.Context(), sess)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, profile.NewView(user))
}

func (a *App) MeUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req profileUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.Profiles.Update(r.Context(), sess, domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Name:        req.Name,
		Occupation:  req.Occupation,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, profile.NewView(user))
}

func (a *App) MeCompleteProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req completeProfileRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.Profiles.Complete(r.Context(), sess, req.Name, req.Occupation)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, profile.NewView(user))
}

func (a *App) MeDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := a.Identity.DeleteAccount(r.Context(), sess); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
