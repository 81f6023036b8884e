package handlers

import (
	"context"
	"net/http"
	"time"

	"voxscribe/internal/identity"
	"voxscribe/internal/middleware"
	"voxscribe/internal/profile"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      profile.View `json:"user"`
}

func newAuthResponse(res *identity.AuthResult) authResponse {
	return authResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: profile.NewView(res.User)}
}

func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Identity.Register(r.Context(), identity.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DisplayName:     req.DisplayName,
		Country:         middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, newAuthResponse(res))
}

func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newAuthResponse(res))
}

func (a *App) AuthGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleSignInRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id_token required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	res, err := a.Identity.SignInWithGoogle(ctx, req.IDToken, middleware.CountryFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newAuthResponse(res))
}

// AuthPasswordReset always answers 202 for well-formed addresses.
func (a *App) AuthPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Identity.RequestPasswordReset(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (a *App) AuthPasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Identity.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthIDToken hands out a fresh short-lived identity token for the caller.
func (a *App) AuthIDToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	token, err := a.Tokens.ServiceToken(r.Context(), sess)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"token": token})
}
