package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/skill-tracker/internal/auth"
	"github.com/sakif/skill-tracker/internal/service"
)

const oauthStateCookie = "oauth_state"

// GitHubAuthenticator is the part of auth.GitHubProvider the callback
// needs; tests substitute a fake.
type GitHubAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves registration, login, logout, /api/me and the optional
// GitHub sign-in.
type AuthHandler struct {
	auth          *service.AuthService
	github        GitHubAuthenticator // nil when GitHub sign-in is not configured
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, github GitHubAuthenticator, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          svc,
		github:        github,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned by register and login. API clients use
// accessToken as a Bearer token; browsers get the same value as a cookie.
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
	User        any    `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register {name, email, password} → 201
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, h.tokenResponse(res))
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/auth/login {email, password} → 200
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, h.tokenResponse(res))
}

// HandleLogout deletes the session cookie. Tokens are stateless, so a copied
// Bearer token stays valid until it expires.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the caller's profile and level progress.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.auth.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGitHubLogin redirects to GitHub with a fresh state value that is
// also stored in a short-lived cookie.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback checks the state, exchanges the code, signs the user
// in and redirects to the app.
//
// HTTP: GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: invalid OAuth state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.auth.TokenMaxAge(),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) tokenResponse(res *service.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   h.auth.TokenMaxAge(),
		User:        res.User,
	}
}
