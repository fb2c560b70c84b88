package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/smartmilk/smart-milk/internal/auth"
	"go.uber.org/zap"
)

// RegisterHandler godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "username, password and email"
// @Success 201 {object} RegisterResult
// @Failure 400 {string} string "Invalid input"
// @Failure 409 {string} string "User exists"
// @Failure 500 {string} string "Server error"
// @Router /register [post]
func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
	})
	var verr auth.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrUserExists):
		http.Error(w, "username or email already exists", http.StatusConflict)
		return
	case err != nil:
		a.logger.Error("register failed", zap.Error(err))
		http.Error(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	a.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	a.respond(w, http.StatusCreated, RegisterResult{UserID: user.ID, Username: user.Username})
}

// LoginHandler godoc
// @Summary Authenticate user, open a session and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "username and password"
// @Success 200 {object} LoginResult
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Unauthorized"
// @Failure 429 {string} string "Too many requests"
// @Router /login [post]
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials CredentialsRequest
	if err := readJSON(w, r, &credentials); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if credentials.Username == "" || credentials.Password == "" {
		http.Error(w, "missing credentials", http.StatusBadRequest)
		return
	}

	res, err := a.auth.Login(r.Context(), credentials.Username, credentials.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		a.logger.Error("login failed", zap.Error(err))
		http.Error(w, "could not log in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, a.sessionCookie(res.SessionID, a.cookie.TTL))
	a.respond(w, http.StatusOK, LoginResult{User: toUserResponse(res.User), Token: res.Token})
}

// LogoutHandler godoc
// @Summary Close the current session
// @Tags auth
// @Success 204
// @Failure 500 {string} string "Server error"
// @Router /logout [post]
func (a *API) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(a.cookie.Name); err == nil && c.Value != "" {
		if err := a.auth.Logout(r.Context(), c.Value); err != nil {
			a.logger.Error("logout failed", zap.Error(err))
			http.Error(w, "could not log out", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, a.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

// sessionCookie builds the session cookie; a negative ttl clears it.
func (a *API) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     a.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if a.cookie.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	switch {
	case ttl < 0:
		c.MaxAge = -1
	case ttl > 0:
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
