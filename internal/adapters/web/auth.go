package web

import (
	"context"
	"net/http"

	"mbs-manager/internal/core"
	"mbs-manager/internal/forms"
	"mbs-manager/internal/session"
)

const cookieName = "auth_token"

type sessionKey struct{}

// sessionFromContext returns the request's session, or nil.
func sessionFromContext(ctx context.Context) *session.Provider {
	v, _ := ctx.Value(sessionKey{}).(*session.Provider)
	return v
}

// requestToken reads the session token from the cookie, the Authorization
// header or, for websocket handshakes, the access_token query parameter.
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if t := bearerToken(r); t != "" {
		return t
	}
	return r.URL.Query().Get("access_token")
}

// newSession builds a provider seeded with token. Each request gets its own.
func (h *Handler) newSession(token string) *session.Provider {
	return session.NewProvider(h.auth, h.repos.Profiles, session.NewMemoryTokenStore(token), h.log)
}

// RequireAuth resolves the request's session and injects it into the
// context. Returns 401 if the token is absent, invalid or revoked.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		sess := h.newSession(token)
		if err := sess.Init(r.Context()); err != nil {
			h.writeFailure(w, r, err)
			return
		}
		if !sess.State().SignedIn() {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// signUp handles POST /api/auth/signup.
func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string    `json:"email"`
		Password string    `json:"password"`
		FullName string    `json:"full_name"`
		Role     core.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := h.newSession("")
	if err := sess.SignUp(r.Context(), req.Email, req.Password, req.FullName, req.Role); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Token())
	writeJSONStatus(w, http.StatusCreated, sess.State())
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := h.newSession("")
	if err := sess.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Token())
	writeJSON(w, sess.State())
}

// logout handles POST /api/auth/logout: revokes the session if there is one
// and clears the cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := requestToken(r); token != "" {
		sess := h.newSession(token)
		if err := sess.Init(r.Context()); err == nil && sess.State().SignedIn() {
			if err := sess.SignOut(r.Context()); err != nil {
				h.writeFailure(w, r, err)
				return
			}
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, sessionFromContext(r.Context()).State())
}

// changePassword handles POST /api/auth/password.
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Confirm  string `json:"confirm_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	f := forms.NewPasswordForm(sessionFromContext(r.Context()), nil)
	_ = f.Set("password", req.Password)
	_ = f.Set("confirm_password", req.Confirm)
	if err := f.Submit(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
