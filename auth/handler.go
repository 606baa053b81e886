package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborlight/center/backend/httpx"
	"github.com/harborlight/center/backend/rbac"
)

// Handler exposes session lifecycle endpoints. Login itself is handled by the
// identity integration that issues session tokens; this handler only reports
// on and clears the current session.
type Handler struct {
	sessions *SessionManager
	resolver *rbac.Resolver
}

// NewHandler constructs an auth handler.
func NewHandler(sessions *SessionManager, resolver *rbac.Resolver) *Handler {
	return &Handler{sessions: sessions, resolver: resolver}
}

// Routes exposes the auth endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.sessionInfo)
	r.Post("/logout", h.logout)
	return r
}

type sessionResponse struct {
	UserID       int64    `json:"user_id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	Role         string   `json:"role,omitempty"`
	AllowedPaths []string `json:"allowed_paths,omitempty"`
	DefaultPath  string   `json:"default_path"`
}

// sessionInfo reports the caller's effective role alongside the navigation
// policy the frontend needs: which path prefixes the role may visit and
// where to land after login. The role comes from a fresh resolution, not
// from the token, so an administrator's correction takes effect on the next
// request.
func (h *Handler) sessionInfo(w http.ResponseWriter, r *http.Request) {
	claims := FromContext(r.Context())
	if claims == nil {
		httpx.Unauthorized(w)
		return
	}

	role := h.resolver.Resolve(r.Context(), claims.UserID, claims.Role)

	resp := sessionResponse{
		UserID:       claims.UserID,
		Email:        claims.Email,
		FullName:     claims.FullName,
		Role:         string(role),
		AllowedPaths: rbac.AllowedPaths(role),
		DefaultPath:  rbac.DefaultPath(role),
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
