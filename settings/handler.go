package settings

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlight/center/backend/httpx"
	"github.com/harborlight/center/backend/rbac"
)

// Handler provides organization settings operations. Mutation is admin-only
// per the permission matrix.
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler creates a settings handler.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

// Routes registers settings routes behind the authorization gate.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.ResourceSettings, rbac.ActionRead)).Get("/", h.listSettings)
	r.With(enforcer.Authorize(rbac.ResourceSettings, rbac.ActionUpdate)).Put("/{key}", h.upsertSetting)
	return r
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) listSettings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse setting")
			return
		}
		settings = append(settings, s)
	}

	httpx.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) upsertSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		httpx.Error(w, http.StatusBadRequest, "setting key is required")
		return
	}

	var payload struct {
		Value string `json:"value"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
         ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
         RETURNING key, value, updated_at`,
		key, payload.Value,
	)

	var setting Setting
	if err := row.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to save setting")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, setting)
}
