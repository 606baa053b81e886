package services

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlight/center/backend/httpx"
	"github.com/harborlight/center/backend/internal/timeutil"
	"github.com/harborlight/center/backend/rbac"
)

// Service kinds offered at the center.
const (
	KindShower  = "shower"
	KindLaundry = "laundry"
	KindBicycle = "bicycle_repair"
)

// Visit statuses.
const (
	StatusRequested = "requested"
	StatusInService = "in_service"
	StatusDone      = "done"
)

// Handler provides day-service visit operations (showers, laundry, bicycle
// repair).
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler creates a services handler.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

// Routes registers service routes behind the authorization gate.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.ResourceServices, rbac.ActionRead)).Get("/", h.listVisits)
	r.With(enforcer.Authorize(rbac.ResourceServices, rbac.ActionCreate)).Post("/", h.createVisit)
	r.With(
		enforcer.Authorize(rbac.ResourceServices, rbac.ActionExport),
		enforcer.RequireRoles(rbac.ExportRoles...),
	).Get("/export", h.exportVisits)
	r.With(enforcer.Authorize(rbac.ResourceServices, rbac.ActionUpdate)).Put("/{visitID}", h.updateVisit)
	r.With(enforcer.Authorize(rbac.ResourceServices, rbac.ActionDelete)).Delete("/{visitID}", h.deleteVisit)
	return r
}

type Visit struct {
	ID          int64     `json:"id"`
	GuestID     int64     `json:"guest_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	PerformedAt time.Time `json:"performed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func validKind(kind string) bool {
	switch kind {
	case KindShower, KindLaundry, KindBicycle:
		return true
	}
	return false
}

func validStatus(status string) bool {
	switch status {
	case StatusRequested, StatusInService, StatusDone:
		return true
	}
	return false
}

func (h *Handler) listVisits(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, guest_id, kind, status, notes, performed_at, created_at FROM service_visits ORDER BY performed_at DESC`
	args := []any{}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		if !validKind(kind) {
			httpx.Error(w, http.StatusBadRequest, "kind must be shower, laundry, or bicycle_repair")
			return
		}
		query = `SELECT id, guest_id, kind, status, notes, performed_at, created_at FROM service_visits WHERE kind = $1 ORDER BY performed_at DESC`
		args = append(args, kind)
	}

	rows, err := h.db.Query(r.Context(), query, args...)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list service visits")
		return
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.GuestID, &v.Kind, &v.Status, &v.Notes, &v.PerformedAt, &v.CreatedAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse service visit")
			return
		}
		visits = append(visits, v)
	}

	httpx.WriteJSON(w, http.StatusOK, visits)
}

func (h *Handler) createVisit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		GuestID     int64  `json:"guest_id"`
		Kind        string `json:"kind"`
		Notes       string `json:"notes"`
		PerformedAt string `json:"performed_at"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.GuestID == 0 || payload.Kind == "" {
		httpx.Error(w, http.StatusBadRequest, "guest_id and kind are required")
		return
	}

	if !validKind(payload.Kind) {
		httpx.Error(w, http.StatusBadRequest, "kind must be shower, laundry, or bicycle_repair")
		return
	}

	performedAt, err := timeutil.ParseOptionalTimestamp(payload.PerformedAt)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "performed_at must be a valid timestamp")
		return
	}
	if performedAt == nil {
		now := time.Now().UTC()
		performedAt = &now
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO service_visits (guest_id, kind, status, notes, performed_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		payload.GuestID, payload.Kind, StatusRequested, payload.Notes, *performedAt,
	)

	visit := Visit{
		GuestID:     payload.GuestID,
		Kind:        payload.Kind,
		Status:      StatusRequested,
		Notes:       payload.Notes,
		PerformedAt: *performedAt,
	}

	if err := row.Scan(&visit.ID, &visit.CreatedAt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to record service visit")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, visit)
}

func (h *Handler) updateVisit(w http.ResponseWriter, r *http.Request) {
	visitID, err := strconv.ParseInt(chi.URLParam(r, "visitID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid visit id")
		return
	}

	var payload struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if !validStatus(payload.Status) {
		httpx.Error(w, http.StatusBadRequest, "status must be requested, in_service, or done")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`UPDATE service_visits SET status = $1, notes = $2 WHERE id = $3 RETURNING id, guest_id, kind, status, notes, performed_at, created_at`,
		payload.Status, payload.Notes, visitID,
	)

	var visit Visit
	if err := row.Scan(&visit.ID, &visit.GuestID, &visit.Kind, &visit.Status, &visit.Notes, &visit.PerformedAt, &visit.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "service visit not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to update service visit")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, visit)
}

func (h *Handler) deleteVisit(w http.ResponseWriter, r *http.Request) {
	visitID, err := strconv.ParseInt(chi.URLParam(r, "visitID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid visit id")
		return
	}

	tag, err := h.db.Exec(r.Context(), `DELETE FROM service_visits WHERE id = $1`, visitID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to delete service visit")
		return
	}
	if tag.RowsAffected() == 0 {
		httpx.Error(w, http.StatusNotFound, "service visit not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) exportVisits(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, guest_id, kind, status, notes, performed_at, created_at FROM service_visits ORDER BY performed_at DESC`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to export service visits")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="services.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "guest_id", "kind", "status", "notes", "performed_at", "created_at"})

	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.GuestID, &v.Kind, &v.Status, &v.Notes, &v.PerformedAt, &v.CreatedAt); err != nil {
			return
		}
		_ = writer.Write([]string{
			strconv.FormatInt(v.ID, 10),
			strconv.FormatInt(v.GuestID, 10),
			v.Kind,
			v.Status,
			v.Notes,
			v.PerformedAt.Format(time.RFC3339),
			v.CreatedAt.Format(time.RFC3339),
		})
	}

	writer.Flush()
}
