package guests

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

// Handler provides guest profile and check-in operations.
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler creates a guests handler.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

// Routes registers guest routes behind the authorization gate. The export
// route carries the explicit admin/board allow-list on top of the matrix
// check.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionRead)).Get("/", h.listGuests)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionCreate)).Post("/", h.createGuest)
	r.With(
		enforcer.Authorize(rbac.ResourceGuests, rbac.ActionExport),
		enforcer.RequireRoles(rbac.ExportRoles...),
	).Get("/export", h.exportGuests)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionRead)).Get("/{guestID}", h.getGuest)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionUpdate)).Put("/{guestID}", h.updateGuest)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionDelete)).Delete("/{guestID}", h.deleteGuest)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionRead)).Get("/{guestID}/checkins", h.listCheckins)
	r.With(enforcer.Authorize(rbac.ResourceGuests, rbac.ActionCreate)).Post("/{guestID}/checkins", h.createCheckin)
	return r
}

type Guest struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"full_name"`
	PreferredName string    `json:"preferred_name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Checkin struct {
	ID          int64     `json:"id"`
	GuestID     int64     `json:"guest_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

func (h *Handler) listGuests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, full_name, preferred_name, phone, notes, created_at FROM guests ORDER BY full_name`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list guests")
		return
	}
	defer rows.Close()

	var guests []Guest
	for rows.Next() {
		var g Guest
		if err := rows.Scan(&g.ID, &g.FullName, &g.PreferredName, &g.Phone, &g.Notes, &g.CreatedAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse guest")
			return
		}
		guests = append(guests, g)
	}

	httpx.WriteJSON(w, http.StatusOK, guests)
}

func (h *Handler) createGuest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FullName      string `json:"full_name"`
		PreferredName string `json:"preferred_name"`
		Phone         string `json:"phone"`
		Notes         string `json:"notes"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.FullName == "" {
		httpx.Error(w, http.StatusBadRequest, "full_name is required")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO guests (full_name, preferred_name, phone, notes) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		payload.FullName, payload.PreferredName, payload.Phone, payload.Notes,
	)

	guest := Guest{
		FullName:      payload.FullName,
		PreferredName: payload.PreferredName,
		Phone:         payload.Phone,
		Notes:         payload.Notes,
	}

	if err := row.Scan(&guest.ID, &guest.CreatedAt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create guest")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, guest)
}

func (h *Handler) getGuest(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	row := h.db.QueryRow(r.Context(), `SELECT id, full_name, preferred_name, phone, notes, created_at FROM guests WHERE id = $1`, guestID)
	var guest Guest
	if err := row.Scan(&guest.ID, &guest.FullName, &guest.PreferredName, &guest.Phone, &guest.Notes, &guest.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "guest not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to load guest")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, guest)
}

func (h *Handler) updateGuest(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	var payload struct {
		FullName      string `json:"full_name"`
		PreferredName string `json:"preferred_name"`
		Phone         string `json:"phone"`
		Notes         string `json:"notes"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.FullName == "" {
		httpx.Error(w, http.StatusBadRequest, "full_name is required")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`UPDATE guests SET full_name = $1, preferred_name = $2, phone = $3, notes = $4 WHERE id = $5 RETURNING id, created_at`,
		payload.FullName, payload.PreferredName, payload.Phone, payload.Notes, guestID,
	)

	guest := Guest{
		FullName:      payload.FullName,
		PreferredName: payload.PreferredName,
		Phone:         payload.Phone,
		Notes:         payload.Notes,
	}

	if err := row.Scan(&guest.ID, &guest.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "guest not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to update guest")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, guest)
}

func (h *Handler) deleteGuest(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	tag, err := h.db.Exec(r.Context(), `DELETE FROM guests WHERE id = $1`, guestID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to delete guest")
		return
	}
	if tag.RowsAffected() == 0 {
		httpx.Error(w, http.StatusNotFound, "guest not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listCheckins(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	rows, err := h.db.Query(r.Context(), `SELECT id, guest_id, checked_in_at FROM checkins WHERE guest_id = $1 ORDER BY checked_in_at DESC`, guestID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list check-ins")
		return
	}
	defer rows.Close()

	var checkins []Checkin
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.GuestID, &c.CheckedInAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse check-in")
			return
		}
		checkins = append(checkins, c)
	}

	httpx.WriteJSON(w, http.StatusOK, checkins)
}

func (h *Handler) createCheckin(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	var payload struct {
		CheckedInAt string `json:"checked_in_at"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	checkedInAt, err := timeutil.ParseOptionalTimestamp(payload.CheckedInAt)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "checked_in_at must be a valid timestamp")
		return
	}
	if checkedInAt == nil {
		now := time.Now().UTC()
		checkedInAt = &now
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO checkins (guest_id, checked_in_at) VALUES ($1, $2) RETURNING id`,
		guestID, *checkedInAt,
	)

	checkin := Checkin{GuestID: guestID, CheckedInAt: *checkedInAt}
	if err := row.Scan(&checkin.ID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, checkin)
}

// exportGuests streams the guest roster as CSV. The route gate has already
// resolved and approved the caller before any row is read.
func (h *Handler) exportGuests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, full_name, preferred_name, phone, notes, created_at FROM guests ORDER BY full_name`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to export guests")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="guests.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "full_name", "preferred_name", "phone", "notes", "created_at"})

	for rows.Next() {
		var g Guest
		if err := rows.Scan(&g.ID, &g.FullName, &g.PreferredName, &g.Phone, &g.Notes, &g.CreatedAt); err != nil {
			return
		}
		_ = writer.Write([]string{
			strconv.FormatInt(g.ID, 10),
			g.FullName,
			g.PreferredName,
			g.Phone,
			g.Notes,
			g.CreatedAt.Format(time.RFC3339),
		})
	}

	writer.Flush()
}
