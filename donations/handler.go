package donations

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

// Donation kinds.
const (
	KindCash  = "cash"
	KindGoods = "goods"
)

// Handler provides donation intake operations.
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler creates a donations handler.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

// Routes registers donation routes behind the authorization gate.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.ResourceDonations, rbac.ActionRead)).Get("/", h.listDonations)
	r.With(enforcer.Authorize(rbac.ResourceDonations, rbac.ActionCreate)).Post("/", h.createDonation)
	r.With(
		enforcer.Authorize(rbac.ResourceDonations, rbac.ActionExport),
		enforcer.RequireRoles(rbac.ExportRoles...),
	).Get("/export", h.exportDonations)
	r.With(enforcer.Authorize(rbac.ResourceDonations, rbac.ActionUpdate)).Put("/{donationID}", h.updateDonation)
	r.With(enforcer.Authorize(rbac.ResourceDonations, rbac.ActionDelete)).Delete("/{donationID}", h.deleteDonation)
	return r
}

type Donation struct {
	ID          int64     `json:"id"`
	DonorName   string    `json:"donor_name"`
	Kind        string    `json:"kind"`
	AmountCents *int64    `json:"amount_cents,omitempty"`
	Description string    `json:"description,omitempty"`
	ReceivedOn  time.Time `json:"received_on"`
	CreatedAt   time.Time `json:"created_at"`
}

func validKind(kind string) bool {
	return kind == KindCash || kind == KindGoods
}

func (h *Handler) listDonations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, donor_name, kind, amount_cents, description, received_on, created_at FROM donations ORDER BY received_on DESC, id DESC`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list donations")
		return
	}
	defer rows.Close()

	var donations []Donation
	for rows.Next() {
		var d Donation
		if err := rows.Scan(&d.ID, &d.DonorName, &d.Kind, &d.AmountCents, &d.Description, &d.ReceivedOn, &d.CreatedAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse donation")
			return
		}
		donations = append(donations, d)
	}

	httpx.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) createDonation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DonorName   string `json:"donor_name"`
		Kind        string `json:"kind"`
		AmountCents *int64 `json:"amount_cents"`
		Description string `json:"description"`
		ReceivedOn  string `json:"received_on"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.DonorName == "" || payload.Kind == "" || payload.ReceivedOn == "" {
		httpx.Error(w, http.StatusBadRequest, "donor_name, kind, and received_on are required")
		return
	}

	if !validKind(payload.Kind) {
		httpx.Error(w, http.StatusBadRequest, "kind must be cash or goods")
		return
	}

	if payload.Kind == KindCash && (payload.AmountCents == nil || *payload.AmountCents <= 0) {
		httpx.Error(w, http.StatusBadRequest, "cash donations require a positive amount_cents")
		return
	}

	receivedOn, err := timeutil.ParseDate(payload.ReceivedOn)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "received_on must be a date in YYYY-MM-DD format")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO donations (donor_name, kind, amount_cents, description, received_on) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		payload.DonorName, payload.Kind, payload.AmountCents, payload.Description, receivedOn,
	)

	donation := Donation{
		DonorName:   payload.DonorName,
		Kind:        payload.Kind,
		AmountCents: payload.AmountCents,
		Description: payload.Description,
		ReceivedOn:  receivedOn,
	}

	if err := row.Scan(&donation.ID, &donation.CreatedAt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to record donation")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, donation)
}

func (h *Handler) updateDonation(w http.ResponseWriter, r *http.Request) {
	donationID, err := strconv.ParseInt(chi.URLParam(r, "donationID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid donation id")
		return
	}

	var payload struct {
		DonorName   string `json:"donor_name"`
		Kind        string `json:"kind"`
		AmountCents *int64 `json:"amount_cents"`
		Description string `json:"description"`
		ReceivedOn  string `json:"received_on"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.DonorName == "" || payload.Kind == "" || payload.ReceivedOn == "" {
		httpx.Error(w, http.StatusBadRequest, "donor_name, kind, and received_on are required")
		return
	}

	if !validKind(payload.Kind) {
		httpx.Error(w, http.StatusBadRequest, "kind must be cash or goods")
		return
	}

	receivedOn, err := timeutil.ParseDate(payload.ReceivedOn)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "received_on must be a date in YYYY-MM-DD format")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`UPDATE donations SET donor_name = $1, kind = $2, amount_cents = $3, description = $4, received_on = $5 WHERE id = $6 RETURNING id, created_at`,
		payload.DonorName, payload.Kind, payload.AmountCents, payload.Description, receivedOn, donationID,
	)

	donation := Donation{
		DonorName:   payload.DonorName,
		Kind:        payload.Kind,
		AmountCents: payload.AmountCents,
		Description: payload.Description,
		ReceivedOn:  receivedOn,
	}

	if err := row.Scan(&donation.ID, &donation.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "donation not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to update donation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, donation)
}

func (h *Handler) deleteDonation(w http.ResponseWriter, r *http.Request) {
	donationID, err := strconv.ParseInt(chi.URLParam(r, "donationID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid donation id")
		return
	}

	tag, err := h.db.Exec(r.Context(), `DELETE FROM donations WHERE id = $1`, donationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to delete donation")
		return
	}
	if tag.RowsAffected() == 0 {
		httpx.Error(w, http.StatusNotFound, "donation not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) exportDonations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, donor_name, kind, amount_cents, description, received_on, created_at FROM donations ORDER BY received_on DESC, id DESC`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to export donations")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="donations.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "donor_name", "kind", "amount_cents", "description", "received_on", "created_at"})

	for rows.Next() {
		var d Donation
		if err := rows.Scan(&d.ID, &d.DonorName, &d.Kind, &d.AmountCents, &d.Description, &d.ReceivedOn, &d.CreatedAt); err != nil {
			return
		}
		amount := ""
		if d.AmountCents != nil {
			amount = strconv.FormatInt(*d.AmountCents, 10)
		}
		_ = writer.Write([]string{
			strconv.FormatInt(d.ID, 10),
			d.DonorName,
			d.Kind,
			amount,
			d.Description,
			d.ReceivedOn.Format("2006-01-02"),
			d.CreatedAt.Format(time.RFC3339),
		})
	}

	writer.Flush()
}
