package meals

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

// Meal types accepted on intake.
const (
	TypeBreakfast = "breakfast"
	TypeLunch     = "lunch"
	TypeDinner    = "dinner"
	TypeSnack     = "snack"
)

// Handler provides meal tracking operations.
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler creates a meals handler.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

// Routes registers meal routes behind the authorization gate.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.ResourceMeals, rbac.ActionRead)).Get("/", h.listMeals)
	r.With(enforcer.Authorize(rbac.ResourceMeals, rbac.ActionCreate)).Post("/", h.createMeal)
	r.With(
		enforcer.Authorize(rbac.ResourceMeals, rbac.ActionExport),
		enforcer.RequireRoles(rbac.ExportRoles...),
	).Get("/export", h.exportMeals)
	r.With(enforcer.Authorize(rbac.ResourceMeals, rbac.ActionUpdate)).Put("/{mealID}", h.updateMeal)
	r.With(enforcer.Authorize(rbac.ResourceMeals, rbac.ActionDelete)).Delete("/{mealID}", h.deleteMeal)
	return r
}

type Meal struct {
	ID        int64     `json:"id"`
	GuestID   *int64    `json:"guest_id,omitempty"`
	ServedOn  time.Time `json:"served_on"`
	MealType  string    `json:"meal_type"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func validMealType(mealType string) bool {
	switch mealType {
	case TypeBreakfast, TypeLunch, TypeDinner, TypeSnack:
		return true
	}
	return false
}

func (h *Handler) listMeals(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, guest_id, served_on, meal_type, quantity, created_at FROM meals ORDER BY served_on DESC, id DESC`
	args := []any{}

	if day := r.URL.Query().Get("served_on"); day != "" {
		servedOn, err := timeutil.ParseDate(day)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "served_on must be a date in YYYY-MM-DD format")
			return
		}
		query = `SELECT id, guest_id, served_on, meal_type, quantity, created_at FROM meals WHERE served_on = $1 ORDER BY id DESC`
		args = append(args, servedOn)
	}

	rows, err := h.db.Query(r.Context(), query, args...)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list meals")
		return
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		var m Meal
		if err := rows.Scan(&m.ID, &m.GuestID, &m.ServedOn, &m.MealType, &m.Quantity, &m.CreatedAt); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to parse meal")
			return
		}
		meals = append(meals, m)
	}

	httpx.WriteJSON(w, http.StatusOK, meals)
}

func (h *Handler) createMeal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		GuestID  *int64 `json:"guest_id"`
		ServedOn string `json:"served_on"`
		MealType string `json:"meal_type"`
		Quantity int    `json:"quantity"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.ServedOn == "" || payload.MealType == "" {
		httpx.Error(w, http.StatusBadRequest, "served_on and meal_type are required")
		return
	}

	if !validMealType(payload.MealType) {
		httpx.Error(w, http.StatusBadRequest, "meal_type must be breakfast, lunch, dinner, or snack")
		return
	}

	servedOn, err := timeutil.ParseDate(payload.ServedOn)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "served_on must be a date in YYYY-MM-DD format")
		return
	}

	quantity := payload.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	row := h.db.QueryRow(r.Context(),
		`INSERT INTO meals (guest_id, served_on, meal_type, quantity) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		payload.GuestID, servedOn, payload.MealType, quantity,
	)

	meal := Meal{
		GuestID:  payload.GuestID,
		ServedOn: servedOn,
		MealType: payload.MealType,
		Quantity: quantity,
	}

	if err := row.Scan(&meal.ID, &meal.CreatedAt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to record meal")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, meal)
}

func (h *Handler) updateMeal(w http.ResponseWriter, r *http.Request) {
	mealID, err := strconv.ParseInt(chi.URLParam(r, "mealID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	var payload struct {
		GuestID  *int64 `json:"guest_id"`
		ServedOn string `json:"served_on"`
		MealType string `json:"meal_type"`
		Quantity int    `json:"quantity"`
	}

	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.ServedOn == "" || payload.MealType == "" || payload.Quantity <= 0 {
		httpx.Error(w, http.StatusBadRequest, "served_on, meal_type, and quantity are required")
		return
	}

	if !validMealType(payload.MealType) {
		httpx.Error(w, http.StatusBadRequest, "meal_type must be breakfast, lunch, dinner, or snack")
		return
	}

	servedOn, err := timeutil.ParseDate(payload.ServedOn)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "served_on must be a date in YYYY-MM-DD format")
		return
	}

	row := h.db.QueryRow(r.Context(),
		`UPDATE meals SET guest_id = $1, served_on = $2, meal_type = $3, quantity = $4 WHERE id = $5 RETURNING id, created_at`,
		payload.GuestID, servedOn, payload.MealType, payload.Quantity, mealID,
	)

	meal := Meal{
		GuestID:  payload.GuestID,
		ServedOn: servedOn,
		MealType: payload.MealType,
		Quantity: payload.Quantity,
	}

	if err := row.Scan(&meal.ID, &meal.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "meal not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to update meal")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meal)
}

func (h *Handler) deleteMeal(w http.ResponseWriter, r *http.Request) {
	mealID, err := strconv.ParseInt(chi.URLParam(r, "mealID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	tag, err := h.db.Exec(r.Context(), `DELETE FROM meals WHERE id = $1`, mealID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to delete meal")
		return
	}
	if tag.RowsAffected() == 0 {
		httpx.Error(w, http.StatusNotFound, "meal not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) exportMeals(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `SELECT id, guest_id, served_on, meal_type, quantity, created_at FROM meals ORDER BY served_on DESC, id DESC`)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to export meals")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="meals.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "guest_id", "served_on", "meal_type", "quantity", "created_at"})

	for rows.Next() {
		var m Meal
		if err := rows.Scan(&m.ID, &m.GuestID, &m.ServedOn, &m.MealType, &m.Quantity, &m.CreatedAt); err != nil {
			return
		}
		guestID := ""
		if m.GuestID != nil {
			guestID = strconv.FormatInt(*m.GuestID, 10)
		}
		_ = writer.Write([]string{
			strconv.FormatInt(m.ID, 10),
			guestID,
			m.ServedOn.Format("2006-01-02"),
			m.MealType,
			strconv.Itoa(m.Quantity),
			m.CreatedAt.Format(time.RFC3339),
		})
	}

	writer.Flush()
}
