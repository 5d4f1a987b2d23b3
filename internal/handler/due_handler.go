package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aidat-service/internal/middleware"
	"aidat-service/internal/model"
	"aidat-service/pkg/database"
	"aidat-service/pkg/logger"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListDues returns an apartment's dues, newest period first, each with
// payment tallies so the dashboard can show collection progress without
// extra round trips.
func ListDues(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	if _, err := findOwnedApartment(database.GetDB(), apartmentID, managerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var dues []model.Due
	if err := database.GetDB().
		Where("apartment_id = ?", apartmentID).
		Order("year DESC, month DESC").
		Find(&dues).Error; err != nil {
		log.Error("Failed to list dues", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	var occupied int64
	database.GetDB().Model(&model.Unit{}).
		Where("apartment_id = ? AND resident_id IS NOT NULL", apartmentID).
		Count(&occupied)

	type dueWithTallies struct {
		model.Due
		OccupiedUnits int64 `json:"occupied_units"`
		ApprovedCount int64 `json:"approved_count"`
		PendingCount  int64 `json:"pending_count"`
		RejectedCount int64 `json:"rejected_count"`
	}

	out := make([]dueWithTallies, 0, len(dues))
	for _, d := range dues {
		row := dueWithTallies{Due: d, OccupiedUnits: occupied}
		database.GetDB().Model(&model.Payment{}).
			Where("due_id = ? AND status = ?", d.ID, model.PaymentApproved).Count(&row.ApprovedCount)
		database.GetDB().Model(&model.Payment{}).
			Where("due_id = ? AND status = ?", d.ID, model.PaymentPending).Count(&row.PendingCount)
		database.GetDB().Model(&model.Payment{}).
			Where("due_id = ? AND status = ?", d.ID, model.PaymentRejected).Count(&row.RejectedCount)
		out = append(out, row)
	}

	return c.JSON(http.StatusOK, out)
}

// CreateDue defines the monthly amount for one period. Periods are unique
// per apartment; defining the same month twice is a conflict.
func CreateDue(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	if _, err := findOwnedApartment(database.GetDB(), apartmentID, managerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	var req struct {
		Month       int     `json:"month"`
		Year        int     `json:"year"`
		Amount      float64 `json:"amount"`
		DueDate     string  `json:"dueDate"`
		Description string  `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse due creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Month == 0 || req.Year == 0 || req.Amount == 0 || req.DueDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Ay, yıl, tutar ve son ödeme tarihi zorunludur."})
	}
	if req.Month < 1 || req.Month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Geçersiz ay."})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tutar sıfırdan büyük olmalıdır."})
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Geçersiz son ödeme tarihi."})
	}

	due := model.Due{
		ApartmentID: apartmentID,
		Month:       req.Month,
		Year:        req.Year,
		Amount:      req.Amount,
		DueDate:     dueDate,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		due.Description = &desc
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&due).Error; err != nil {
		// The composite unique index rejects a second due for the period.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Bu ay için zaten aidat tanımlanmış."})
		}
		log.Error("Failed to create due", zap.Error(err),
			zap.Int("month", req.Month), zap.Int("year", req.Year))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	prometheus.DueCreatedCounter.Inc()
	log.Info("Due created",
		zap.Uint("id", due.ID),
		zap.Uint("apartment_id", apartmentID),
		zap.Int("month", due.Month),
		zap.Int("year", due.Year))

	return c.JSON(http.StatusCreated, due)
}

// DueSummary reports the collection state of one due across every
// occupied unit. A unit with no payment row shows as not_uploaded, so
// the four status buckets always add up to the occupied unit count.
func DueSummary(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}
	dueID, err := paramUint(c, "dueId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due ID"})
	}

	if _, err := findOwnedApartment(database.GetDB(), apartmentID, managerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var due model.Due
	if err := database.GetDB().
		Where("id = ? AND apartment_id = ?", dueID, apartmentID).
		First(&due).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Aidat bulunamadı."})
	}

	var units []model.Unit
	if err := database.GetDB().
		Where("apartment_id = ? AND resident_id IS NOT NULL", apartmentID).
		Order("unit_number ASC").
		Preload("Resident").
		Find(&units).Error; err != nil {
		log.Error("Failed to load units for due summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	var payments []model.Payment
	if err := database.GetDB().
		Where("due_id = ?", dueID).
		Find(&payments).Error; err != nil {
		log.Error("Failed to load payments for due summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	byUnit := make(map[uint]*model.Payment, len(payments))
	for i := range payments {
		byUnit[payments[i].UnitID] = &payments[i]
	}

	type unitStatus struct {
		UnitID       uint    `json:"unit_id"`
		UnitNumber   string  `json:"unit_number"`
		ResidentName string  `json:"resident_name"`
		Status       string  `json:"status"`
		PaymentID    *uint   `json:"payment_id,omitempty"`
		UploadedAt   *string `json:"uploaded_at,omitempty"`
	}

	rows := make([]unitStatus, 0, len(units))
	counts := map[string]int{
		"approved":     0,
		"pending":      0,
		"rejected":     0,
		"not_uploaded": 0,
	}

	for _, u := range units {
		row := unitStatus{
			UnitID:     u.ID,
			UnitNumber: u.UnitNumber,
			Status:     "not_uploaded",
		}
		if u.Resident != nil {
			row.ResidentName = u.Resident.Name
		}
		if p, ok := byUnit[u.ID]; ok {
			row.Status = strings.ToLower(string(p.Status))
			row.PaymentID = &p.ID
			uploaded := p.UploadedAt.Format(time.RFC3339)
			row.UploadedAt = &uploaded
		}
		counts[row.Status]++
		rows = append(rows, row)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"due":            due,
		"occupied_units": len(units),
		"approved":       counts["approved"],
		"pending":        counts["pending"],
		"rejected":       counts["rejected"],
		"not_uploaded":   counts["not_uploaded"],
		"units":          rows,
	})
}
