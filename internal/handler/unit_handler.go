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

// CreateUnit adds a unit to an apartment. The unit number must be unique
// within the apartment.
func CreateUnit(c echo.Context) error {
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
		UnitNumber string `json:"unitNumber"`
		Floor      *int   `json:"floor"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse unit creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.UnitNumber = strings.TrimSpace(req.UnitNumber)
	if req.UnitNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Daire numarası zorunludur."})
	}

	unit := model.Unit{
		ApartmentID: apartmentID,
		UnitNumber:  req.UnitNumber,
		Floor:       req.Floor,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&unit).Error; err != nil {
		// The composite unique index rejects duplicate numbers.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Bu daire numarası zaten mevcut."})
		}
		log.Error("Failed to create unit", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	log.Info("Unit created",
		zap.Uint("id", unit.ID),
		zap.Uint("apartment_id", apartmentID),
		zap.String("unit_number", unit.UnitNumber))

	return c.JSON(http.StatusCreated, unit)
}

// UpdateUnit handles unit actions; currently only removing the resident.
func UpdateUnit(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}
	unitID, err := paramUint(c, "unitId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	unit, err := findOwnedUnit(database.GetDB(), unitID, apartmentID, managerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Daire bulunamadı."})
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Action != "remove_resident" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Geçersiz işlem."})
	}

	if !unit.Occupied() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu dairede sakin yok."})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(unit).Update("resident_id", nil).Error; err != nil {
		log.Error("Failed to remove resident", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	unit.ResidentID = nil
	log.Info("Resident removed from unit", zap.Uint("unit_id", unitID))
	return c.JSON(http.StatusOK, unit)
}

// DeleteUnit removes a vacant unit. Occupied units must have their
// resident removed first.
func DeleteUnit(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}
	unitID, err := paramUint(c, "unitId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	unit, err := findOwnedUnit(database.GetDB(), unitID, apartmentID, managerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Daire bulunamadı."})
	}

	if unit.Occupied() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Sakin atanmış daireyi silemezsiniz. Önce sakini kaldırın.",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&model.Unit{}, unitID).Error; err != nil {
		log.Error("Failed to delete unit", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	log.Info("Unit deleted", zap.Uint("unit_id", unitID), zap.Uint("apartment_id", apartmentID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
