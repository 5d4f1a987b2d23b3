package handler

import (
	"errors"
	"net/http"
	"strconv"
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

// findOwnedApartment is the single ownership predicate every admin
// handler goes through: an apartment another manager owns is reported
// exactly like one that does not exist.
func findOwnedApartment(db *gorm.DB, apartmentID, managerID uint) (*model.Apartment, error) {
	var apartment model.Apartment
	err := db.Where("id = ? AND manager_id = ?", apartmentID, managerID).First(&apartment).Error
	if err != nil {
		return nil, err
	}
	return &apartment, nil
}

// findOwnedUnit resolves a unit within an apartment owned by the manager.
func findOwnedUnit(db *gorm.DB, unitID, apartmentID, managerID uint) (*model.Unit, error) {
	if _, err := findOwnedApartment(db, apartmentID, managerID); err != nil {
		return nil, err
	}
	var unit model.Unit
	err := db.Where("id = ? AND apartment_id = ?", unitID, apartmentID).First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func paramUint(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ListApartments returns the requesting admin's apartments with unit counts.
func ListApartments(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var apartments []model.Apartment
	if err := database.GetDB().
		Where("manager_id = ?", managerID).
		Order("created_at DESC").
		Find(&apartments).Error; err != nil {
		log.Error("Failed to list apartments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	type apartmentWithCount struct {
		model.Apartment
		UnitCount int64 `json:"unit_count"`
	}

	out := make([]apartmentWithCount, 0, len(apartments))
	for _, a := range apartments {
		var count int64
		database.GetDB().Model(&model.Unit{}).Where("apartment_id = ?", a.ID).Count(&count)
		out = append(out, apartmentWithCount{Apartment: a, UnitCount: count})
	}

	return c.JSON(http.StatusOK, out)
}

// CreateApartment registers a new building under the requesting admin.
func CreateApartment(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse apartment creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Ad ve adres zorunludur."})
	}

	apartment := model.Apartment{
		Name:      req.Name,
		Address:   req.Address,
		ManagerID: managerID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&apartment).Error; err != nil {
		log.Error("Failed to create apartment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	log.Info("Apartment created",
		zap.Uint("id", apartment.ID),
		zap.String("name", apartment.Name),
		zap.Uint("manager_id", managerID))

	return c.JSON(http.StatusCreated, apartment)
}

// GetApartment returns one apartment with its units (and their residents)
// and the most recent dues.
func GetApartment(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	id, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var apartment model.Apartment
	err = database.GetDB().
		Where("id = ? AND manager_id = ?", id, managerID).
		Preload("Units", func(db *gorm.DB) *gorm.DB {
			return db.Order("unit_number ASC")
		}).
		Preload("Units.Resident").
		Preload("Dues", func(db *gorm.DB) *gorm.DB {
			return db.Order("year DESC, month DESC").Limit(6)
		}).
		First(&apartment).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("Failed to load apartment", zap.Error(err))
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	return c.JSON(http.StatusOK, apartment)
}

// UpdateApartment changes name and/or address, keeping current values for
// omitted fields.
func UpdateApartment(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	id, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	apartment, err := findOwnedApartment(database.GetDB(), id, managerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	var req struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil && *req.Name != "" {
		apartment.Name = *req.Name
	}
	if req.Address != nil && *req.Address != "" {
		apartment.Address = *req.Address
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(apartment).Error; err != nil {
		log.Error("Failed to update apartment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	return c.JSON(http.StatusOK, apartment)
}

// DeleteApartment removes the apartment and everything under it. Child
// rows go first (payments and invites of its units, then dues and units)
// so no orphaned foreign keys survive, and the whole cascade is one
// transaction.
func DeleteApartment(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	id, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	if _, err := findOwnedApartment(database.GetDB(), id, managerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var unitIDs []uint
		if err := tx.Model(&model.Unit{}).
			Where("apartment_id = ?", id).
			Pluck("id", &unitIDs).Error; err != nil {
			return err
		}

		if len(unitIDs) > 0 {
			if err := tx.Where("unit_id IN ?", unitIDs).Delete(&model.Payment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("unit_id IN ?", unitIDs).Delete(&model.Invite{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("apartment_id = ?", id).Delete(&model.Due{}).Error; err != nil {
			return err
		}
		if err := tx.Where("apartment_id = ?", id).Delete(&model.Unit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Apartment{}, id).Error
	})
	if err != nil {
		log.Error("Failed to delete apartment", zap.Error(err), zap.Uint("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	log.Info("Apartment deleted", zap.Uint("id", id), zap.Uint("manager_id", managerID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
