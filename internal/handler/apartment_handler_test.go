package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"aidat-service/internal/model"
	"aidat-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApartment(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")

	c, rec := newContext(t, http.MethodPost, "/api/apartments", map[string]interface{}{
		"name":    "Çınar Apartmanı",
		"address": "Bağdat Cad. 42, Kadıköy",
	})
	asUser(c, admin)
	require.NoError(t, CreateApartment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var apartment model.Apartment
	require.NoError(t, database.GetDB().
		Where("manager_id = ?", admin.ID).First(&apartment).Error)
	assert.Equal(t, "Çınar Apartmanı", apartment.Name)
}

func TestCreateApartmentRequiresNameAndAddress(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")

	c, rec := newContext(t, http.MethodPost, "/api/apartments", map[string]interface{}{
		"name": "Çınar Apartmanı",
	})
	asUser(c, admin)
	require.NoError(t, CreateApartment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApartmentsOnlyOwn(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	other := createAdmin(t, "baskasi@example.com")
	mine := createApartment(t, admin.ID)
	createApartment(t, other.ID)
	createUnit(t, mine.ID, "1", nil)
	createUnit(t, mine.ID, "2", nil)

	c, rec := newContext(t, http.MethodGet, "/api/apartments", nil)
	asUser(c, admin)
	require.NoError(t, ListApartments(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, jsonDecode(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(mine.ID), out[0]["id"])
	assert.Equal(t, float64(2), out[0]["unit_count"])
}

func TestGetApartmentForeignManagerIsNotFound(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	other := createAdmin(t, "baskasi@example.com")
	apartment := createApartment(t, admin.ID)

	c, rec := newContext(t, http.MethodGet, "/api/apartments/1", nil)
	asUser(c, other)
	setParams(c, "id", fmt.Sprint(apartment.ID))
	require.NoError(t, GetApartment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateApartmentKeepsOmittedFields(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	apartment := createApartment(t, admin.ID)

	c, rec := newContext(t, http.MethodPatch, "/api/apartments/1", map[string]interface{}{
		"name": "Yeni Ad",
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID))
	require.NoError(t, UpdateApartment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Apartment
	require.NoError(t, database.GetDB().First(&got, apartment.ID).Error)
	assert.Equal(t, "Yeni Ad", got.Name)
	assert.Equal(t, apartment.Address, got.Address)
}

func TestDeleteApartmentCascades(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	resident := createResident(t, "sakin@example.com")
	apartment := createApartment(t, admin.ID)
	unit := createUnit(t, apartment.ID, "5", &resident.ID)
	due := createDue(t, apartment.ID, 6, 2024)
	seedInvite(t, unit.ID, admin.ID, "yeni@example.com", time.Now().Add(time.Hour))

	payment := model.Payment{
		DueID: due.ID, UnitID: unit.ID, ResidentID: resident.ID,
		Status: model.PaymentPending, ReceiptURL: "u", UploadedAt: time.Now(),
	}
	require.NoError(t, database.GetDB().Create(&payment).Error)

	c, rec := newContext(t, http.MethodDelete, "/api/apartments/1", nil)
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID))
	require.NoError(t, DeleteApartment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, m := range []interface{}{
		&model.Apartment{}, &model.Unit{}, &model.Due{},
		&model.Payment{}, &model.Invite{},
	} {
		var count int64
		database.GetDB().Model(m).Count(&count)
		assert.Zero(t, count)
	}

	// The resident account itself survives.
	var users int64
	database.GetDB().Model(&model.User{}).Count(&users)
	assert.Equal(t, int64(2), users)
}

func TestCreateUnitRejectsDuplicateNumber(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	apartment := createApartment(t, admin.ID)
	createUnit(t, apartment.ID, "5", nil)

	c, rec := newContext(t, http.MethodPost, "/api/apartments/1/units", map[string]interface{}{
		"unitNumber": "5",
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID))
	require.NoError(t, CreateUnit(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bu daire numarası zaten mevcut.")
}

func TestCreateUnitStorageFailureIsServerError(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	apartment := createApartment(t, admin.ID)

	require.NoError(t, database.GetDB().Migrator().DropTable(&model.Unit{}))

	c, rec := newContext(t, http.MethodPost, "/api/apartments/1/units", map[string]interface{}{
		"unitNumber": "5",
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID))
	require.NoError(t, CreateUnit(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateUnitSameNumberDifferentApartments(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	first := createApartment(t, admin.ID)
	second := createApartment(t, admin.ID)
	createUnit(t, first.ID, "5", nil)

	c, rec := newContext(t, http.MethodPost, "/api/apartments/2/units", map[string]interface{}{
		"unitNumber": "5",
		"floor":      2,
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(second.ID))
	require.NoError(t, CreateUnit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateUnitRemovesResident(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	resident := createResident(t, "sakin@example.com")
	apartment := createApartment(t, admin.ID)
	unit := createUnit(t, apartment.ID, "5", &resident.ID)

	c, rec := newContext(t, http.MethodPatch, "/api/apartments/1/units/1", map[string]interface{}{
		"action": "remove_resident",
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID), "unitId", fmt.Sprint(unit.ID))
	require.NoError(t, UpdateUnit(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Unit
	require.NoError(t, database.GetDB().First(&got, unit.ID).Error)
	assert.Nil(t, got.ResidentID)
}

func TestUpdateUnitVacantHasNoResidentToRemove(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	apartment := createApartment(t, admin.ID)
	unit := createUnit(t, apartment.ID, "5", nil)

	c, rec := newContext(t, http.MethodPatch, "/api/apartments/1/units/1", map[string]interface{}{
		"action": "remove_resident",
	})
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID), "unitId", fmt.Sprint(unit.ID))
	require.NoError(t, UpdateUnit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUnitRefusesOccupied(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	resident := createResident(t, "sakin@example.com")
	apartment := createApartment(t, admin.ID)
	unit := createUnit(t, apartment.ID, "5", &resident.ID)

	c, rec := newContext(t, http.MethodDelete, "/api/apartments/1/units/1", nil)
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID), "unitId", fmt.Sprint(unit.ID))
	require.NoError(t, DeleteUnit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Önce sakini kaldırın.")

	var count int64
	database.GetDB().Model(&model.Unit{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUnitVacant(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "yonetici@example.com")
	apartment := createApartment(t, admin.ID)
	unit := createUnit(t, apartment.ID, "5", nil)

	c, rec := newContext(t, http.MethodDelete, "/api/apartments/1/units/1", nil)
	asUser(c, admin)
	setParams(c, "id", fmt.Sprint(apartment.ID), "unitId", fmt.Sprint(unit.ID))
	require.NoError(t, DeleteUnit(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	database.GetDB().Model(&model.Unit{}).Count(&count)
	assert.Zero(t, count)
}
