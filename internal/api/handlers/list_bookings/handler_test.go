package list_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeService struct {
	got *models.ListBookingsRequest
	err error
}

func (f *fakeService) ListForDay(_ context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingListResponse{Date: "2025-03-14", Bookings: []models.BookingResponse{}}, nil
}

func get(svc *fakeService, url string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/dashboard/businesses/{businessId}/bookings", NewHandler(svc, nopLogger{}).Handle)

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set(middleware.UserIDHeader, "100")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_PassesFilters(t *testing.T) {
	svc := &fakeService{}
	rec := get(svc, "/dashboard/businesses/7/bookings?date=2025-03-14&status=pending&source=walk_in")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(7), svc.got.BusinessID)
	assert.Equal(t, int64(100), svc.got.UserID)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), svc.got.Date)
	assert.Equal(t, "pending", *svc.got.Status)
	assert.Equal(t, "walk_in", *svc.got.Source)
	assert.Contains(t, rec.Body.String(), `"bookings":[]`)
}

func TestHandle_NoDate(t *testing.T) {
	svc := &fakeService{}
	rec := get(svc, "/dashboard/businesses/7/bookings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.got.Date.IsZero())
	assert.Nil(t, svc.got.Status)
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, 400, get(&fakeService{}, "/dashboard/businesses/7/bookings?date=yesterday").Code)
	assert.Equal(t, 400, get(&fakeService{err: bookings.ErrInvalidInput}, "/dashboard/businesses/7/bookings?status=done").Code)
	assert.Equal(t, 403, get(&fakeService{err: bookings.ErrAccessDenied}, "/dashboard/businesses/7/bookings").Code)
	assert.Equal(t, 404, get(&fakeService{err: bookings.ErrBusinessNotFound}, "/dashboard/businesses/7/bookings").Code)
}
