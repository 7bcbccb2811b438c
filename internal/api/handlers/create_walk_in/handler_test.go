package create_walk_in

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings/models"
	createWalkIn "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_walk_in"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeUseCase struct {
	got *createWalkIn.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createWalkIn.Request) (*createWalkIn.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	now := time.Date(2025, 3, 14, 9, 10, 0, 0, time.UTC)
	return &createWalkIn.Response{
		Booking: &domain.Booking{
			ID: 21, BusinessID: req.BusinessID, CustomerName: req.Name, ScheduledAt: now,
			Status: domain.StatusInProgress, Source: domain.SourceWalkIn, StartedAt: &now,
			Services: []*domain.Service{{ID: 1, Name: "Haircut", DurationMinutes: 30}},
		},
		Location: time.UTC,
	}, nil
}

func post(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/dashboard/businesses/{businessId}/walk-ins", NewHandler(uc, nopLogger{}).Handle)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/businesses/7/walk-ins", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, "100")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{}
	rec := post(uc, `{"serviceIds":[1],"customer":{"name":"Minh","phone":"0901234567"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, int64(100), uc.got.UserID)
	assert.Equal(t, int64(7), uc.got.BusinessID)
	assert.Nil(t, uc.got.ScheduledAt)

	var body models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "in_progress", body.Status)
	assert.Equal(t, "walk_in", body.Source)
	assert.Equal(t, "09:40", body.EndTime.String())
}

func TestHandle_Errors(t *testing.T) {
	body := `{"serviceIds":[1],"customer":{"name":"Minh","phone":"0901234567"}}`
	assert.Equal(t, 400, post(&fakeUseCase{}, `{"serviceIds":"x"}`).Code)
	assert.Equal(t, 403, post(&fakeUseCase{err: createWalkIn.ErrAccessDenied}, body).Code)
	assert.Equal(t, 409, post(&fakeUseCase{err: createWalkIn.ErrCapacityReached}, body).Code)
	assert.Equal(t, 422, post(&fakeUseCase{err: createWalkIn.ErrNoServices}, body).Code)
	assert.Equal(t, 422, post(&fakeUseCase{err: createWalkIn.ErrValidation}, body).Code)
	assert.Equal(t, 503, post(&fakeUseCase{err: createWalkIn.ErrTryAgain}, body).Code)
}
