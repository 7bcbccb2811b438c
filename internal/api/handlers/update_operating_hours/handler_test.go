package update_operating_hours

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

	"github.com/m04kA/SMC-SlotBooking/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBooking/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/cache"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SlotBooking/internal/service/businesses"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	store  *memory.Store
	cached *cache.Businesses
	router *mux.Router
}

func newFixture() *fixture {
	store := memory.NewStore()
	store.AddBusiness(domain.Business{ID: 7, OwnerID: 100, Slug: "pho-salon", Capacity: 2, Timezone: "UTC",
		OperatingHours: domain.DefaultOperatingHours()})
	cached := cache.NewBusinesses(store.Businesses(), time.Minute)
	svc := businesses.NewService(cached, store.Bookings(), nopLogger{})

	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/dashboard/businesses/{businessId}/operating-hours", NewHandler(svc, nopLogger{}).Handle)

	return &fixture{store: store, cached: cached, router: r}
}

func (f *fixture) put(user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/dashboard/businesses/7/operating-hours", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, user)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func put(t *testing.T, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	return newFixture().put(user, body)
}

func TestHandle_Saved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// прогреваем кеш старыми часами
	before, err := f.cached.GetByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "09:00", before.OperatingHours["monday"].Open.String())

	rec := f.put("100", `{"operatingHours":{"monday":{"open":"08:00","close":"12:00","breaks":[{"start":"10:00","end":"10:15"}]},"sunday":{"closed":true}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"open":"08:00"`)

	stored, err := f.store.Businesses().GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "08:00", stored.OperatingHours["monday"].Open.String())
	assert.Equal(t, "12:00", stored.OperatingHours["monday"].Close.String())
	assert.True(t, stored.OperatingHours["sunday"].Closed)

	// запись кеша сброшена обновлением
	fromCache, err := f.cached.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "08:00", fromCache.OperatingHours["monday"].Open.String())
}

func TestHandle_ValidationFields(t *testing.T) {
	f := newFixture()
	rec := f.put("100", `{"operatingHours":{"monday":{"open":"09:00","close":"17:00","breaks":[{"start":"12:00","end":"13:00"},{"start":"12:30","end":"14:00"}]}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Fields)
	assert.Equal(t, "operating_hours.monday.breaks", body.Fields[0].Field)

	stored, err := f.store.Businesses().GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "09:00", stored.OperatingHours["monday"].Open.String(), "rejected hours must not be stored")
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, 403, put(t, "5", `{"operatingHours":{}}`).Code)
	assert.Equal(t, 400, put(t, "100", `{}`).Code)
	assert.Equal(t, 401, put(t, "", `{"operatingHours":{}}`).Code)
}
