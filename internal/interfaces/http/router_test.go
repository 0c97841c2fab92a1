package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitoring/internal/application/dto"
	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/warehouse-monitoring/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var t0 = time.Date(2025, 2, 18, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	app       *fiber.App
	store     *memory.Store
	reconcile *inventory.ReconcileUseCase
}

func newAPI(t *testing.T, jwtSecret, rateLimit string) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	app := fiber.New()
	err := apphttp.Router(app, apphttp.RouterDeps{
		StockQuery:    inventory.NewStockQueryUseCase(store.StockRepository()),
		MovementQuery: inventory.NewMovementQueryUseCase(store.MovementRecordRepository(), nil),
		JWTSecret:     jwtSecret,
		JWTIssuer:     testIssuer,
		RateLimit:     rateLimit,
	})
	require.NoError(t, err)
	return &apiFixture{app: app, store: store, reconcile: inventory.NewReconcileUseCase(store, nil)}
}

func (f *apiFixture) apply(t *testing.T, movementID, warehouse, typ string, qty int64, ts time.Time) {
	t.Helper()
	_, err := f.reconcile.Apply(context.Background(), entity.MovementEvent{
		MovementID: movementID, WarehouseID: warehouse, ProductID: "P1",
		EventType: typ, Quantity: qty, Timestamp: ts,
	})
	require.NoError(t, err)
}

func (f *apiFixture) get(t *testing.T, path, auth string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStock_200(t *testing.T) {
	f := newAPI(t, "", "")
	f.apply(t, "M1", "W1", entity.EventTypeArrival, 10, t0)

	resp, body := f.get(t, "/api/warehouses/W1/products/P1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "W1", body["warehouse_id"])
	assert.Equal(t, "P1", body["product_id"])
	assert.Equal(t, 10.0, body["quantity"])
	assert.NotEmpty(t, body["last_updated"])
}

func TestGetStock_404(t *testing.T) {
	f := newAPI(t, "", "")
	resp, body := f.get(t, "/api/warehouses/W1/products/P1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestListByWarehouse_Paginado(t *testing.T) {
	f := newAPI(t, "", "")
	for _, p := range []string{"P1", "P2", "P3"} {
		_, err := f.reconcile.Apply(context.Background(), entity.MovementEvent{
			MovementID: "M-" + p, WarehouseID: "W1", ProductID: p,
			EventType: entity.EventTypeArrival, Quantity: 1, Timestamp: t0,
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/warehouses/W1/products?limit=2&offset=1", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.StockListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Items, 2)
	assert.Equal(t, "P2", out.Items[0].ProductID)
	assert.Equal(t, 2, out.Page.Limit)
	assert.Equal(t, 1, out.Page.Offset)
}

func TestListByWarehouse_ParametrosInvalidos_400(t *testing.T) {
	f := newAPI(t, "", "")
	for _, q := range []string{"limit=abc", "offset=-1", "limit=-5"} {
		resp, body := f.get(t, "/api/warehouses/W1/products?"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.Equal(t, "VALIDATION", body["code"], q)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestGetMovement_Emparejado(t *testing.T) {
	f := newAPI(t, "", "")
	f.apply(t, "seed", "W1", entity.EventTypeArrival, 5, t0.Add(-time.Hour))
	f.apply(t, "M2", "W1", entity.EventTypeDeparture, 5, t0)
	f.apply(t, "M2", "W2", entity.EventTypeArrival, 5, t0.Add(2*time.Hour))

	resp, body := f.get(t, "/api/movements/M2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "M2", body["movement_id"])
	assert.Equal(t, "W1", body["departure_warehouse"])
	assert.Equal(t, "W2", body["arrival_warehouse"])
	assert.Equal(t, 7200.0, body["transit_duration"])
	assert.Equal(t, 0.0, body["quantity_difference"])
}

func TestGetMovement_SoloLlegada_CamposNull(t *testing.T) {
	f := newAPI(t, "", "")
	f.apply(t, "M1", "W1", entity.EventTypeArrival, 10, t0)

	resp, body := f.get(t, "/api/movements/M1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, k := range []string{"departure_warehouse", "departure_time", "transit_duration", "quantity_difference"} {
		v, ok := body[k]
		assert.True(t, ok, "%s debe estar presente", k)
		assert.Nil(t, v, "%s debe ser null", k)
	}
	assert.Equal(t, "W1", body["arrival_warehouse"])
	assert.Equal(t, 10.0, body["quantity"])
}

func TestGetMovement_404(t *testing.T) {
	f := newAPI(t, "", "")
	resp, body := f.get(t, "/api/movements/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth y rate limit
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ConJWT_ExigeToken(t *testing.T) {
	f := newAPI(t, testJWTSecret, "")
	f.apply(t, "M1", "W1", entity.EventTypeArrival, 1, t0)

	resp, _ := f.get(t, "/api/warehouses/W1/products/P1", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.get(t, "/api/warehouses/W1/products/P1", tokenForRole(t, "viewer"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["quantity"])
}

func TestRouter_RateLimit(t *testing.T) {
	f := newAPI(t, "", "2-M")

	resp, _ := f.get(t, "/api/movements/x", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	resp, _ = f.get(t, "/api/movements/x", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := f.get(t, "/api/movements/x", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body["code"])
}

func TestRouter_RateLimitInvalido(t *testing.T) {
	err := apphttp.Router(fiber.New(), apphttp.RouterDeps{RateLimit: "mucho"})
	assert.Error(t, err)
}
