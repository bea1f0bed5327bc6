package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"stockmaster/internal/api"
	"stockmaster/internal/ledger"
	"stockmaster/internal/migrations"
)

// setupServer boots the full HTTP stack against an in-memory database and
// returns a test server plus a valid bearer token.
func setupServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	handler := api.New(db, ledger.New(db), "test-secret", zap.NewNop())
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)

	status, _ := request(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"loginId": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", status)
	}
	status, body := request(t, srv, http.MethodPost, "/api/auth/login", "", map[string]any{
		"loginId": "alice", "password": "hunter22",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login did not return a token")
	}
	return srv, token
}

// request performs a JSON round trip and decodes the response body into a
// generic map. Array responses are wrapped under the "items" key.
func request(t *testing.T, srv *httptest.Server, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, srv.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response of %s %s: %v", method, path, err)
	}
	switch v := decoded.(type) {
	case map[string]any:
		return resp.StatusCode, v
	case []any:
		return resp.StatusCode, map[string]any{"items": v}
	default:
		return resp.StatusCode, map[string]any{}
	}
}

func createTestItem(t *testing.T, srv *httptest.Server, token, sku string) int64 {
	t.Helper()
	status, body := request(t, srv, http.MethodPost, "/api/stock/items", token, map[string]any{
		"name": "Widget " + sku, "sku": sku, "price": "4.99",
	})
	if status != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d (%v)", status, body)
	}
	return int64(body["id"].(float64))
}

func createTestLocation(t *testing.T, srv *httptest.Server, token string, code string) (warehouseID, locationID int64) {
	t.Helper()
	status, body := request(t, srv, http.MethodPost, "/api/warehouses", token, map[string]any{
		"name": "Warehouse " + code, "code": "WH-" + code,
	})
	if status != http.StatusCreated {
		t.Fatalf("create warehouse: expected 201, got %d (%v)", status, body)
	}
	warehouseID = int64(body["id"].(float64))

	status, body = request(t, srv, http.MethodPost, "/api/warehouses/locations", token, map[string]any{
		"name": "Bay " + code, "code": code, "warehouseId": warehouseID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create location: expected 201, got %d (%v)", status, body)
	}
	return warehouseID, int64(body["id"].(float64))
}

func TestAuthRequired(t *testing.T) {
	srv, _ := setupServer(t)

	status, _ := request(t, srv, http.MethodGet, "/api/stock/items", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", status)
	}
	status, _ = request(t, srv, http.MethodGet, "/api/stock/items", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", status)
	}
}

func TestAuthFlow(t *testing.T) {
	srv, token := setupServer(t)

	status, body := request(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"loginId": "alice", "email": "other@example.com", "password": "pw",
	})
	if status != http.StatusBadRequest {
		t.Errorf("duplicate signup: expected 400, got %d (%v)", status, body)
	}

	status, _ = request(t, srv, http.MethodPost, "/api/auth/login", "", map[string]any{
		"loginId": "alice", "password": "wrong",
	})
	if status != http.StatusBadRequest {
		t.Errorf("bad password: expected 400, got %d", status)
	}

	status, body = request(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if body["loginId"] != "alice" {
		t.Errorf("expected loginId alice, got %v", body["loginId"])
	}
	if _, leaked := body["password"]; leaked {
		t.Error("profile response must not carry the password hash")
	}

	status, _ = request(t, srv, http.MethodPut, "/api/auth/me", token, map[string]any{
		"email": "new@example.com",
	})
	if status != http.StatusOK {
		t.Errorf("profile update: expected 200, got %d", status)
	}
}

func TestItemEndpoints(t *testing.T) {
	srv, token := setupServer(t)

	status, body := request(t, srv, http.MethodPost, "/api/stock/items", token, map[string]any{
		"name": "Bolt", "sku": "BOLT-1",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%v)", status, body)
	}
	if body["minStock"] != float64(10) {
		t.Errorf("expected default minStock 10, got %v", body["minStock"])
	}

	status, body = request(t, srv, http.MethodPost, "/api/stock/items", token, map[string]any{
		"name": "Bolt again", "sku": "BOLT-1",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate sku: expected 409, got %d (%v)", status, body)
	}

	status, _ = request(t, srv, http.MethodPost, "/api/stock/items", token, map[string]any{
		"name": "", "sku": "EMPTY",
	})
	if status != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", status)
	}

	status, body = request(t, srv, http.MethodGet, "/api/stock/items", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if items := body["items"].([]any); len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}

func TestWarehouseEndpoints(t *testing.T) {
	srv, token := setupServer(t)
	warehouseID, _ := createTestLocation(t, srv, token, "A1")

	status, _ := request(t, srv, http.MethodPost, "/api/warehouses", token, map[string]any{"name": "No code"})
	if status != http.StatusBadRequest {
		t.Errorf("warehouse without code: expected 400, got %d", status)
	}

	status, _ = request(t, srv, http.MethodPost, "/api/warehouses/locations", token, map[string]any{
		"name": "Orphan", "code": "X", "warehouseId": 999,
	})
	if status != http.StatusNotFound {
		t.Errorf("location for unknown warehouse: expected 404, got %d", status)
	}

	status, body := request(t, srv, http.MethodGet, "/api/warehouses", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list warehouses: expected 200, got %d", status)
	}
	warehouses := body["items"].([]any)
	if len(warehouses) != 1 {
		t.Fatalf("expected 1 warehouse, got %d", len(warehouses))
	}
	first := warehouses[0].(map[string]any)
	if first["locationCount"] != float64(1) {
		t.Errorf("expected locationCount 1, got %v", first["locationCount"])
	}

	status, body = request(t, srv, http.MethodGet, "/api/warehouses/locations", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list locations: expected 200, got %d", status)
	}
	locations := body["items"].([]any)
	if len(locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locations))
	}
	loc := locations[0].(map[string]any)
	if loc["warehouseName"] != "Warehouse A1" {
		t.Errorf("expected joined warehouse name, got %v", loc["warehouseName"])
	}

	status, _ = request(t, srv, http.MethodGet, fmt.Sprintf("/api/warehouses/%d/inventory", warehouseID), token, nil)
	if status != http.StatusOK {
		t.Errorf("empty inventory: expected 200, got %d", status)
	}
	status, _ = request(t, srv, http.MethodGet, "/api/warehouses/999/inventory", token, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown warehouse inventory: expected 404, got %d", status)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	srv, token := setupServer(t)
	itemID := createTestItem(t, srv, token, "TX-1")
	warehouseID, locA := createTestLocation(t, srv, token, "A")
	_, locB := createTestLocation(t, srv, token, "B")

	status, body := request(t, srv, http.MethodPost, "/api/stock/transactions", token, map[string]any{
		"stockItemId": itemID, "type": "RECEIPT", "quantity": 100, "locationId": locA,
	})
	if status != http.StatusCreated {
		t.Fatalf("receipt: expected 201, got %d (%v)", status, body)
	}
	if body["status"] != "COMPLETED" {
		t.Errorf("expected status COMPLETED, got %v", body["status"])
	}
	if body["createdAt"] == "" || body["createdAt"] == nil {
		t.Error("expected server-assigned timestamp")
	}
	receiptID := int64(body["id"].(float64))

	status, body = request(t, srv, http.MethodPost, "/api/stock/transactions", token, map[string]any{
		"stockItemId": itemID, "type": "DELIVERY", "quantity": 500, "locationId": locA,
	})
	if status != http.StatusBadRequest {
		t.Errorf("over-delivery: expected 400, got %d", status)
	}
	if body["error"] == "" {
		t.Error("expected a descriptive error message")
	}

	status, _ = request(t, srv, http.MethodPost, "/api/stock/transactions", token, map[string]any{
		"stockItemId": itemID, "type": "TRANSFER", "quantity": 10, "locationId": locA, "toLocationId": locA,
	})
	if status != http.StatusBadRequest {
		t.Errorf("same-location transfer: expected 400, got %d", status)
	}

	status, _ = request(t, srv, http.MethodPost, "/api/stock/transactions", token, map[string]any{
		"stockItemId": 999, "type": "RECEIPT", "quantity": 1, "locationId": locA,
	})
	if status != http.StatusNotFound {
		t.Errorf("unknown item: expected 404, got %d", status)
	}

	status, body = request(t, srv, http.MethodPost, "/api/stock/transactions", token, map[string]any{
		"stockItemId": itemID, "type": "TRANSFER", "quantity": 40, "locationId": locA, "toLocationId": locB,
	})
	if status != http.StatusCreated {
		t.Fatalf("transfer: expected 201, got %d (%v)", status, body)
	}

	status, body = request(t, srv, http.MethodGet, "/api/stock/transactions?limit=1", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	records := body["items"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected 1 record with limit=1, got %d", len(records))
	}
	if records[0].(map[string]any)["type"] != "TRANSFER" {
		t.Errorf("expected the transfer newest-first, got %v", records[0].(map[string]any)["type"])
	}

	status, body = request(t, srv, http.MethodGet, "/api/stock/transactions?type=RECEIPT", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list by type: expected 200, got %d", status)
	}
	if records := body["items"].([]any); len(records) != 1 {
		t.Errorf("expected 1 receipt, got %d", len(records))
	}

	status, body = request(t, srv, http.MethodGet, fmt.Sprintf("/api/stock/transactions/%d", receiptID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if body["itemSku"] != "TX-1" {
		t.Errorf("expected item enrichment, got %v", body["itemSku"])
	}
	status, _ = request(t, srv, http.MethodGet, "/api/stock/transactions/9999", token, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown transaction: expected 404, got %d", status)
	}

	status, body = request(t, srv, http.MethodGet, fmt.Sprintf("/api/warehouses/%d/inventory", warehouseID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("inventory: expected 200, got %d", status)
	}
	inventory := body["items"].([]any)
	if len(inventory) != 1 {
		t.Fatalf("expected 1 stock level in warehouse A, got %d", len(inventory))
	}
	if qty := inventory[0].(map[string]any)["quantity"]; qty != float64(60) {
		t.Errorf("expected 60 left at location A, got %v", qty)
	}

	status, body = request(t, srv, http.MethodGet, "/api/stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", status)
	}
	if body["totalStock"] != float64(100) {
		t.Errorf("expected totalStock 100, got %v", body["totalStock"])
	}
	if body["totalTransactions"] != float64(2) {
		t.Errorf("expected 2 transactions, got %v", body["totalTransactions"])
	}
	if body["receipts"] != float64(1) || body["deliveries"] != float64(0) {
		t.Errorf("expected 1 receipt / 0 deliveries, got %v / %v", body["receipts"], body["deliveries"])
	}
	// 100 units at 4.99 across two locations.
	if body["totalValue"] != "499" {
		t.Errorf("expected totalValue 499, got %v", body["totalValue"])
	}
}
