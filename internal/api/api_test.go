package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"molten/internal/db"
	"molten/internal/model"
	"molten/internal/shopping"
	"molten/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash))

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, target any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if target != nil {
		json.NewDecoder(resp.Body).Decode(target)
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	// Create item; the key is derived server-side.
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"manufacturer": "Effetre",
		"sku":          "204",
		"name":         "Intense Dark Blue",
		"type":         "rod",
	})
	var created model.Item
	doJSON(t, req, http.StatusCreated, &created)
	if created.Key != "EFFETRE-204" {
		t.Errorf("expected derived key EFFETRE-204, got %q", created.Key)
	}

	// List items.
	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	var items []model.Item
	doJSON(t, req, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	// Search via the q parameter.
	req, _ = authRequest("GET", server.URL+"/api/items?q=dark+blue", token, nil)
	doJSON(t, req, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 search match, got %d", len(items))
	}

	// Missing item is a 404.
	req, _ = authRequest("GET", server.URL+"/api/items/NOPE-1", token, nil)
	doJSON(t, req, http.StatusNotFound, nil)
}

func TestLedgerAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"manufacturer": "EF", "sku": "204", "name": "Dark Blue",
	})
	doJSON(t, req, http.StatusCreated, nil)

	// Open an inventory record.
	req, _ = authRequest("POST", server.URL+"/api/records", token, map[string]any{
		"item_key": "EF-204", "type": "rod", "quantity": 0,
	})
	var record model.InventoryRecord
	doJSON(t, req, http.StatusCreated, &record)

	// Add stock at two locations.
	req, _ = authRequest("POST", server.URL+"/api/records/"+record.ID+"/locations/add", token, map[string]any{
		"quantity": 10, "location": "shelf-a",
	})
	doJSON(t, req, http.StatusOK, nil)
	req, _ = authRequest("POST", server.URL+"/api/records/"+record.ID+"/locations/add", token, map[string]any{
		"quantity": 5, "location": "shelf-b",
	})
	doJSON(t, req, http.StatusOK, nil)

	// Move between locations.
	req, _ = authRequest("POST", server.URL+"/api/records/"+record.ID+"/locations/move", token, map[string]any{
		"quantity": 4, "from": "shelf-a", "to": "shelf-b",
	})
	doJSON(t, req, http.StatusOK, nil)

	// Over-subtracting is a conflict.
	req, _ = authRequest("POST", server.URL+"/api/records/"+record.ID+"/locations/subtract", token, map[string]any{
		"quantity": 100, "location": "shelf-b",
	})
	doJSON(t, req, http.StatusConflict, nil)

	// The record still balances.
	req, _ = authRequest("GET", server.URL+"/api/records/"+record.ID+"/validate", token, nil)
	var validation struct {
		Valid       bool    `json:"valid"`
		Discrepancy float64 `json:"discrepancy"`
	}
	doJSON(t, req, http.StatusOK, &validation)
	if !validation.Valid {
		t.Errorf("expected balanced record, discrepancy %g", validation.Discrepancy)
	}

	// Movements were journaled.
	req, _ = authRequest("GET", server.URL+"/api/records/"+record.ID+"/movements", token, nil)
	var movements []model.Movement
	doJSON(t, req, http.StatusOK, &movements)
	if len(movements) != 3 {
		t.Errorf("expected 3 journal entries, got %d", len(movements))
	}
}

func TestShoppingAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"manufacturer": "EF", "sku": "204", "name": "Dark Blue",
	})
	doJSON(t, req, http.StatusCreated, nil)

	// Threshold of 10 with 1 on hand.
	req, _ = authRequest("PUT", server.URL+"/api/minimums", token, map[string]any{
		"item_key": "EF-204", "type": "rod", "quantity": 10, "store": "Frantz",
	})
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("POST", server.URL+"/api/records", token, map[string]any{
		"item_key": "EF-204", "type": "rod", "quantity": 0,
	})
	var record model.InventoryRecord
	doJSON(t, req, http.StatusCreated, &record)
	req, _ = authRequest("POST", server.URL+"/api/records/"+record.ID+"/locations/add", token, map[string]any{
		"quantity": 1, "location": "shelf-a",
	})
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/shopping/list?store=Frantz", token, nil)
	var list []shopping.ShoppingListItem
	doJSON(t, req, http.StatusOK, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 shopping line, got %d", len(list))
	}
	if list[0].NeededQuantity != 9 || list[0].Priority != shopping.PriorityCritical {
		t.Errorf("unexpected shopping line %+v", list[0])
	}

	req, _ = authRequest("GET", server.URL+"/api/shopping/lists", token, nil)
	var lists map[string][]shopping.ShoppingListItem
	doJSON(t, req, http.StatusOK, &lists)
	if len(lists["Frantz"]) != 1 {
		t.Errorf("expected grouped list for Frantz, got %v", lists)
	}
}

func TestTagsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"manufacturer": "EF", "sku": "204", "name": "Dark Blue",
	})
	doJSON(t, req, http.StatusCreated, nil)

	// Tags normalize on write.
	req, _ = authRequest("PUT", server.URL+"/api/items/EF-204/tags", token, map[string]any{
		"tags": []string{"Dark Blue", "opaque"},
	})
	var tags []string
	doJSON(t, req, http.StatusOK, &tags)
	if len(tags) != 2 || tags[0] != "dark-blue" {
		t.Errorf("unexpected tags %v", tags)
	}

	// Invalid tag rejects the write.
	req, _ = authRequest("POST", server.URL+"/api/items/EF-204/tags", token, map[string]any{
		"tags": []string{"bad!tag"},
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// Membership query.
	req, _ = authRequest("GET", server.URL+"/api/tags/items?all=dark-blue,opaque", token, nil)
	var keys []string
	doJSON(t, req, http.StatusOK, &keys)
	if len(keys) != 1 || keys[0] != "EF-204" {
		t.Errorf("unexpected membership result %v", keys)
	}
}
