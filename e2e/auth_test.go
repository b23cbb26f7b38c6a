package e2e

import (
	"net/http"
	"testing"
)

func TestLogin_Success(t *testing.T) {
	srv := setupSim(t)

	body := `{"email": "artist@studio.io", "password": "secret"}`
	resp, err := doRequest(srv.App(), http.MethodPost, "/api/v1/auth/login", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	token, ok := result["token"].(string)
	if !ok || token == "" {
		t.Fatal("expected 'token' in response")
	}
	if result["email"] != "artist@studio.io" {
		t.Errorf("expected email 'artist@studio.io', got %v", result["email"])
	}

	// The issued token must open the authenticated API.
	resp, err = doRequest(srv.App(), http.MethodGet, "/api/v1/account", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		t.Fatalf("account request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	account := parseJSON(t, resp)
	if account["email"] != "artist@studio.io" {
		t.Errorf("expected account email 'artist@studio.io', got %v", account["email"])
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodPost, "/api/v1/auth/login", `{not json`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
}

func TestLogin_MissingPassword(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodPost, "/api/v1/auth/login", `{"email": "artist@studio.io"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	assertErrorCode(t, result, "VALIDATION_ERROR")

	errObj := result["error"].(map[string]interface{})
	details, ok := errObj["details"].(map[string]interface{})
	if !ok {
		t.Fatal("expected validation details")
	}
	if details["Password"] != "required" {
		t.Errorf("expected Password:required in details, got %v", details)
	}
}

func TestLogin_MalformedEmail(t *testing.T) {
	srv := setupSim(t)

	body := `{"email": "not-an-email", "password": "secret"}`
	resp, err := doRequest(srv.App(), http.MethodPost, "/api/v1/auth/login", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestAuth_NoToken(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodGet, "/api/v1/account", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)

	result := parseJSON(t, resp)
	assertErrorCode(t, result, "UNAUTHORIZED")
	errObj := result["error"].(map[string]interface{})
	if errObj["message"] != "Missing authorization header" {
		t.Errorf("unexpected message %v", errObj["message"])
	}
}

func TestAuth_BadHeaderFormat(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodGet, "/api/v1/account", "", map[string]string{
		"Authorization": "Basic dXNlcjpwYXNz",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)

	result := parseJSON(t, resp)
	errObj := result["error"].(map[string]interface{})
	if errObj["message"] != "Invalid authorization header format" {
		t.Errorf("unexpected message %v", errObj["message"])
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodGet, "/api/v1/account", "", map[string]string{
		"Authorization": "Bearer not-a-real-token",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)

	result := parseJSON(t, resp)
	errObj := result["error"].(map[string]interface{})
	if errObj["message"] != "Invalid or expired token" {
		t.Errorf("unexpected message %v", errObj["message"])
	}
}

func TestLogout_Success(t *testing.T) {
	srv := setupSim(t)

	resp, err := doAuthRequest(t, srv.App(), http.MethodPost, "/api/v1/auth/logout", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNoContent)
	if body := readBody(t, resp); body != "" {
		t.Errorf("expected empty body, got %q", body)
	}
}

func TestLogout_NoAuth(t *testing.T) {
	srv := setupSim(t)

	resp, err := doRequest(srv.App(), http.MethodPost, "/api/v1/auth/logout", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}
