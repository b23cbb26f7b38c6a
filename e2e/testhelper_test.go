package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zyncrender/max-plugin/internal/auth"
	"github.com/zyncrender/max-plugin/internal/config"
	"github.com/zyncrender/max-plugin/internal/simulator"
)

const testJWTSecret = "test-secret-for-e2e"
const testEmail = "e2e@zyncrender.io"

// setupSim builds the simulator the way cmd/zyncsim does, but without
// Redis: jobs live in memory and render tasks run on inline goroutines,
// so the suite needs no external services.
func setupSim(t *testing.T) *simulator.Server {
	t.Helper()

	cfg := &config.Config{
		Sim: config.SimConfig{
			Port:         "0",
			Env:          "test",
			LogLevel:     "error",
			JWTSecret:    testJWTSecret,
			TokenTTL:     1,
			FrameDelayMs: 1, // 1ms per frame keeps simulated renders fast
		},
		Archive: config.ArchiveConfig{
			LocalDir: t.TempDir(),
		},
		RateLimit: config.RateLimitConfig{
			SubmitsPerHour: 10000,
		},
	}

	return simulator.NewServer(cfg)
}

// generateToken creates the session token a login would issue.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateSessionToken(testJWTSecret, testEmail, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the code inside the error envelope.
func assertErrorCode(t *testing.T, result map[string]interface{}, expected string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", result)
	}
	if errObj["code"] != expected {
		t.Errorf("expected error code %s, got %v", expected, errObj["code"])
	}
}

// validSubmitBody is a complete scanline submission: 20 frames in chunks
// of 5 on two machines.
func validSubmitBody() string {
	return `{
		"job_type": "3dsmax",
		"scene_file": "C:/scenes/e2e_scene.max",
		"params": {
			"camera": "Camera001",
			"chunk_size": 5,
			"distributed": 0,
			"frange": "1-20",
			"instance_type": "ZYNC_16VCPU_32GB",
			"notify_complete": 0,
			"num_instances": 2,
			"output_name": "C:/Renders/beauty.exr",
			"plugin_version": "0.3.1",
			"priority": 50,
			"proj_name": "e2e_project",
			"renderer": "scanline",
			"scene_info": {"max_version": "2018.4", "project_path": "C:/Projects/E2E"},
			"step": 1,
			"upload_only": 0,
			"xres": 1920,
			"yres": 1080
		}
	}`
}

// pollJob follows a job until it reaches a terminal status.
func pollJob(t *testing.T, app *fiber.App, jobID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := doAuthRequest(t, app, http.MethodGet, "/api/v1/jobs/"+jobID, "")
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusOK)

		result := parseJSON(t, resp)
		switch result["status"] {
		case "succeeded", "failed", "canceled":
			return result
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status within 10s")
	return nil
}
