package zync

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/zyncrender/max-plugin/internal/model"
)

type fakeBackend struct {
	account       string
	projects      []Project
	instanceTypes []InstanceType

	catalogRenderer string
	catalogUsageTag string
	catalogCalls    int
	submitted       []*SubmitJobRequest
	submitErr       error
	loggedOut       bool
}

func (f *fakeBackend) IsConfigured() bool { return true }

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	return &LoginResponse{Token: "token", Email: email}, nil
}

func (f *fakeBackend) Account(ctx context.Context) (*AccountResponse, error) {
	return &AccountResponse{Email: f.account}, nil
}

func (f *fakeBackend) Projects(ctx context.Context) ([]Project, error) {
	return f.projects, nil
}

func (f *fakeBackend) InstanceTypes(ctx context.Context, renderer, usageTag string) ([]InstanceType, error) {
	f.catalogRenderer = renderer
	f.catalogUsageTag = usageTag
	f.catalogCalls++
	return f.instanceTypes, nil
}

func (f *fakeBackend) SubmitJob(ctx context.Context, req *SubmitJobRequest) (*SubmitJobResponse, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return &SubmitJobResponse{JobID: "job-1", Status: "queued"}, nil
}

func (f *fakeBackend) JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	return &JobStatusResponse{JobID: jobID, Status: "queued"}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.loggedOut = true
	return nil
}

type fakeConsent struct {
	answer   bool
	prompted bool
}

func (f *fakeConsent) Prompt() (bool, error) {
	f.prompted = true
	return f.answer, nil
}

func newTestBackend() *fakeBackend {
	return &fakeBackend{
		account:  "test_user@zync.io",
		projects: []Project{{Name: "Project1"}, {Name: "Project2"}},
		instanceTypes: []InstanceType{
			{Label: "16 vCPUs, 32GB RAM", Code: "ZYNC_16VCPU_32GB", PricePerHour: 1.58},
			{Label: "free tier", Code: "ZYNC_FREE", PricePerHour: 0},
			{Label: "(PVM) 16 vCPUs, 32GB RAM", Code: "PREEMPTIBLE_ZYNC_16VCPU_32GB", PricePerHour: 0.48, Preemptible: true},
		},
	}
}

func TestService_Connect(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	if err := service.Connect(); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if got := service.LoggedAs(); got != "test_user@zync.io" {
		t.Errorf("LoggedAs = %q, want %q", got, "test_user@zync.io")
	}
}

func TestService_InstanceTypeLabels(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	labels, err := service.InstanceTypeLabels("scanline", "3dsmax")
	if err != nil {
		t.Fatalf("InstanceTypeLabels returned error: %v", err)
	}
	want := []string{"16 vCPUs, 32GB RAM", "free tier", "(PVM) 16 vCPUs, 32GB RAM"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
	if backend.catalogRenderer != "scanline-3dsmax" {
		t.Errorf("catalog renderer = %q, want %q", backend.catalogRenderer, "scanline-3dsmax")
	}
	if backend.catalogUsageTag != "3dsmax" {
		t.Errorf("catalog usage tag = %q, want %q", backend.catalogUsageTag, "3dsmax")
	}
}

func TestService_InstanceTypeLabels_CachesCatalog(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	if _, err := service.InstanceTypeLabels("scanline", "3dsmax"); err != nil {
		t.Fatalf("InstanceTypeLabels returned error: %v", err)
	}
	if _, err := service.EstimatedCost("16 vCPUs, 32GB RAM", "scanline", 2); err != nil {
		t.Fatalf("EstimatedCost returned error: %v", err)
	}
	if _, err := service.InstanceType("16 vCPUs, 32GB RAM", "scanline"); err != nil {
		t.Fatalf("InstanceType returned error: %v", err)
	}
	if backend.catalogCalls != 1 {
		t.Errorf("catalog fetched %d times, want 1", backend.catalogCalls)
	}
}

func TestService_EstimatedCost(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	cases := []struct {
		name  string
		label string
		count int
		want  string
	}{
		{"no selection", "", 2, "unknown"},
		{"known type", "16 vCPUs, 32GB RAM", 2, "$ 3.16"},
		{"single machine", "(PVM) 16 vCPUs, 32GB RAM", 1, "$ 0.48"},
		{"unpriced type", "free tier", 3, "unknown"},
		{"unknown type", "no such machine", 3, "unknown"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := service.EstimatedCost(c.label, "scanline", c.count)
			if err != nil {
				t.Fatalf("EstimatedCost returned error: %v", err)
			}
			if got != c.want {
				t.Errorf("EstimatedCost(%q, %d) = %q, want %q", c.label, c.count, got, c.want)
			}
		})
	}
}

func TestService_InstanceType(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	code, err := service.InstanceType("(PVM) 16 vCPUs, 32GB RAM", "scanline")
	if err != nil {
		t.Fatalf("InstanceType returned error: %v", err)
	}
	if code != "PREEMPTIBLE_ZYNC_16VCPU_32GB" {
		t.Errorf("InstanceType = %q, want %q", code, "PREEMPTIBLE_ZYNC_16VCPU_32GB")
	}

	if _, err := service.InstanceType("no such machine", "scanline"); err == nil {
		t.Error("expected error for unknown instance type label")
	}
}

func TestService_ExistingProjectNames(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	names, err := service.ExistingProjectNames()
	if err != nil {
		t.Fatalf("ExistingProjectNames returned error: %v", err)
	}
	if len(names) != 2 || names[0] != "Project1" || names[1] != "Project2" {
		t.Errorf("ExistingProjectNames = %v, want [Project1 Project2]", names)
	}
}

func TestService_StandaloneAvailability(t *testing.T) {
	v1 := NewService(newTestBackend(), nil, nil, Options{})
	v2 := NewService(newTestBackend(), nil, nil, Options{IsV2: true})

	if v1.IsRendererAvailableAsStandalone("arnold") {
		t.Error("standalone must not be offered on the v1 backend")
	}
	if !v1.IsRendererAvailableAsNonStandalone("scanline") {
		t.Error("non-standalone must be offered on the v1 backend")
	}
	if !v2.IsRendererAvailableAsStandalone("arnold") || !v2.IsRendererAvailableAsStandalone("vray") {
		t.Error("arnold and vray standalone must be offered on the v2 backend")
	}
	if v2.IsRendererAvailableAsStandalone("scanline") {
		t.Error("scanline standalone must not be offered")
	}
	if v2.IsRendererAvailableAsNonStandalone("scanline") {
		t.Error("non-standalone must not be offered on the v2 backend")
	}
}

func TestService_SubmitJob(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	params := model.SubmissionParams{ProjName: "test_project", Renderer: model.RendererScanline}
	if err := service.SubmitJob("C:/scene.max", params, "3dsmax"); err != nil {
		t.Fatalf("SubmitJob returned error: %v", err)
	}

	if len(backend.submitted) != 1 {
		t.Fatalf("expected 1 submitted job, got %d", len(backend.submitted))
	}
	req := backend.submitted[0]
	if req.JobType != "3dsmax" || req.SceneFile != "C:/scene.max" {
		t.Errorf("submitted request = %+v", req)
	}
	if req.Params.ProjName != "test_project" {
		t.Errorf("submitted project = %q, want %q", req.Params.ProjName, "test_project")
	}
}

func TestService_SubmitJobError(t *testing.T) {
	backend := newTestBackend()
	backend.submitErr = errors.New("zync API error (status 422): Please specify project name")
	service := NewService(backend, nil, nil, Options{})

	err := service.SubmitJob("C:/scene.max", model.SubmissionParams{}, "3dsmax")
	if err == nil || !strings.Contains(err.Error(), "Please specify project name") {
		t.Fatalf("expected backend error to surface, got %v", err)
	}
}

func TestService_Logout(t *testing.T) {
	backend := newTestBackend()
	service := NewService(backend, nil, nil, Options{})

	if err := service.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if !backend.loggedOut {
		t.Error("expected backend logout to be called")
	}
}

func TestService_PvmConsent(t *testing.T) {
	consent := &fakeConsent{answer: true}
	service := NewService(newTestBackend(), nil, consent, Options{PvmAck: true})
	granted, err := service.PvmConsent()
	if err != nil {
		t.Fatalf("PvmConsent returned error: %v", err)
	}
	if !granted {
		t.Error("expected standing acknowledgement to grant consent")
	}
	if consent.prompted {
		t.Error("prompter must not run when consent is acknowledged in configuration")
	}

	consent = &fakeConsent{answer: false}
	service = NewService(newTestBackend(), nil, consent, Options{})
	granted, err = service.PvmConsent()
	if err != nil {
		t.Fatalf("PvmConsent returned error: %v", err)
	}
	if granted {
		t.Error("expected declined prompt to deny consent")
	}
	if !consent.prompted {
		t.Error("expected prompter to run")
	}

	service = NewService(newTestBackend(), nil, nil, Options{})
	granted, err = service.PvmConsent()
	if err != nil {
		t.Fatalf("PvmConsent returned error: %v", err)
	}
	if granted {
		t.Error("expected missing prompter to deny consent")
	}
}

func TestService_GenerateFilePath(t *testing.T) {
	workDir := t.TempDir()
	service := NewService(newTestBackend(), nil, nil, Options{WorkDir: workDir})

	generated, err := service.GenerateFilePath(`C:\Export\scene_1-10_camera`)
	if err != nil {
		t.Fatalf("GenerateFilePath returned error: %v", err)
	}
	if path.Base(generated) != "scene_1-10_camera" {
		t.Errorf("generated base = %q, want %q", path.Base(generated), "scene_1-10_camera")
	}
	if !strings.HasPrefix(generated, path.Join(workDir, "zync")+"/") {
		t.Errorf("generated path %q not under %q", generated, path.Join(workDir, "zync"))
	}
	if _, err := os.Stat(path.Dir(generated)); err != nil {
		t.Errorf("export directory missing: %v", err)
	}
}

func TestService_GenerateFilePath_UniquePaths(t *testing.T) {
	service := NewService(newTestBackend(), nil, nil, Options{WorkDir: t.TempDir()})

	first, err := service.GenerateFilePath("scene")
	if err != nil {
		t.Fatalf("GenerateFilePath returned error: %v", err)
	}
	second, err := service.GenerateFilePath("scene")
	if err != nil {
		t.Fatalf("GenerateFilePath returned error: %v", err)
	}
	if first == second {
		t.Errorf("expected unique paths, got %q twice", first)
	}
}

func TestService_MockFallback(t *testing.T) {
	service := NewService(nil, nil, nil, Options{})

	if err := service.Connect(); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if service.LoggedAs() == "" {
		t.Error("expected mock account identity")
	}

	labels, err := service.InstanceTypeLabels("scanline", "3dsmax")
	if err != nil {
		t.Fatalf("InstanceTypeLabels returned error: %v", err)
	}
	if len(labels) == 0 {
		t.Error("expected mock machine catalog")
	}

	names, err := service.ExistingProjectNames()
	if err != nil {
		t.Fatalf("ExistingProjectNames returned error: %v", err)
	}
	if len(names) == 0 {
		t.Error("expected mock project list")
	}

	if err := service.SubmitJob("C:/scene.max", model.SubmissionParams{}, "3dsmax"); err != nil {
		t.Errorf("mock SubmitJob returned error: %v", err)
	}
	if err := service.Logout(); err != nil {
		t.Errorf("mock Logout returned error: %v", err)
	}
}
