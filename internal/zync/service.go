package zync

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/google/uuid"

	"github.com/zyncrender/max-plugin/internal/model"
)

// Service implements API against a RenderBackend, caching the account
// identity and machine catalog for the lifetime of the dialog.
type Service struct {
	backend RenderBackend
	browser FileBrowser
	consent ConsentPrompter

	workDir  string
	isV2     bool
	pvmAck   bool
	loggedAs string

	instanceTypes map[string][]InstanceType
}

// Options carries the account-independent service settings.
type Options struct {
	WorkDir string
	IsV2    bool
	PvmAck  bool
}

// NewService creates a new Zync service facade
func NewService(backend RenderBackend, browser FileBrowser, consent ConsentPrompter, opts Options) *Service {
	return &Service{
		backend:       backend,
		browser:       browser,
		consent:       consent,
		workDir:       opts.WorkDir,
		isV2:          opts.IsV2,
		pvmAck:        opts.PvmAck,
		instanceTypes: make(map[string][]InstanceType),
	}
}

// Connect resolves the account identity behind the configured token.
func (s *Service) Connect() error {
	// Use mock account if the client is not configured
	if s.backend == nil || !s.backend.IsConfigured() {
		log.Println("Info: Zync API not configured, using mock account")
		s.loggedAs = "mock_user@zync.io"
		return nil
	}

	account, err := s.backend.Account(context.Background())
	if err != nil {
		return fmt.Errorf("failed to resolve account: %w", err)
	}
	s.loggedAs = account.Email
	return nil
}

// LoggedAs returns the email of the connected account
func (s *Service) LoggedAs() string {
	return s.loggedAs
}

// IsV2 reports whether the account runs against the v2 backend
func (s *Service) IsV2() bool {
	return s.isV2
}

// IsRendererAvailableAsStandalone reports whether the renderer can submit
// exported standalone scenes on this backend
func (s *Service) IsRendererAvailableAsStandalone(rendererName string) bool {
	if !s.isV2 {
		return false
	}
	return rendererName == "arnold" || rendererName == "vray"
}

// IsRendererAvailableAsNonStandalone reports whether the renderer can
// submit original scene files on this backend
func (s *Service) IsRendererAvailableAsNonStandalone(rendererName string) bool {
	return !s.isV2
}

// wireRenderer is the renderer identifier the backend catalogs machines
// under.
func wireRenderer(rendererType string) string {
	return fmt.Sprintf("%s-3dsmax", rendererType)
}

func (s *Service) fetchInstanceTypes(rendererType, usageTag string) ([]InstanceType, error) {
	if types, ok := s.instanceTypes[rendererType]; ok {
		return types, nil
	}

	// Use mock catalog if the client is not configured
	if s.backend == nil || !s.backend.IsConfigured() {
		types := mockInstanceTypes(rendererType)
		s.instanceTypes[rendererType] = types
		return types, nil
	}

	types, err := s.backend.InstanceTypes(context.Background(), wireRenderer(rendererType), usageTag)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve instance types: %w", err)
	}
	s.instanceTypes[rendererType] = types
	return types, nil
}

// EstimatedCost formats the hourly cost of instanceCount machines of the
// given type, or "unknown" when the price cannot be resolved.
func (s *Service) EstimatedCost(instanceTypeLabel, rendererType string, instanceCount int) (string, error) {
	if instanceTypeLabel == "" {
		return "unknown", nil
	}
	types, err := s.fetchInstanceTypes(rendererType, "")
	if err != nil {
		return "", err
	}
	for _, instanceType := range types {
		if instanceType.Label != instanceTypeLabel {
			continue
		}
		if instanceType.PricePerHour <= 0 {
			return "unknown", nil
		}
		return fmt.Sprintf("$ %.2f", instanceType.PricePerHour*float64(instanceCount)), nil
	}
	return "unknown", nil
}

// InstanceTypeLabels returns the machine labels offered for a renderer
func (s *Service) InstanceTypeLabels(rendererType, usageTag string) ([]string, error) {
	types, err := s.fetchInstanceTypes(rendererType, usageTag)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(types))
	for _, instanceType := range types {
		labels = append(labels, instanceType.Label)
	}
	return labels, nil
}

// InstanceType resolves a machine label to its submission code
func (s *Service) InstanceType(instanceTypeLabel, rendererType string) (string, error) {
	types, err := s.fetchInstanceTypes(rendererType, "")
	if err != nil {
		return "", err
	}
	for _, instanceType := range types {
		if instanceType.Label == instanceTypeLabel {
			return instanceType.Code, nil
		}
	}
	return "", fmt.Errorf("unknown instance type: %s", instanceTypeLabel)
}

// ExistingProjectNames returns the render projects on the account
func (s *Service) ExistingProjectNames() ([]string, error) {
	// Use mock projects if the client is not configured
	if s.backend == nil || !s.backend.IsConfigured() {
		return []string{"mock_project"}, nil
	}

	projects, err := s.backend.Projects(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %w", err)
	}
	names := make([]string, 0, len(projects))
	for _, project := range projects {
		names = append(names, project.Name)
	}
	return names, nil
}

// PvmConsent reports whether the user accepts preemptible machines.
// A standing acknowledgement from configuration skips the prompt.
func (s *Service) PvmConsent() (bool, error) {
	if s.pvmAck {
		return true, nil
	}
	if s.consent == nil {
		return false, nil
	}
	return s.consent.Prompt()
}

// GenerateFilePath returns a unique path under the work directory for an
// exported scene file.
func (s *Service) GenerateFilePath(fileName string) (string, error) {
	dir := path.Join(model.SanitizePath(s.workDir), "zync", uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	return path.Join(dir, path.Base(model.SanitizePath(fileName))), nil
}

// ShowSelectedFilesDialog opens the extra asset browser for a project
func (s *Service) ShowSelectedFilesDialog(projectName string) error {
	if s.browser == nil {
		return fmt.Errorf("no file browser configured")
	}
	return s.browser.Show(projectName)
}

// SelectedFiles returns the extra assets picked for a project
func (s *Service) SelectedFiles(projectName string) ([]string, error) {
	if s.browser == nil {
		return []string{}, nil
	}
	return s.browser.SelectedFiles(projectName)
}

// SubmitJob submits a render job for the scene file
func (s *Service) SubmitJob(sceneFile string, params model.SubmissionParams, jobType string) error {
	// Use mock submission if the client is not configured
	if s.backend == nil || !s.backend.IsConfigured() {
		log.Printf("Info: Zync API not configured, mock-accepted %s job for %s", jobType, sceneFile)
		return nil
	}

	req := &SubmitJobRequest{
		JobType:   jobType,
		SceneFile: sceneFile,
		Params:    params,
	}
	resp, err := s.backend.SubmitJob(context.Background(), req)
	if err != nil {
		return err
	}
	log.Printf("[Zync] ← job %s %s", resp.JobID, resp.Status)
	return nil
}

// Logout invalidates the session
func (s *Service) Logout() error {
	if s.backend == nil || !s.backend.IsConfigured() {
		return nil
	}
	return s.backend.Logout(context.Background())
}

// mockInstanceTypes mirrors a small slice of the real machine catalog so
// the dialog stays usable without a backend.
func mockInstanceTypes(rendererType string) []InstanceType {
	return []InstanceType{
		{Label: "16 vCPUs, 32GB RAM", Code: "ZYNC_16VCPU_32GB", PricePerHour: 1.58},
		{Label: "32 vCPUs, 64GB RAM", Code: "ZYNC_32VCPU_64GB", PricePerHour: 3.16},
		{Label: "(PVM) 16 vCPUs, 32GB RAM", Code: "PREEMPTIBLE_ZYNC_16VCPU_32GB", PricePerHour: 0.48, Preemptible: true},
	}
}
