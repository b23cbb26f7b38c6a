package model

import (
	"path"
	"strings"
)

// Renderer types as the Zync service names them.
type RendererType string

const (
	RendererArnold   RendererType = "arnold"
	RendererScanline RendererType = "scanline"
	RendererVray     RendererType = "vray"
)

// PathGenerator produces a writable path for a scene file exported under
// the given base name.
type PathGenerator func(fileName string) (string, error)

// Job is a renderer-specific submission configuration. Exactly three
// implementations exist: ScanlineJob, VrayJob and ArnoldJob, each carrying
// the shared Base state plus its renderer's extras.
type Job interface {
	// Base exposes the renderer-independent configuration for reading
	// and widget-driven mutation.
	Base() *Base

	RendererType() RendererType
	// InstanceRendererType names the renderer family used to pick
	// machine types, e.g. "vray" or "standalone-vray".
	InstanceRendererType() string
	PrettyRendererName() string
	JobType() string
	UsageTag() string

	// SceneFile is the path submitted to the service: the original scene,
	// or the exported standalone scene when rendering standalone without
	// upload-only.
	SceneFile() string
	// StandaloneSceneFile is the path handed to the host-side exporter.
	StandaloneSceneFile() string
	// UpdateSceneFilePath recomputes generated scene paths from the
	// current frame range and camera selection.
	UpdateSceneFilePath() error

	// SubmissionParams validates the configuration and returns the
	// sanitized scene file together with the service payload.
	SubmissionParams() (string, SubmissionParams, error)

	sceneInfo() any
}

// ValidationError reports a submission configuration problem in the exact
// words shown to the artist.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// SubmissionParams is the job payload posted to the Zync service. Field
// names and nesting follow the service wire format.
type SubmissionParams struct {
	Camera          string       `json:"camera"`
	ChunkSize       int          `json:"chunk_size" validate:"min=1"`
	Distributed     int          `json:"distributed"`
	Frange          string       `json:"frange" validate:"required"`
	InstanceType    string       `json:"instance_type" validate:"required"`
	NotifyComplete  int          `json:"notify_complete"`
	NumInstances    int          `json:"num_instances" validate:"min=1"`
	OutputName      string       `json:"output_name" validate:"required"`
	PluginVersion   string       `json:"plugin_version"`
	Priority        int          `json:"priority" validate:"min=1"`
	ProjName        string       `json:"proj_name" validate:"required"`
	Renderer        RendererType `json:"renderer" validate:"required,oneof=arnold scanline vray"`
	SceneInfo       any          `json:"scene_info" validate:"required"`
	Step            int          `json:"step" validate:"min=1"`
	SyncExtraAssets bool         `json:"sync_extra_assets"`
	UploadOnly      int          `json:"upload_only"`
	XRes            int          `json:"xres" validate:"min=1"`
	YRes            int          `json:"yres" validate:"min=1"`
}

// BaseSceneInfo describes the scene a job renders.
type BaseSceneInfo struct {
	MaxVersion  string   `json:"max_version"`
	ProjectPath string   `json:"project_path"`
	References  []string `json:"references"`
	Xrefs       []string `json:"xrefs"`
}

// VraySceneInfo adds the V-Ray renderer details to the scene description.
type VraySceneInfo struct {
	BaseSceneInfo
	VrayVersion              string `json:"vray_version"`
	VrayProductionEngineName string `json:"vray_production_engine_name"`
}

// ArnoldSceneInfo adds the Arnold renderer details to the scene
// description.
type ArnoldSceneInfo struct {
	BaseSceneInfo
	MaxtoaVersion string   `json:"maxtoa_version"`
	AOVs          []string `json:"aovs"`
}

// Base carries the renderer-independent job configuration. Values come
// from the host scene and the submission form.
type Base struct {
	PluginVersion     string
	MaxVersion        string
	ProjectPath       string
	Project           string
	CameraName        string
	FrameRange        string
	FrameStep         int
	ChunkSize         int
	InstanceCount     int
	Priority          int
	InstanceType      string
	InstanceTypeLabel string
	OutputName        string
	XResolution       int
	YResolution       int
	UploadOnly        bool
	NotifyComplete    bool
	SyncExtraAssets   bool
	OriginalSceneFile string

	assets      []string
	extraAssets []string
	xrefs       []string
	standalone  bool
}

// Assets returns the scene asset paths.
func (b *Base) Assets() []string { return b.assets }

// SetAssets stores an independent copy of the asset paths, so later edits
// to the argument don't leak into the captured configuration.
func (b *Base) SetAssets(assets []string) { b.assets = copyList(assets) }

// ExtraAssets returns the user-selected additional asset paths.
func (b *Base) ExtraAssets() []string { return b.extraAssets }

// SetExtraAssets stores an independent copy of the extra asset paths.
func (b *Base) SetExtraAssets(extraAssets []string) { b.extraAssets = copyList(extraAssets) }

// Xrefs returns the externally referenced scene paths.
func (b *Base) Xrefs() []string { return b.xrefs }

// SetXrefs stores an independent copy of the xref paths.
func (b *Base) SetXrefs(xrefs []string) { b.xrefs = copyList(xrefs) }

// IsStandalone reports whether the job renders through a standalone
// renderer binary instead of a full 3ds Max instance. Fixed at
// construction.
func (b *Base) IsStandalone() bool { return b.standalone }

// FullFrameRange parses the configured frame range text with the
// configured step.
func (b *Base) FullFrameRange() (FrameRange, error) {
	return ParseFrameRange(b.FrameRange, b.FrameStep)
}

// IsInstanceTypePreemptible reports whether the selected machine type is
// a preemptible one, recognized by the PREEMPTIBLE marker in its code.
func (b *Base) IsInstanceTypePreemptible() bool {
	return strings.Contains(b.InstanceType, "PREEMPTIBLE")
}

// SanitizePath normalizes Windows path separators to forward slashes.
// Every path leaving the plugin goes through it.
func SanitizePath(filePath string) string {
	return strings.ReplaceAll(filePath, `\`, "/")
}

func sanitizePaths(paths []string) []string {
	sanitized := make([]string, 0, len(paths))
	for _, p := range paths {
		sanitized = append(sanitized, SanitizePath(p))
	}
	return sanitized
}

func copyList(list []string) []string {
	return append([]string(nil), list...)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func hasFileExtension(fileName string) bool {
	return len(path.Ext(fileName)) > 1
}

func (b *Base) validateSubmission(j Job) error {
	if b.OutputName == "" {
		return newValidationError("Please specify output file name")
	}
	if !hasFileExtension(b.OutputName) {
		return newValidationError("Please specify output file name with extension")
	}
	if j.SceneFile() == "" {
		return newValidationError("Scene file name unknown")
	}
	if b.InstanceType == "" {
		return newValidationError("Please select machine type")
	}
	if b.Project == "" {
		return newValidationError("Please specify project name")
	}
	if b.SyncExtraAssets && len(b.extraAssets) == 0 {
		return newValidationError("No extra assets selected")
	}
	return nil
}

func (b *Base) submissionParams(j Job) (string, SubmissionParams, error) {
	if err := b.validateSubmission(j); err != nil {
		return "", SubmissionParams{}, err
	}
	params := SubmissionParams{
		Camera:          b.CameraName,
		ChunkSize:       b.ChunkSize,
		Distributed:     0,
		Frange:          b.FrameRange,
		InstanceType:    b.InstanceType,
		NotifyComplete:  boolToInt(b.NotifyComplete),
		NumInstances:    b.InstanceCount,
		OutputName:      SanitizePath(b.OutputName),
		PluginVersion:   b.PluginVersion,
		Priority:        b.Priority,
		ProjName:        b.Project,
		Renderer:        j.RendererType(),
		SceneInfo:       j.sceneInfo(),
		Step:            b.FrameStep,
		SyncExtraAssets: b.SyncExtraAssets,
		UploadOnly:      boolToInt(b.UploadOnly),
		XRes:            b.XResolution,
		YRes:            b.YResolution,
	}
	return SanitizePath(j.SceneFile()), params, nil
}

func (b *Base) baseSceneInfo() BaseSceneInfo {
	references := make([]string, 0, len(b.assets)+len(b.extraAssets))
	references = append(references, sanitizePaths(b.assets)...)
	references = append(references, sanitizePaths(b.extraAssets)...)
	return BaseSceneInfo{
		MaxVersion:  b.MaxVersion,
		ProjectPath: SanitizePath(b.ProjectPath),
		References:  references,
		Xrefs:       sanitizePaths(b.xrefs),
	}
}
