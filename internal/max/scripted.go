package max

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zyncrender/max-plugin/internal/model"
)

// Fixture describes a scripted 3ds Max scene.
type Fixture struct {
	MaxVersion  string            `yaml:"max_version"`
	Renderer    string            `yaml:"renderer"`
	SavePending bool              `yaml:"save_pending"`
	Assets      []string          `yaml:"assets"`
	Cameras     []string          `yaml:"cameras"`
	FrameRange  string            `yaml:"frame_range"`
	Resolution  FixtureResolution `yaml:"resolution"`
	Output      FixtureOutput     `yaml:"output"`
	Scene       FixtureScene      `yaml:"scene"`
	ProjectPath string            `yaml:"project_path"`
	Xrefs       []string          `yaml:"xrefs"`
	Arnold      FixtureArnold     `yaml:"arnold"`
	Vray        FixtureVray       `yaml:"vray"`
}

type FixtureResolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type FixtureOutput struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

type FixtureScene struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type FixtureArnold struct {
	Version string   `yaml:"version"`
	AOVs    []string `yaml:"aovs"`
}

type FixtureVray struct {
	Version  string `yaml:"version"`
	RTEngine string `yaml:"rt_engine"`
}

// ExportCall is one recorded standalone scene export.
type ExportCall struct {
	Kind       string
	FileName   string
	StartFrame int
	EndFrame   int
}

// ScriptedHost replays a scene fixture in place of a live 3ds Max session.
// The console harness and tests drive the full submission flow against it
// when no bridge listener is configured.
type ScriptedHost struct {
	fixture Fixture

	width          int
	height         int
	outputFileName string
	viewportCamera string

	// Exports records every scene export requested by a submission.
	Exports []ExportCall
}

// NewScriptedHost returns a host seeded with the fixture scene state.
func NewScriptedHost(fixture Fixture) *ScriptedHost {
	return &ScriptedHost{
		fixture:        fixture,
		width:          fixture.Resolution.Width,
		height:         fixture.Resolution.Height,
		outputFileName: fixture.Output.File,
	}
}

// LoadScriptedHost reads a scene fixture from a YAML file.
func LoadScriptedHost(path string) (*ScriptedHost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse scene fixture: %w", err)
	}
	return NewScriptedHost(fixture), nil
}

func (h *ScriptedHost) Assets() ([]string, error)      { return h.fixture.Assets, nil }
func (h *ScriptedHost) CameraNames() ([]string, error) { return h.fixture.Cameras, nil }
func (h *ScriptedHost) FrameRange() (string, error)    { return h.fixture.FrameRange, nil }
func (h *ScriptedHost) IsSavePending() (bool, error)   { return h.fixture.SavePending, nil }
func (h *ScriptedHost) OutputDirName() (string, error) { return h.fixture.Output.Dir, nil }
func (h *ScriptedHost) ProjectPath() (string, error)   { return h.fixture.ProjectPath, nil }
func (h *ScriptedHost) SceneFileName() (string, error) { return h.fixture.Scene.Name, nil }
func (h *ScriptedHost) Xrefs() ([]string, error)       { return h.fixture.Xrefs, nil }

func (h *ScriptedHost) OutputFileName() (string, error) { return h.outputFileName, nil }

func (h *ScriptedHost) SceneFilePath() (string, error) {
	return model.SanitizePath(h.fixture.Scene.Path), nil
}

func (h *ScriptedHost) Resolution() (int, int, error) { return h.width, h.height, nil }

func (h *ScriptedHost) MaxVersion() (string, error) { return h.fixture.MaxVersion, nil }

func (h *ScriptedHost) PrettyMaxVersion() (string, error) {
	return PrettyMaxVersion(h.fixture.MaxVersion)
}

func (h *ScriptedHost) RendererName() (string, error) { return h.fixture.Renderer, nil }

func (h *ScriptedHost) MaxtoaVersion() (string, error) {
	return ParseArnoldVersion(h.fixture.Arnold.Version)
}

func (h *ScriptedHost) ArnoldAOVs() ([]string, error) { return h.fixture.Arnold.AOVs, nil }

func (h *ScriptedHost) VrayVersion() (string, error) {
	return TrimVrayVersion(h.fixture.Vray.Version), nil
}

func (h *ScriptedHost) IsRendererVrayRTEngine() (bool, error) {
	return isVrayRTRendererName(h.fixture.Renderer), nil
}

func (h *ScriptedHost) VrayRTEngine() (model.VrayRTEngine, error) {
	switch h.fixture.Vray.RTEngine {
	case "":
		return model.VrayRTEngineNone, nil
	case "cpu":
		return model.VrayRTEngineCPU, nil
	case "opencl":
		return model.VrayRTEngineOpenCL, nil
	case "cuda":
		return model.VrayRTEngineCUDA, nil
	}
	return model.VrayRTEngineNone, fmt.Errorf("unknown V-Ray RT engine %q in scene fixture", h.fixture.Vray.RTEngine)
}

func (h *ScriptedHost) SetOutputFileName(fileName string) error {
	h.outputFileName = fileName
	return nil
}

func (h *ScriptedHost) SetResolution(width, height int) error {
	h.width, h.height = width, height
	return nil
}

func (h *ScriptedHost) SetCameraInActiveViewport(cameraName string) error {
	h.viewportCamera = cameraName
	return nil
}

func (h *ScriptedHost) ExportAss(fileName string, startFrame, endFrame int) error {
	h.Exports = append(h.Exports, ExportCall{
		Kind:       "ass",
		FileName:   fileName,
		StartFrame: startFrame,
		EndFrame:   endFrame,
	})
	return nil
}

func (h *ScriptedHost) ExportVrscene(fileName string, startFrame, endFrame int) error {
	h.Exports = append(h.Exports, ExportCall{
		Kind:       "vrscene",
		FileName:   fileName,
		StartFrame: startFrame,
		EndFrame:   endFrame,
	})
	return nil
}

// Undo mimics the host undo scope: scene state mutated by fn is rolled
// back, recorded exports are kept.
func (h *ScriptedHost) Undo(fn func() error) error {
	width, height := h.width, h.height
	outputFileName := h.outputFileName
	viewportCamera := h.viewportCamera
	err := fn()
	h.width, h.height = width, height
	h.outputFileName = outputFileName
	h.viewportCamera = viewportCamera
	return err
}
