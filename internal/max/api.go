// Package max gives the plugin its view of the running 3ds Max instance:
// scene state, renderer identity and the export operations standalone
// rendering needs. Two implementations exist, an HTTP bridge to the
// MAXScript listener inside the host and a fixture-backed scripted host
// for development and tests.
package max

import "github.com/zyncrender/max-plugin/internal/model"

// API is the host application surface the plugin consumes. Every call
// can fail: the host may be busy, mid-reset or gone.
type API interface {
	// Scene state.
	Assets() ([]string, error)
	CameraNames() ([]string, error)
	FrameRange() (string, error)
	IsSavePending() (bool, error)
	OutputDirName() (string, error)
	OutputFileName() (string, error)
	ProjectPath() (string, error)
	Resolution() (width, height int, err error)
	SceneFileName() (string, error)
	SceneFilePath() (string, error)
	Xrefs() ([]string, error)

	// Versions and renderer identity.
	MaxVersion() (string, error)
	PrettyMaxVersion() (string, error)
	RendererName() (string, error)
	MaxtoaVersion() (string, error)
	ArnoldAOVs() ([]string, error)
	VrayVersion() (string, error)
	IsRendererVrayRTEngine() (bool, error)
	VrayRTEngine() (model.VrayRTEngine, error)

	// Scene mutation, used while preparing standalone exports.
	SetOutputFileName(fileName string) error
	SetResolution(width, height int) error
	SetCameraInActiveViewport(cameraName string) error

	// Exporters.
	ExportAss(fileName string, startFrame, endFrame int) error
	ExportVrscene(fileName string, startFrame, endFrame int) error

	// Undo runs fn inside a host undo scope and rolls the scene back
	// afterwards, whether fn failed or not.
	Undo(fn func() error) error
}
