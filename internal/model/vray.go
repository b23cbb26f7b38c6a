package model

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// VrayRTEngine identifies the rendering device of the V-Ray RT renderer.
// Wire values follow the host's engine_type render parameter;
// VrayRTEngineNone means the classic production renderer is active.
type VrayRTEngine int

const (
	VrayRTEngineNone   VrayRTEngine = -1
	VrayRTEngineCPU    VrayRTEngine = 0
	VrayRTEngineOpenCL VrayRTEngine = 1
	VrayRTEngineCUDA   VrayRTEngine = 2
)

// Name returns the engine name the service expects, "unknown" for engines
// it has no name for.
func (e VrayRTEngine) Name() string {
	switch e {
	case VrayRTEngineCPU:
		return "cpu"
	case VrayRTEngineOpenCL:
		return "opencl"
	case VrayRTEngineCUDA:
		return "cuda"
	default:
		return "unknown"
	}
}

// PrettyName returns the engine display name.
func (e VrayRTEngine) PrettyName() (string, error) {
	switch e {
	case VrayRTEngineCPU:
		return "CPU", nil
	case VrayRTEngineOpenCL:
		return "OpenCL", nil
	case VrayRTEngineCUDA:
		return "CUDA", nil
	default:
		return "", errors.New("Unknown V-Ray RT Engine Type")
	}
}

// IsVrayCompatible reports whether the active renderer belongs to the
// V-Ray family, production and RT alike.
func IsVrayCompatible(rendererName string) bool {
	return strings.Contains(strings.ToLower(rendererName), "v-ray")
}

// VrayJob configures a job for the V-Ray and V-Ray RT renderers.
type VrayJob struct {
	base                Base
	version             string
	rtEngine            VrayRTEngine
	generatePath        PathGenerator
	standaloneSceneFile string
}

// NewVrayJob returns a V-Ray job configuration. The version is required;
// OpenCL engines are rejected because the standalone renderer supports
// CUDA GPU rendering only.
func NewVrayJob(version string, rtEngine VrayRTEngine, generatePath PathGenerator, standalone bool) (*VrayJob, error) {
	if version == "" {
		return nil, errors.New("Undefined V-Ray version")
	}
	switch rtEngine {
	case VrayRTEngineNone, VrayRTEngineCPU, VrayRTEngineCUDA:
	case VrayRTEngineOpenCL:
		return nil, errors.New("Only CUDA GPU rendering engine is supported")
	default:
		return nil, errors.New("Unknown V-Ray RT Engine Type")
	}
	return &VrayJob{
		base:         Base{standalone: standalone},
		version:      version,
		rtEngine:     rtEngine,
		generatePath: generatePath,
	}, nil
}

func (v *VrayJob) Base() *Base { return &v.base }

func (v *VrayJob) RendererType() RendererType { return RendererVray }

func (v *VrayJob) InstanceRendererType() string {
	if v.base.standalone {
		return "standalone-vray"
	}
	return "vray"
}

func (v *VrayJob) PrettyRendererName() string {
	if v.rtEngine == VrayRTEngineNone {
		return "V-Ray"
	}
	pretty, _ := v.rtEngine.PrettyName() // constructor only admits known engines
	return fmt.Sprintf("V-Ray RT (%s)", pretty)
}

func (v *VrayJob) JobType() string {
	if v.base.standalone {
		return "3dsmax_vray"
	}
	return "3dsmax"
}

func (v *VrayJob) UsageTag() string {
	if v.rtEngine == VrayRTEngineCUDA {
		return "3dsmax_vray_rt_gpu"
	}
	return "3dsmax"
}

func (v *VrayJob) SceneFile() string {
	if v.base.standalone && !v.base.UploadOnly {
		return v.standaloneSceneFile
	}
	return v.base.OriginalSceneFile
}

func (v *VrayJob) StandaloneSceneFile() string { return v.standaloneSceneFile }

// UpdateSceneFilePath derives the exported .vrscene path from the original
// scene name, the frame range and the selected camera.
func (v *VrayJob) UpdateSceneFilePath() error {
	frameRange, err := v.base.FullFrameRange()
	if err != nil {
		return err
	}
	sceneBase := strings.TrimSuffix(v.base.OriginalSceneFile, path.Ext(v.base.OriginalSceneFile))
	fileName := fmt.Sprintf("%s_%s_%s", sceneBase, frameRange, v.base.CameraName)
	generated, err := v.generatePath(fileName)
	if err != nil {
		return err
	}
	v.standaloneSceneFile = generated + ".vrscene"
	return nil
}

func (v *VrayJob) SubmissionParams() (string, SubmissionParams, error) {
	return v.base.submissionParams(v)
}

func (v *VrayJob) sceneInfo() any {
	return VraySceneInfo{
		BaseSceneInfo:            v.base.baseSceneInfo(),
		VrayVersion:              v.version,
		VrayProductionEngineName: v.rtEngine.Name(),
	}
}
