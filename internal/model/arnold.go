package model

import (
	"fmt"
	"path"
	"strings"
)

// Oldest MAXtoA able to export standalone .ass archives.
var minStandaloneMaxtoaVersion = MaxtoaVersion{Major: 3, Minor: 0, Patch: 32}

// IsArnoldCompatible reports whether the active renderer belongs to the
// Arnold family.
func IsArnoldCompatible(rendererName string) bool {
	return strings.Contains(strings.ToLower(rendererName), "arnold")
}

// ArnoldJob configures a job for the Arnold renderer.
type ArnoldJob struct {
	base            Base
	version         MaxtoaVersion
	generatePath    PathGenerator
	sceneFilePrefix string
	aovs            []string
}

// NewArnoldJob returns an Arnold job configuration. Standalone rendering
// requires MAXtoA 3.0.32 or newer.
func NewArnoldJob(version string, generatePath PathGenerator, standalone bool) (*ArnoldJob, error) {
	parsed, err := ParseMaxtoaVersion(version)
	if err != nil {
		return nil, err
	}
	if standalone && parsed.Less(minStandaloneMaxtoaVersion) {
		return nil, fmt.Errorf("Unsupported MaxToA version: %s. Minimum version is: %s",
			parsed, minStandaloneMaxtoaVersion)
	}
	return &ArnoldJob{
		base:         Base{standalone: standalone},
		version:      parsed,
		generatePath: generatePath,
		aovs:         []string{},
	}, nil
}

func (a *ArnoldJob) Base() *Base { return &a.base }

// AOVs returns the arbitrary output variables rendered alongside the
// beauty pass.
func (a *ArnoldJob) AOVs() []string { return a.aovs }

// SetAOVs replaces the AOV list.
func (a *ArnoldJob) SetAOVs(aovs []string) { a.aovs = aovs }

func (a *ArnoldJob) RendererType() RendererType { return RendererArnold }

func (a *ArnoldJob) InstanceRendererType() string {
	if a.base.standalone {
		return "standalone-arnold"
	}
	return "arnold"
}

func (a *ArnoldJob) PrettyRendererName() string { return "Arnold" }

func (a *ArnoldJob) JobType() string {
	if a.base.standalone {
		return "3dsmax_arnold"
	}
	return "3dsmax"
}

func (a *ArnoldJob) UsageTag() string { return "3dsmax" }

// SceneFile returns a wildcard over the per-frame .ass archives when
// rendering standalone; MAXtoA exports one file per frame.
func (a *ArnoldJob) SceneFile() string {
	if a.base.standalone && !a.base.UploadOnly {
		return a.sceneFilePrefix + "*.ass"
	}
	return a.base.OriginalSceneFile
}

func (a *ArnoldJob) StandaloneSceneFile() string { return a.sceneFilePrefix + ".ass" }

// UpdateSceneFilePath derives the exported .ass path prefix from the
// original scene name and the selected camera.
func (a *ArnoldJob) UpdateSceneFilePath() error {
	sceneBase := strings.TrimSuffix(a.base.OriginalSceneFile, path.Ext(a.base.OriginalSceneFile))
	generated, err := a.generatePath(sceneBase + "_" + a.base.CameraName)
	if err != nil {
		return err
	}
	a.sceneFilePrefix = generated + "."
	return nil
}

func (a *ArnoldJob) SubmissionParams() (string, SubmissionParams, error) {
	return a.base.submissionParams(a)
}

func (a *ArnoldJob) sceneInfo() any {
	aovs := a.aovs
	if aovs == nil {
		aovs = []string{}
	}
	return ArnoldSceneInfo{
		BaseSceneInfo: a.base.baseSceneInfo(),
		MaxtoaVersion: a.version.String(),
		AOVs:          aovs,
	}
}
