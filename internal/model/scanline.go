package model

import "strings"

// IsScanlineCompatible reports whether the active renderer is the 3ds Max
// built-in scanline renderer. Unlike the other families this is an exact
// name match.
func IsScanlineCompatible(rendererName string) bool {
	return strings.ToLower(rendererName) == "scanline renderer"
}

// ScanlineJob configures a job for the built-in scanline renderer. It
// always renders through full 3ds Max instances, never standalone.
type ScanlineJob struct {
	base Base
}

// NewScanlineJob returns an empty scanline job configuration.
func NewScanlineJob() *ScanlineJob {
	return &ScanlineJob{}
}

func (s *ScanlineJob) Base() *Base { return &s.base }

func (s *ScanlineJob) RendererType() RendererType { return RendererScanline }

func (s *ScanlineJob) InstanceRendererType() string { return "scanline" }

func (s *ScanlineJob) PrettyRendererName() string { return "Scanline Renderer" }

func (s *ScanlineJob) JobType() string { return "3dsmax" }

func (s *ScanlineJob) UsageTag() string { return "3dsmax" }

func (s *ScanlineJob) SceneFile() string { return s.base.OriginalSceneFile }

func (s *ScanlineJob) StandaloneSceneFile() string { return "" }

func (s *ScanlineJob) UpdateSceneFilePath() error { return nil }

func (s *ScanlineJob) SubmissionParams() (string, SubmissionParams, error) {
	return s.base.submissionParams(s)
}

func (s *ScanlineJob) sceneInfo() any { return s.base.baseSceneInfo() }
