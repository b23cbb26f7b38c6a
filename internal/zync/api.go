// Package zync talks to the Zync render service on behalf of the submit
// dialog: account identity, machine catalog, cost estimates and job
// submission.
package zync

import "github.com/zyncrender/max-plugin/internal/model"

// API is the service surface the submit dialog works against.
type API interface {
	LoggedAs() string
	IsV2() bool
	IsRendererAvailableAsStandalone(rendererName string) bool
	IsRendererAvailableAsNonStandalone(rendererName string) bool
	EstimatedCost(instanceTypeLabel, rendererType string, instanceCount int) (string, error)
	InstanceTypeLabels(rendererType, usageTag string) ([]string, error)
	InstanceType(instanceTypeLabel, rendererType string) (string, error)
	ExistingProjectNames() ([]string, error)
	PvmConsent() (bool, error)
	GenerateFilePath(fileName string) (string, error)
	ShowSelectedFilesDialog(projectName string) error
	SelectedFiles(projectName string) ([]string, error)
	SubmitJob(sceneFile string, params model.SubmissionParams, jobType string) error
	Logout() error
}

// FileBrowser lets the user browse and pick extra assets for a project.
type FileBrowser interface {
	Show(projectName string) error
	SelectedFiles(projectName string) ([]string, error)
}

// ConsentPrompter asks the user to accept the terms of preemptible
// machines before a submission proceeds.
type ConsentPrompter interface {
	Prompt() (bool, error)
}
