// Package presenter binds a Job model to the submit dialog and drives the
// submission flow against the Zync service.
package presenter

import (
	"fmt"
	"log"
	"math"
	"path"
	"strings"

	"github.com/zyncrender/max-plugin/internal/max"
	"github.com/zyncrender/max-plugin/internal/model"
	"github.com/zyncrender/max-plugin/internal/task"
	"github.com/zyncrender/max-plugin/internal/ui"
	"github.com/zyncrender/max-plugin/internal/zync"
)

// Surface bundles the widgets and notifications the presenter drives.
type Surface struct {
	SubmitDialog  ui.Dialog
	SpinnerDialog ui.Dialog
	Notifier      ui.Notifier
}

// Options carries the installation identity shown in the dialog.
type Options struct {
	Version            string
	DefaultProjectName string
}

// Presenter owns one submit dialog session. All methods run on the
// interactive goroutine; slow service calls go through the task runner and
// come back as continuations on the same goroutine.
type Presenter struct {
	job    model.Job
	host   max.API
	api    zync.API
	runner task.Runner

	submitDialog  ui.Dialog
	spinnerDialog ui.Dialog
	notifier      ui.Notifier

	// renderWidgets are the widgets an upload-only submission grays out.
	renderWidgets []ui.Widget

	version            string
	defaultProjectName string
}

// New creates a presenter for one submit dialog session
func New(job model.Job, host max.API, api zync.API, runner task.Runner, surface Surface, opts Options) *Presenter {
	return &Presenter{
		job:                job,
		host:               host,
		api:                api,
		runner:             runner,
		submitDialog:       surface.SubmitDialog,
		spinnerDialog:      surface.SpinnerDialog,
		notifier:           surface.Notifier,
		version:            opts.Version,
		defaultProjectName: opts.DefaultProjectName,
	}
}

// Start initializes the model from the host scene, binds the widgets and
// shows the submit dialog. A scene with unsaved changes is refused before
// anything else happens.
func (p *Presenter) Start() error {
	savePending, err := p.host.IsSavePending()
	if err != nil {
		return err
	}
	if savePending {
		p.notifier.ShowError("Scene needs to be saved before submitting")
		return nil
	}

	if err := p.initModel(); err != nil {
		return err
	}
	if err := p.initWidgets(); err != nil {
		return err
	}

	p.submitDialog.Show(fmt.Sprintf("Zync Submit (version %s)", p.version))
	return nil
}

func (p *Presenter) initModel() error {
	base := p.job.Base()
	base.PluginVersion = p.version

	maxVersion, err := p.maxVersion()
	if err != nil {
		return err
	}
	base.MaxVersion = maxVersion

	base.InstanceCount = 1
	base.Priority = 50
	base.Project = p.defaultProjectName

	frameRange, err := p.host.FrameRange()
	if err != nil {
		return err
	}
	base.FrameRange = frameRange
	base.FrameStep = 1
	base.ChunkSize = 10

	outputName, err := p.initialOutputName()
	if err != nil {
		return err
	}
	base.OutputName = outputName

	width, height, err := p.host.Resolution()
	if err != nil {
		return err
	}
	base.XResolution = width
	base.YResolution = height

	projectPath, err := p.host.ProjectPath()
	if err != nil {
		return err
	}
	base.ProjectPath = projectPath

	sceneFile, err := p.host.SceneFilePath()
	if err != nil {
		return err
	}
	base.OriginalSceneFile = sceneFile

	assets, err := p.host.Assets()
	if err != nil {
		return err
	}
	base.SetAssets(assets)

	xrefs, err := p.host.Xrefs()
	if err != nil {
		return err
	}
	base.SetXrefs(xrefs)

	return nil
}

// maxVersion picks the version string submitted with the job. The v2
// backend wants the product version, v1 the raw host version.
func (p *Presenter) maxVersion() (string, error) {
	if p.api.IsV2() {
		return p.host.PrettyMaxVersion()
	}
	return p.host.MaxVersion()
}

func (p *Presenter) initialOutputName() (string, error) {
	outputFile, err := p.host.OutputFileName()
	if err != nil {
		return "", err
	}
	if outputFile != "" {
		return outputFile, nil
	}

	outputDir, err := p.host.OutputDirName()
	if err != nil {
		return "", err
	}
	if outputDir == "" {
		return "", nil
	}

	sceneName, err := p.host.SceneFileName()
	if err != nil {
		return "", err
	}
	return guessOutputName(outputDir, sceneName), nil
}

// guessOutputName derives a default render output from the scene name.
func guessOutputName(outputDir, sceneName string) string {
	base := strings.TrimSuffix(sceneName, ".max")
	if base == "" {
		base = "unknown"
	}
	return path.Join(outputDir, base+".exr")
}

func (p *Presenter) initWidgets() error {
	d := p.submitDialog
	base := p.job.Base()

	for _, name := range []string{
		"instance_count", "priority", "frame_step",
		"chunk_size", "x_resolution", "y_resolution",
	} {
		d.NumericField(name).SetValidation(1, math.MaxInt)
	}

	d.Label("renderer_name").SetText(p.job.PrettyRendererName())
	d.Label("logged_as").SetText(fmt.Sprintf("Logged in as: %s", p.api.LoggedAs()))

	useStandalone := d.Checkbox("use_standalone")
	useStandalone.SetChecked(base.IsStandalone())
	useStandalone.SetEnabled(false)

	chunkSize := d.NumericField("chunk_size")
	chunkSize.OnChanged(p.guardInt(func(value int) error {
		base.ChunkSize = value
		return nil
	}))
	chunkSize.SetValue(base.ChunkSize)
	if p.job.RendererType() == model.RendererArnold && base.IsStandalone() {
		// Standalone Arnold renders one .ass file per frame.
		chunkSize.SetValue(1)
		chunkSize.SetEnabled(false)
	}

	instanceCount := d.NumericField("instance_count")
	instanceCount.OnChanged(p.guardInt(func(value int) error {
		base.InstanceCount = value
		return p.updateEstimatedCost()
	}))
	instanceCount.SetValue(base.InstanceCount)

	instanceTypes := d.Combobox("instance_types")
	instanceTypes.OnChanged(p.guardString(func(label string) error {
		base.InstanceTypeLabel = label
		instanceType, err := p.api.InstanceType(label, p.job.InstanceRendererType())
		if err != nil {
			return err
		}
		base.InstanceType = instanceType
		return p.updateEstimatedCost()
	}))
	labels, err := p.api.InstanceTypeLabels(p.job.InstanceRendererType(), p.job.UsageTag())
	if err != nil {
		// The dialog is still usable for logout, so keep going.
		p.reportError(err)
	} else {
		instanceTypes.Populate(labels)
	}

	priority := d.NumericField("priority")
	priority.OnChanged(p.guardInt(func(value int) error {
		base.Priority = value
		return nil
	}))
	priority.SetValue(base.Priority)

	existingProject := d.Checkbox("existing_project")
	newProject := d.Checkbox("new_project")
	projectNames := d.Combobox("existing_project_names")
	newProjectName := d.TextField("new_project_name")

	existingProject.OnChecked(p.guardBool(func(checked bool) error {
		newProject.SetChecked(!checked)
		projectNames.SetEnabled(checked)
		newProjectName.SetEnabled(!checked)
		return nil
	}))
	newProject.OnChecked(p.guardBool(func(checked bool) error {
		existingProject.SetChecked(!checked)
		projectNames.SetEnabled(!checked)
		newProjectName.SetEnabled(checked)
		return nil
	}))

	projects, err := p.api.ExistingProjectNames()
	if err != nil {
		return err
	}
	projectNames.Populate(projects)
	if projectNames.Contains(base.Project) {
		existingProject.SetChecked(true)
		if err := projectNames.Select(base.Project); err != nil {
			return err
		}
	} else {
		newProject.SetChecked(true)
		newProjectName.SetText(base.Project)
	}

	outputName := d.TextField("output_name")
	outputName.OnChanged(p.guardString(func(text string) error {
		base.OutputName = text
		return nil
	}))
	outputName.SetText(base.OutputName)

	frameRange := d.TextField("frame_range")
	frameRange.OnChanged(p.guardString(func(text string) error {
		base.FrameRange = text
		return nil
	}))
	frameRange.SetText(base.FrameRange)

	frameStep := d.NumericField("frame_step")
	frameStep.OnChanged(p.guardInt(func(value int) error {
		base.FrameStep = value
		return nil
	}))
	frameStep.SetValue(base.FrameStep)

	cameraNames := d.Combobox("camera_names")
	cameraNames.OnChanged(p.guardString(func(name string) error {
		base.CameraName = name
		return nil
	}))
	cameras, err := p.host.CameraNames()
	if err != nil {
		return err
	}
	cameraNames.Populate(cameras)

	xResolution := d.NumericField("x_resolution")
	xResolution.OnChanged(p.guardInt(func(value int) error {
		base.XResolution = value
		return nil
	}))
	xResolution.SetValue(base.XResolution)

	yResolution := d.NumericField("y_resolution")
	yResolution.OnChanged(p.guardInt(func(value int) error {
		base.YResolution = value
		return nil
	}))
	yResolution.SetValue(base.YResolution)

	p.renderWidgets = []ui.Widget{
		d.Combobox("instance_types"),
		d.NumericField("instance_count"),
		d.Label("estimated_cost"),
		d.NumericField("priority"),
		d.TextField("output_name"),
		d.TextField("frame_range"),
		d.NumericField("frame_step"),
		d.NumericField("chunk_size"),
		d.Combobox("camera_names"),
		d.NumericField("x_resolution"),
		d.NumericField("y_resolution"),
	}

	uploadOnly := d.Checkbox("upload_only")
	uploadOnly.OnChecked(p.guardBool(func(checked bool) error {
		base.UploadOnly = checked
		for _, widget := range p.renderWidgets {
			widget.SetEnabled(!checked)
		}
		return nil
	}))

	notifyComplete := d.Checkbox("notify_complete")
	notifyComplete.OnChecked(p.guardBool(func(checked bool) error {
		base.NotifyComplete = checked
		return nil
	}))

	syncExtraAssets := d.Checkbox("sync_extra_assets")
	selectFiles := d.Button("select_files")
	syncExtraAssets.OnChecked(p.guardBool(func(checked bool) error {
		base.SyncExtraAssets = checked
		selectFiles.SetEnabled(checked)
		return nil
	}))
	selectFiles.SetEnabled(false)

	selectFiles.OnClicked(p.guard(func() error {
		return p.api.ShowSelectedFilesDialog(p.selectedProjectName())
	}))

	d.Button("submit").OnClicked(p.guard(p.submit))
	d.Button("logout").OnClicked(p.guard(p.logout))

	return nil
}

func (p *Presenter) updateEstimatedCost() error {
	label := ""
	if selected, err := p.submitDialog.Combobox("instance_types").SelectedElement(); err == nil {
		label = selected
	}
	cost, err := p.api.EstimatedCost(label, p.job.InstanceRendererType(), p.job.Base().InstanceCount)
	if err != nil {
		return err
	}
	p.submitDialog.Label("estimated_cost").SetText(fmt.Sprintf("Est. Cost per Hour: %s", cost))
	return nil
}

// selectedProjectName reads the project selection, whichever of the two
// project modes is active.
func (p *Presenter) selectedProjectName() string {
	if p.submitDialog.Checkbox("existing_project").Checked() {
		name, err := p.submitDialog.Combobox("existing_project_names").SelectedElement()
		if err != nil {
			return ""
		}
		return name
	}
	return p.submitDialog.TextField("new_project_name").Text()
}

func (p *Presenter) submit() error {
	if err := p.syncModel(); err != nil {
		return err
	}

	sceneFile, params, err := p.job.SubmissionParams()
	if err != nil {
		return err
	}

	base := p.job.Base()
	if base.IsInstanceTypePreemptible() && !base.UploadOnly {
		consent, err := p.api.PvmConsent()
		if err != nil {
			return err
		}
		if !consent {
			return nil
		}
	}

	if base.IsStandalone() && !base.UploadOnly {
		if err := p.exportStandaloneScene(); err != nil {
			return err
		}
	}

	p.callAsync("Submitting to Zync...", func() error {
		return p.api.SubmitJob(sceneFile, params, p.job.JobType())
	}, func() {
		p.notifier.ShowInfo("Job successfully submitted to Zync")
	})
	return nil
}

// syncModel pulls the submit-time selections into the model: project name,
// extra assets and regenerated scene paths.
func (p *Presenter) syncModel() error {
	base := p.job.Base()
	base.Project = p.selectedProjectName()

	if base.SyncExtraAssets {
		files, err := p.api.SelectedFiles(base.Project)
		if err != nil {
			return err
		}
		base.SetExtraAssets(files)
	} else {
		base.SetExtraAssets([]string{})
	}

	if err := p.job.UpdateSceneFilePath(); err != nil {
		return err
	}

	if arnoldJob, ok := p.job.(*model.ArnoldJob); ok {
		aovs, err := p.host.ArnoldAOVs()
		if err != nil {
			return err
		}
		arnoldJob.SetAOVs(aovs)
	}

	return nil
}

// exportStandaloneScene writes the standalone scene through the host
// exporter inside an undo scope, so resolution and camera changes never
// stick to the artist's scene.
func (p *Presenter) exportStandaloneScene() error {
	base := p.job.Base()
	frameRange, err := base.FullFrameRange()
	if err != nil {
		return err
	}

	switch p.job.RendererType() {
	case model.RendererVray:
		return p.host.Undo(func() error {
			if err := p.host.SetResolution(base.XResolution, base.YResolution); err != nil {
				return err
			}
			if err := p.host.SetCameraInActiveViewport(base.CameraName); err != nil {
				return err
			}
			return p.host.ExportVrscene(p.job.StandaloneSceneFile(), frameRange.Start, frameRange.End)
		})
	case model.RendererArnold:
		return p.host.Undo(func() error {
			if err := p.host.SetOutputFileName(model.SanitizePath(base.OutputName)); err != nil {
				return err
			}
			if err := p.host.SetResolution(base.XResolution, base.YResolution); err != nil {
				return err
			}
			if err := p.host.SetCameraInActiveViewport(base.CameraName); err != nil {
				return err
			}
			return p.host.ExportAss(p.job.StandaloneSceneFile(), frameRange.Start, frameRange.End)
		})
	}
	return fmt.Errorf("Stand-alone mode for %s is not supported", p.job.PrettyRendererName())
}

func (p *Presenter) logout() error {
	p.submitDialog.Close()
	p.spinnerDialog.Show("Logging out...")
	p.runner.RunAsync(p.api.Logout, func() {
		p.spinnerDialog.Close()
		p.notifier.ShowInfo("Logged out")
	}, func(err error) {
		p.spinnerDialog.Close()
		p.reportError(err)
	})
	return nil
}

// callAsync runs work off the interactive goroutine behind a spinner,
// keeping the submit dialog disabled until the continuation has run.
func (p *Presenter) callAsync(message string, work func() error, onSuccess func()) {
	p.submitDialog.SetEnabled(false)
	p.spinnerDialog.Show(message)
	p.runner.RunAsync(work, func() {
		p.spinnerDialog.Close()
		p.submitDialog.SetEnabled(true)
		onSuccess()
	}, func(err error) {
		p.spinnerDialog.Close()
		p.submitDialog.SetEnabled(true)
		p.reportError(err)
	})
}

func (p *Presenter) reportError(err error) {
	log.Printf("[Presenter] ✗ %v", err)
	p.notifier.ShowError(err.Error())
}

func (p *Presenter) guard(fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			p.reportError(err)
		}
	}
}

func (p *Presenter) guardInt(fn func(int) error) func(int) {
	return func(value int) {
		if err := fn(value); err != nil {
			p.reportError(err)
		}
	}
}

func (p *Presenter) guardString(fn func(string) error) func(string) {
	return func(value string) {
		if err := fn(value); err != nil {
			p.reportError(err)
		}
	}
}

func (p *Presenter) guardBool(fn func(bool) error) func(bool) {
	return func(value bool) {
		if err := fn(value); err != nil {
			p.reportError(err)
		}
	}
}
