// Package plugin assembles the submission stack: it matches the renderer
// active in the host scene to a job configuration and carries the
// installation identity.
package plugin

import (
	"errors"
	"fmt"
	"os/user"
	"strings"

	"github.com/zyncrender/max-plugin/internal/max"
	"github.com/zyncrender/max-plugin/internal/model"
	"github.com/zyncrender/max-plugin/internal/zync"
)

// Version is the plugin version submitted with every job.
const Version = "0.3.1"

// CreateModel picks the job configuration matching the renderer active in
// the host scene.
func CreateModel(host max.API, api zync.API) (model.Job, error) {
	rendererName, err := host.RendererName()
	if err != nil {
		return nil, err
	}

	switch {
	case model.IsArnoldCompatible(rendererName):
		maxtoaVersion, err := host.MaxtoaVersion()
		if err != nil {
			return nil, err
		}
		return model.NewArnoldJob(maxtoaVersion, api.GenerateFilePath,
			api.IsRendererAvailableAsStandalone("arnold"))

	case model.IsScanlineCompatible(rendererName):
		if !api.IsRendererAvailableAsNonStandalone("scanline") {
			return nil, errors.New("Scanline renderer is not supported")
		}
		return model.NewScanlineJob(), nil

	case model.IsVrayCompatible(rendererName):
		vrayVersion, err := host.VrayVersion()
		if err != nil {
			return nil, err
		}
		standalone := api.IsRendererAvailableAsStandalone("vray")
		rtEngine := model.VrayRTEngineNone
		isRT, err := host.IsRendererVrayRTEngine()
		if err != nil {
			return nil, err
		}
		// GPU V-Ray is not yet supported by the v2 backend.
		if isRT && !standalone {
			rtEngine, err = host.VrayRTEngine()
			if err != nil {
				return nil, err
			}
		}
		return model.NewVrayJob(vrayVersion, rtEngine, api.GenerateFilePath, standalone)
	}

	return nil, fmt.Errorf("Unknown renderer: %s", rendererName)
}

// DefaultProjectName returns the login name of the current OS user, the
// default name for new render projects.
func DefaultProjectName() string {
	current, err := user.Current()
	if err != nil {
		return ""
	}
	return loginName(current.Username)
}

// loginName strips the Windows domain qualifier from a user name.
func loginName(userName string) string {
	if i := strings.LastIndex(userName, `\`); i >= 0 {
		return userName[i+1:]
	}
	return userName
}
