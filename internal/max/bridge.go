package max

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zyncrender/max-plugin/internal/model"
)

// Bridge implements API over the MAXScript HTTP listener that ships with
// the host-side installation.
type Bridge struct {
	baseURL    string
	httpClient *http.Client
}

// NewBridge returns a client for the listener at baseURL.
func NewBridge(baseURL string, timeout time.Duration) *Bridge {
	return &Bridge{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Description is the host identity snapshot taken at startup.
type Description struct {
	RendererName string
	MaxVersion   string
	SavePending  bool
}

type valueMessage struct {
	Value string `json:"value"`
}

type boolMessage struct {
	Value bool `json:"value"`
}

type listMessage struct {
	Values []string `json:"values"`
}

type frameRangeMessage struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type resolutionMessage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type rtEngineMessage struct {
	EngineType int `json:"engine_type"`
}

type exportMessage struct {
	FileName   string `json:"file_name"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

func (b *Bridge) get(path string, out any) error {
	url := b.baseURL + path
	log.Printf("[Max Bridge] → GET %s", url)
	resp, err := b.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach host bridge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[Max Bridge] ✗ %s returned %d", path, resp.StatusCode)
		return fmt.Errorf("host bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode host bridge response: %w", err)
	}
	return nil
}

func (b *Bridge) post(path string, payload any) error {
	url := b.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode host bridge request: %w", err)
	}
	log.Printf("[Max Bridge] → POST %s", url)
	resp, err := b.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach host bridge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[Max Bridge] ✗ %s returned %d", path, resp.StatusCode)
		return fmt.Errorf("host bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (b *Bridge) getList(path string) ([]string, error) {
	var resp listMessage
	if err := b.get(path, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (b *Bridge) getValue(path string) (string, error) {
	var resp valueMessage
	if err := b.get(path, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (b *Bridge) Assets() ([]string, error)      { return b.getList("/scene/assets") }
func (b *Bridge) CameraNames() ([]string, error) { return b.getList("/scene/cameras") }
func (b *Bridge) Xrefs() ([]string, error)       { return b.getList("/scene/xrefs") }
func (b *Bridge) ArnoldAOVs() ([]string, error)  { return b.getList("/arnold/aovs") }

func (b *Bridge) FrameRange() (string, error) {
	var resp frameRangeMessage
	if err := b.get("/scene/frame-range", &resp); err != nil {
		return "", err
	}
	if resp.Start == resp.End {
		return strconv.Itoa(resp.Start), nil
	}
	return fmt.Sprintf("%d-%d", resp.Start, resp.End), nil
}

func (b *Bridge) IsSavePending() (bool, error) {
	var resp boolMessage
	if err := b.get("/scene/save-pending", &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (b *Bridge) OutputDirName() (string, error)  { return b.getValue("/scene/output-dir") }
func (b *Bridge) OutputFileName() (string, error) { return b.getValue("/scene/output-file") }
func (b *Bridge) ProjectPath() (string, error)    { return b.getValue("/scene/project-path") }
func (b *Bridge) SceneFileName() (string, error)  { return b.getValue("/scene/file-name") }

func (b *Bridge) SceneFilePath() (string, error) {
	filePath, err := b.getValue("/scene/file-path")
	if err != nil {
		return "", err
	}
	return model.SanitizePath(filePath), nil
}

func (b *Bridge) Resolution() (int, int, error) {
	var resp resolutionMessage
	if err := b.get("/scene/resolution", &resp); err != nil {
		return 0, 0, err
	}
	return resp.Width, resp.Height, nil
}

func (b *Bridge) MaxVersion() (string, error) { return b.getValue("/max/version") }

func (b *Bridge) PrettyMaxVersion() (string, error) {
	raw, err := b.MaxVersion()
	if err != nil {
		return "", err
	}
	return PrettyMaxVersion(raw)
}

func (b *Bridge) RendererName() (string, error) { return b.getValue("/renderer/name") }

func (b *Bridge) MaxtoaVersion() (string, error) {
	raw, err := b.getValue("/arnold/version")
	if err != nil {
		return "", err
	}
	return ParseArnoldVersion(raw)
}

func (b *Bridge) VrayVersion() (string, error) {
	raw, err := b.getValue("/vray/version")
	if err != nil {
		return "", err
	}
	return TrimVrayVersion(raw), nil
}

func (b *Bridge) IsRendererVrayRTEngine() (bool, error) {
	name, err := b.RendererName()
	if err != nil {
		return false, err
	}
	return isVrayRTRendererName(name), nil
}

func (b *Bridge) VrayRTEngine() (model.VrayRTEngine, error) {
	var resp rtEngineMessage
	if err := b.get("/vray/rt-engine", &resp); err != nil {
		return model.VrayRTEngineNone, err
	}
	return model.VrayRTEngine(resp.EngineType), nil
}

func (b *Bridge) SetOutputFileName(fileName string) error {
	return b.post("/scene/output-file", valueMessage{Value: fileName})
}

func (b *Bridge) SetResolution(width, height int) error {
	return b.post("/scene/resolution", resolutionMessage{Width: width, Height: height})
}

func (b *Bridge) SetCameraInActiveViewport(cameraName string) error {
	return b.post("/scene/viewport-camera", valueMessage{Value: cameraName})
}

func (b *Bridge) ExportAss(fileName string, startFrame, endFrame int) error {
	return b.post("/export/ass", exportMessage{
		FileName:   fileName,
		StartFrame: startFrame,
		EndFrame:   endFrame,
	})
}

// ExportVrscene posts endFrame+1 because the listener's vrayExportRTScene
// treats endFrame as non-inclusive.
func (b *Bridge) ExportVrscene(fileName string, startFrame, endFrame int) error {
	return b.post("/export/vrscene", exportMessage{
		FileName:   fileName,
		StartFrame: startFrame,
		EndFrame:   endFrame + 1,
	})
}

// Undo opens a host undo scope, runs fn and always rolls the scene back.
func (b *Bridge) Undo(fn func() error) error {
	if err := b.post("/undo/begin", nil); err != nil {
		return err
	}
	fnErr := fn()
	if err := b.post("/undo/cancel", nil); err != nil {
		if fnErr != nil {
			return fnErr
		}
		return err
	}
	return fnErr
}

// Describe fetches renderer identity, host version and save state
// concurrently, failing fast when the listener is unreachable.
func (b *Bridge) Describe() (Description, error) {
	var desc Description
	var g errgroup.Group
	g.Go(func() error {
		name, err := b.RendererName()
		desc.RendererName = name
		return err
	})
	g.Go(func() error {
		version, err := b.MaxVersion()
		desc.MaxVersion = version
		return err
	})
	g.Go(func() error {
		pending, err := b.IsSavePending()
		desc.SavePending = pending
		return err
	})
	if err := g.Wait(); err != nil {
		return Description{}, err
	}
	return desc, nil
}
