package max

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/zyncrender/max-plugin/internal/model"
)

func loadTestHost(t *testing.T) *ScriptedHost {
	t.Helper()
	host, err := LoadScriptedHost(filepath.Join("testdata", "scene.yaml"))
	if err != nil {
		t.Fatalf("failed to load scene fixture: %v", err)
	}
	return host
}

func TestLoadScriptedHost(t *testing.T) {
	host := loadTestHost(t)

	scenePath, err := host.SceneFilePath()
	if err != nil {
		t.Fatalf("SceneFilePath returned error: %v", err)
	}
	if scenePath != "C:/test_scene.max" {
		t.Errorf("scene path = %q, want sanitized %q", scenePath, "C:/test_scene.max")
	}

	frameRange, err := host.FrameRange()
	if err != nil {
		t.Fatalf("FrameRange returned error: %v", err)
	}
	if frameRange != "1-100" {
		t.Errorf("frame range = %q, want %q", frameRange, "1-100")
	}

	width, height, err := host.Resolution()
	if err != nil {
		t.Fatalf("Resolution returned error: %v", err)
	}
	if width != 1920 || height != 1080 {
		t.Errorf("resolution = %dx%d, want 1920x1080", width, height)
	}

	pretty, err := host.PrettyMaxVersion()
	if err != nil {
		t.Fatalf("PrettyMaxVersion returned error: %v", err)
	}
	if pretty != "2018.4" {
		t.Errorf("pretty version = %q, want %q", pretty, "2018.4")
	}
}

func TestLoadScriptedHost_MissingFile(t *testing.T) {
	_, err := LoadScriptedHost(filepath.Join("testdata", "no_such_scene.yaml"))
	if err == nil {
		t.Fatal("expected error for missing fixture file")
	}
}

func TestScriptedHost_VersionParsing(t *testing.T) {
	host := loadTestHost(t)

	maxtoa, err := host.MaxtoaVersion()
	if err != nil {
		t.Fatalf("MaxtoaVersion returned error: %v", err)
	}
	if maxtoa != "3.0.32" {
		t.Errorf("MaxtoA version = %q, want %q", maxtoa, "3.0.32")
	}

	vray, err := host.VrayVersion()
	if err != nil {
		t.Fatalf("VrayVersion returned error: %v", err)
	}
	if vray != "3.60.04" {
		t.Errorf("V-Ray version = %q, want %q", vray, "3.60.04")
	}
}

func TestScriptedHost_VrayRTEngine(t *testing.T) {
	cases := []struct {
		raw     string
		want    model.VrayRTEngine
		wantErr bool
	}{
		{"", model.VrayRTEngineNone, false},
		{"cpu", model.VrayRTEngineCPU, false},
		{"opencl", model.VrayRTEngineOpenCL, false},
		{"cuda", model.VrayRTEngineCUDA, false},
		{"metal", model.VrayRTEngineNone, true},
	}
	for _, c := range cases {
		host := NewScriptedHost(Fixture{Vray: FixtureVray{RTEngine: c.raw}})
		got, err := host.VrayRTEngine()
		if c.wantErr {
			if err == nil {
				t.Errorf("VrayRTEngine(%q) expected error", c.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("VrayRTEngine(%q) returned error: %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("VrayRTEngine(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestScriptedHost_IsRendererVrayRTEngine(t *testing.T) {
	host := NewScriptedHost(Fixture{Renderer: "V-Ray RT 3.60.04"})
	isRT, err := host.IsRendererVrayRTEngine()
	if err != nil {
		t.Fatalf("IsRendererVrayRTEngine returned error: %v", err)
	}
	if !isRT {
		t.Error("expected V-Ray RT renderer to be detected")
	}
}

func TestScriptedHost_UndoRestoresSceneState(t *testing.T) {
	host := loadTestHost(t)

	err := host.Undo(func() error {
		if err := host.SetResolution(640, 480); err != nil {
			return err
		}
		if err := host.SetOutputFileName("C:/Output/exported.png"); err != nil {
			return err
		}
		if err := host.SetCameraInActiveViewport("Camera2"); err != nil {
			return err
		}
		return host.ExportVrscene("C:/scene.vrscene", 1, 100)
	})
	if err != nil {
		t.Fatalf("Undo returned error: %v", err)
	}

	width, height, _ := host.Resolution()
	if width != 1920 || height != 1080 {
		t.Errorf("resolution after undo = %dx%d, want 1920x1080", width, height)
	}
	outputFile, _ := host.OutputFileName()
	if outputFile != "C:/Output/output.exr" {
		t.Errorf("output file after undo = %q, want %q", outputFile, "C:/Output/output.exr")
	}
	if host.viewportCamera != "" {
		t.Errorf("viewport camera after undo = %q, want empty", host.viewportCamera)
	}

	if len(host.Exports) != 1 {
		t.Fatalf("expected 1 recorded export, got %d", len(host.Exports))
	}
	want := ExportCall{Kind: "vrscene", FileName: "C:/scene.vrscene", StartFrame: 1, EndFrame: 100}
	if host.Exports[0] != want {
		t.Errorf("recorded export = %+v, want %+v", host.Exports[0], want)
	}
}

func TestScriptedHost_UndoPropagatesError(t *testing.T) {
	host := loadTestHost(t)
	boom := errors.New("export failed")

	err := host.Undo(func() error {
		if err := host.SetResolution(10, 10); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Undo error = %v, want %v", err, boom)
	}

	width, height, _ := host.Resolution()
	if width != 1920 || height != 1080 {
		t.Errorf("resolution after failed undo = %dx%d, want 1920x1080", width, height)
	}
}
