// Command zync3dsmax runs the render submission plugin outside of 3ds
// Max. The presenter that drives the native submit dialog drives a
// console form here, against either a live MAXScript bridge or a
// scripted scene fixture, so the full submission flow can be exercised
// from a terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/zyncrender/max-plugin/internal/config"
	"github.com/zyncrender/max-plugin/internal/max"
	"github.com/zyncrender/max-plugin/internal/plugin"
	"github.com/zyncrender/max-plugin/internal/presenter"
	"github.com/zyncrender/max-plugin/internal/task"
	"github.com/zyncrender/max-plugin/internal/zync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal error: %s", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %s", err)
	}
}

func run(cfg *config.Config) error {
	host, err := newHost(&cfg.Bridge)
	if err != nil {
		return err
	}

	con := newConsole(os.Stdout)
	client := zync.NewClient(&cfg.Zync)
	service := zync.NewService(client, con, con, zync.Options{
		WorkDir: cfg.Zync.WorkDir,
		IsV2:    cfg.Zync.IsV2(),
		PvmAck:  cfg.Zync.PvmAck,
	})

	loop := task.NewLoop()

	con.spinner.Show("Logging into Zync...")
	loop.RunAsync(service.Connect,
		func() {
			con.spinner.Close()
			if err := openDialog(con, host, service, loop); err != nil {
				con.ShowError(err.Error())
				loop.Stop()
			}
		},
		func(err error) {
			con.spinner.Close()
			con.ShowError(err.Error())
			loop.Stop()
		})

	go readCommands(loop, con, client, cfg)

	loop.Run()
	return nil
}

// newHost connects to a live 3ds Max bridge when one is configured and
// replays a scripted scene fixture otherwise.
func newHost(cfg *config.BridgeConfig) (max.API, error) {
	if cfg.URL != "" {
		bridge := max.NewBridge(cfg.URL, time.Duration(cfg.Timeout)*time.Second)
		desc, err := bridge.Describe()
		if err != nil {
			return nil, fmt.Errorf("failed to reach 3ds Max bridge at %s: %w", cfg.URL, err)
		}
		log.Printf("Connected to 3ds Max %s, renderer %s", desc.MaxVersion, desc.RendererName)
		return bridge, nil
	}
	if cfg.Fixture != "" {
		host, err := max.LoadScriptedHost(cfg.Fixture)
		if err != nil {
			return nil, err
		}
		log.Printf("Info: bridge not configured, replaying scene fixture %s", cfg.Fixture)
		return host, nil
	}
	log.Println("Info: bridge not configured, using built-in demo scene")
	return max.NewScriptedHost(demoFixture()), nil
}

// demoFixture is the scene used when neither a bridge nor a fixture file
// is configured, enough to walk the whole submission flow.
func demoFixture() max.Fixture {
	return max.Fixture{
		MaxVersion: "20,4,0,35710",
		Renderer:   "V-Ray Adv 3.60.04",
		Assets:     []string{"C:/Maps/floor_diffuse.png", "C:/Maps/env_dome.hdr"},
		Cameras:    []string{"Camera001", "Camera002"},
		FrameRange: "1-100",
		Resolution: max.FixtureResolution{Width: 1920, Height: 1080},
		Output:     max.FixtureOutput{Dir: "C:/Renders/", File: "C:/Renders/beauty.exr"},
		Scene: max.FixtureScene{
			Name: "demo_scene.max",
			Path: `C:\Scenes\demo_scene.max`,
		},
		ProjectPath: "C:/Projects/Demo",
		Vray:        max.FixtureVray{Version: "3.60.04.0001"},
	}
}

// openDialog builds the job model for the scene renderer and starts the
// presenter on the console surface.
func openDialog(con *console, host max.API, service *zync.Service, loop *task.Loop) error {
	job, err := plugin.CreateModel(host, service)
	if err != nil {
		return err
	}
	p := presenter.New(job, host, service, loop, presenter.Surface{
		SubmitDialog:  con.submit,
		SpinnerDialog: con.spinner,
		Notifier:      con,
	}, presenter.Options{
		Version:            plugin.Version,
		DefaultProjectName: plugin.DefaultProjectName(),
	})
	if err := p.Start(); err != nil {
		return err
	}
	if !con.submit.Visible() {
		// Start refused the scene, e.g. unsaved changes.
		loop.Stop()
		return nil
	}
	con.submit.printForm()
	fmt.Fprintln(con.out, "Type 'help' for commands.")
	return nil
}

// readCommands feeds stdin lines onto the interactive loop until EOF or
// quit.
func readCommands(loop *task.Loop, con *console, client *zync.Client, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		loop.Post(func() { runCommand(loop, con, client, cfg, fields) })
	}
	// Runs after every command already queued.
	loop.Post(loop.Stop)
}

func runCommand(loop *task.Loop, con *console, client *zync.Client, cfg *config.Config, fields []string) {
	verb, args := fields[0], fields[1:]
	switch verb {
	case "help":
		con.printHelp()
	case "show", "set", "check", "uncheck", "pick", "options", "click":
		if err := con.runWidgetCommand(verb, args); err != nil {
			con.ShowError(err.Error())
		}
	case "files":
		con.stageFiles(args)
	case "consent":
		if len(args) != 1 || (args[0] != "yes" && args[0] != "no") {
			con.ShowError("usage: consent yes|no")
			return
		}
		con.stageConsent(args[0] == "yes")
	case "login":
		if len(args) != 2 {
			con.ShowError("usage: login <email> <password>")
			return
		}
		runLogin(loop, con, client, cfg, args[0], args[1])
	case "poll":
		if len(args) != 1 {
			con.ShowError("usage: poll <job-id>")
			return
		}
		runPoll(loop, con, client, args[0])
	default:
		con.ShowError(fmt.Sprintf("Unknown command: %s", verb))
	}
}

// runLogin obtains a session token and stores it for the next start.
func runLogin(loop *task.Loop, con *console, client *zync.Client, cfg *config.Config, email, password string) {
	var loggedIn string
	loop.RunAsync(func() error {
		resp, err := client.Login(context.Background(), email, password)
		if err != nil {
			return err
		}
		loggedIn = resp.Email
		if cfg.Zync.TokenPath == "" {
			return nil
		}
		return client.SaveToken(cfg.Zync.TokenPath)
	}, func() {
		con.ShowInfo(fmt.Sprintf("Logged in as %s", loggedIn))
	}, func(err error) {
		con.ShowError(err.Error())
	})
}

// runPoll follows a submitted job to its terminal status.
func runPoll(loop *task.Loop, con *console, client *zync.Client, jobID string) {
	var status *zync.JobStatusResponse
	loop.RunAsync(func() error {
		var err error
		status, err = client.PollJobStatus(context.Background(), jobID, 2*time.Second, 30*time.Minute)
		return err
	}, func() {
		con.ShowInfo(fmt.Sprintf("Job %s %s (%d/%d chunks)", status.JobID, status.Status, status.DoneChunks, status.Chunks))
	}, func(err error) {
		con.ShowError(err.Error())
	})
}
