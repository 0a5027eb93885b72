// Package probe answers "what is the user looking at right now": the
// foreground application name and window title. The OS-level lookup
// is an injected capability; the monitoring scheduler only depends on
// the Probe interface so tests can substitute a fake.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"myfocus/internal/model"
)

// Probe reports the current foreground activity. It may fail: no
// foreground window, missing helper binary, or OS permission denial.
type Probe interface {
	Name() string
	Available() bool
	Current(ctx context.Context) (model.Activity, error)
}

// Detect picks the first probe that can run on this system.
func Detect() (Probe, error) {
	candidates := []Probe{
		&hyprlandProbe{},
		&x11Probe{},
		&macProbe{},
	}
	for _, p := range candidates {
		if p.Available() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no foreground-window probe available on this system")
}

// hyprlandProbe reads the active window from hyprctl.
type hyprlandProbe struct{}

func (p *hyprlandProbe) Name() string { return "hyprland" }

func (p *hyprlandProbe) Available() bool {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") == "" {
		return false
	}
	_, err := exec.LookPath("hyprctl")
	return err == nil
}

type hyprlandWindow struct {
	Class string `json:"class"`
	Title string `json:"title"`
	PID   int    `json:"pid"`
}

func (p *hyprlandProbe) Current(ctx context.Context) (model.Activity, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", "activewindow", "-j")
	output, err := cmd.Output()
	if err != nil {
		return model.Activity{}, fmt.Errorf("hyprctl failed: %w", err)
	}

	var window hyprlandWindow
	if err := json.Unmarshal(output, &window); err != nil {
		return model.Activity{}, fmt.Errorf("parse hyprctl output: %w", err)
	}

	return model.Activity{
		ApplicationName: window.Class,
		WindowTitle:     window.Title,
	}, nil
}

// x11Probe shells out to xdotool for the active window.
type x11Probe struct{}

func (p *x11Probe) Name() string { return "x11" }

func (p *x11Probe) Available() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	_, err := exec.LookPath("xdotool")
	return err == nil
}

func (p *x11Probe) Current(ctx context.Context) (model.Activity, error) {
	title, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return model.Activity{}, fmt.Errorf("xdotool getwindowname failed: %w", err)
	}

	// Best effort: window class needs a second round trip via the
	// window id. A missing class still yields a usable sample.
	app := ""
	if id, err := exec.CommandContext(ctx, "xdotool", "getactivewindow").Output(); err == nil {
		out, err := exec.CommandContext(ctx, "xprop", "-id", strings.TrimSpace(string(id)), "WM_CLASS").Output()
		if err == nil {
			app = parseWMClass(string(out))
		}
	}

	return model.Activity{
		ApplicationName: app,
		WindowTitle:     strings.TrimSpace(string(title)),
	}, nil
}

// parseWMClass extracts the class from xprop output of the form
// `WM_CLASS(STRING) = "instance", "Class"`.
func parseWMClass(out string) string {
	parts := strings.Split(out, "\"")
	if len(parts) >= 4 {
		return parts[3]
	}
	return ""
}

// macProbe queries the frontmost app through AppleScript.
type macProbe struct{}

func (p *macProbe) Name() string { return "macos" }

func (p *macProbe) Available() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (p *macProbe) Current(ctx context.Context) (model.Activity, error) {
	const script = `tell application "System Events" to get name of first application process whose frontmost is true`
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return model.Activity{}, fmt.Errorf("osascript failed: %w", err)
	}
	return model.Activity{ApplicationName: strings.TrimSpace(string(out))}, nil
}
