// Package screen captures a screenshot of the primary display and
// re-encodes it as JPEG to keep the payload small before OCR.
//
// On Wayland compositors we shell out to grim; on X11 to scrot; on
// macOS to screencapture. Like the activity probe, the capturer is an
// injected capability behind a small interface.
package screen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // grim and screencapture emit PNG
	"os"
	"os/exec"
)

// JPEG quality for the compressed payload.
const jpegQuality = 85

// Capturer takes a screenshot of the primary display.
type Capturer interface {
	Name() string
	Available() bool
	Capture(ctx context.Context) ([]byte, error)
}

// Detect picks the first capturer that can run on this system.
func Detect() (Capturer, error) {
	candidates := []Capturer{
		&grimCapturer{},
		&scrotCapturer{},
		&macCapturer{},
	}
	for _, c := range candidates {
		if c.Available() {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no screen capturer available on this system")
}

// grimCapturer captures via grim on Wayland.
type grimCapturer struct{}

func (c *grimCapturer) Name() string { return "grim" }

func (c *grimCapturer) Available() bool {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return false
	}
	_, err := exec.LookPath("grim")
	return err == nil
}

func (c *grimCapturer) Capture(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "grim", "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("grim failed: %w (stderr: %s)", err, stderr.String())
	}
	return compressJPEG(stdout.Bytes())
}

// scrotCapturer captures via scrot on X11. scrot cannot write to
// stdout, so it goes through a temp file.
type scrotCapturer struct{}

func (c *scrotCapturer) Name() string { return "scrot" }

func (c *scrotCapturer) Available() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	_, err := exec.LookPath("scrot")
	return err == nil
}

func (c *scrotCapturer) Capture(ctx context.Context) ([]byte, error) {
	tmp, err := tempImagePath()
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, "scrot", "--overwrite", tmp)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("scrot failed: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("read scrot output: %w", err)
	}
	return compressJPEG(data)
}

// macCapturer captures via screencapture on macOS.
type macCapturer struct{}

func (c *macCapturer) Name() string { return "screencapture" }

func (c *macCapturer) Available() bool {
	_, err := exec.LookPath("screencapture")
	return err == nil
}

func (c *macCapturer) Capture(ctx context.Context) ([]byte, error) {
	tmp, err := tempImagePath()
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-m", tmp)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screencapture failed: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("read screencapture output: %w", err)
	}
	return compressJPEG(data)
}

// tempImagePath reserves a unique screenshot path. Concurrent cycles
// (the loop plus a manual check) must not share an output file.
func tempImagePath() (string, error) {
	f, err := os.CreateTemp("", "myfocus-screen-*.png")
	if err != nil {
		return "", fmt.Errorf("create screenshot temp file: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// compressJPEG re-encodes raw image bytes (usually PNG) as JPEG. If
// decoding fails the original bytes are passed through unchanged;
// better an uncompressed screenshot than a failed cycle.
func compressJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
