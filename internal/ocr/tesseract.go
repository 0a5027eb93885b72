// Package ocr extracts text from screenshots using the Tesseract CLI.
//
// Recognition runs as a chain of fallbacks, each tier a function
// returning (text, ok), composed left to right and short-circuiting
// on the first success:
//
//  1. combined Chinese+English recognition
//  2. English-only recognition
//  3. a heuristic description derived from the image size alone
//
// The final tier always succeeds, so the pipeline degrades instead of
// hard-failing when Tesseract is missing or finds nothing.
package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Tesseract language codes for the two recognition tiers.
const (
	langCombined = "chi_sim+eng"
	langDefault  = "eng"
)

// Engine drives the external tesseract executable.
type Engine struct {
	log *zap.SugaredLogger

	// binary is the tesseract executable; overridable for tests.
	binary string

	available bool
}

// New creates an OCR Engine.
func New(log *zap.SugaredLogger) *Engine {
	e := &Engine{
		log:    log.Named("ocr"),
		binary: "tesseract",
	}
	_, err := exec.LookPath(e.binary)
	e.available = err == nil
	return e
}

// Available reports whether tesseract is installed.
func (e *Engine) Available() bool {
	return e.available
}

// ExtractText runs the fallback chain over the image bytes. It never
// returns an empty string: when recognition fails entirely the
// heuristic description stands in for real text.
func (e *Engine) ExtractText(ctx context.Context, imageData []byte) string {
	tiers := []func() (string, bool){
		func() (string, bool) { return e.recognize(ctx, imageData, langCombined) },
		func() (string, bool) { return e.recognize(ctx, imageData, langDefault) },
		func() (string, bool) { return DescribeImage(imageData), true },
	}

	for _, tier := range tiers {
		if text, ok := tier(); ok {
			return text
		}
	}
	// Unreachable: the heuristic tier always succeeds.
	return ""
}

// recognize runs one tesseract invocation with the given language.
// ok is false when the engine is unavailable, the run fails, or the
// cleaned output is empty.
func (e *Engine) recognize(ctx context.Context, imageData []byte, language string) (string, bool) {
	if !e.available {
		return "", false
	}

	// A fresh directory per invocation: a manual check may run a
	// cycle concurrently with the loop's own, so shared fixed paths
	// would cross OCR text between samples.
	tmpDir, err := os.MkdirTemp("", "myfocus-ocr-")
	if err != nil {
		e.log.Warnw("create ocr temp dir", "error", err)
		return "", false
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.jpg")
	outputBase := filepath.Join(tmpDir, "output")
	outputPath := outputBase + ".txt"

	if err := os.WriteFile(inputPath, imageData, 0600); err != nil {
		e.log.Warnw("write ocr input", "error", err)
		return "", false
	}

	// tesseract <input> <output-base> -l <lang> --psm 6 --oem 3
	// psm 6: assume a single uniform block of text.
	// oem 3: default engine mode.
	cmd := exec.CommandContext(ctx, e.binary,
		inputPath, outputBase,
		"-l", language,
		"--psm", "6",
		"--oem", "3",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		e.log.Debugw("tesseract failed", "language", language, "error", err,
			"output", strings.TrimSpace(string(out)))
		return "", false
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		e.log.Warnw("read ocr output", "error", err)
		return "", false
	}

	text := CleanText(string(raw))
	if text == "" {
		return "", false
	}
	e.log.Debugw("ocr succeeded", "language", language, "chars", len(text))
	return text, true
}

// CleanText trims each line and drops blank ones. No length cap is
// applied here; the prompt builder truncates.
func CleanText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// DescribeImage derives a coarse content description from nothing but
// the payload size. Used when OCR is unavailable so the classifier
// still gets a hint about screen density.
func DescribeImage(imageData []byte) string {
	sizeKB := len(imageData) / 1024

	var assessment string
	switch {
	case sizeKB > 1000:
		assessment = "高分辨率屏幕内容，可能包含大量文本信息，建议检查是否在进行文档编辑或网页浏览"
	case sizeKB > 500:
		assessment = "中等分辨率屏幕内容，可能包含应用界面和文本，建议分析当前应用使用情况"
	case sizeKB > 100:
		assessment = "标准分辨率屏幕内容，包含基本界面元素，可能正在使用桌面应用"
	default:
		assessment = "低分辨率或压缩度高的屏幕内容，文本信息有限"
	}

	return fmt.Sprintf("智能屏幕分析: %s (图像大小: %d KB)", assessment, sizeKB)
}
