package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCleanText(t *testing.T) {
	t.Run("trims lines and drops blanks", func(t *testing.T) {
		in := "  hello  \n\n\t\nworld\n   \n"
		assert.Equal(t, "hello\nworld", CleanText(in))
	})

	t.Run("all whitespace becomes empty", func(t *testing.T) {
		assert.Equal(t, "", CleanText(" \n \t \n"))
	})
}

func TestDescribeImage(t *testing.T) {
	tests := []struct {
		name   string
		sizeKB int
		want   string
	}{
		{"large image suggests documents", 1500, "高分辨率"},
		{"medium image suggests app UI", 600, "中等分辨率"},
		{"standard image suggests desktop app", 200, "标准分辨率"},
		{"tiny image carries little text", 10, "低分辨率"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xff}, tt.sizeKB*1024)
			got := DescribeImage(data)
			assert.Contains(t, got, tt.want)
		})
	}
}

// stubTesseract writes a fake tesseract that copies its input file to
// the expected <output-base>.txt, so recognize round-trips whatever
// bytes it was handed.
func stubTesseract(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract-stub")
	script := "#!/bin/sh\ncat \"$1\" > \"$2.txt\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestRecognize_ConcurrentInvocationsDoNotShareFiles(t *testing.T) {
	// A manual check cycle may run concurrently with the loop's own,
	// so two in-flight recognitions must never read each other's
	// input or output.
	e := New(zaptest.NewLogger(t).Sugar())
	e.binary = stubTesseract(t)
	e.available = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("sample-%d", i)
			got, ok := e.recognize(context.Background(), []byte(want), langDefault)
			assert.True(t, ok)
			assert.Equal(t, want, got, "recognition crossed between invocations")
		}(i)
	}
	wg.Wait()
}

func TestExtractText_FallsBackToHeuristic(t *testing.T) {
	e := New(zaptest.NewLogger(t).Sugar())
	// Force the binary tiers to fail regardless of what is installed.
	e.binary = "tesseract-not-installed-anywhere"
	e.available = false

	got := e.ExtractText(context.Background(), bytes.Repeat([]byte{1}, 2048))
	assert.Contains(t, got, "智能屏幕分析", "heuristic tier must back the chain")
}
