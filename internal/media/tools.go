package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolUnavailable marks a missing external tool. For OCR this is terminal
// for the item, not retried.
var ErrToolUnavailable = errors.New("external tool not available")

// OCR extracts text from a saved image.
type OCR interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// Transcriber produces a transcript from a saved audio or video file.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TesseractOCR shells out to the tesseract binary, reading the recognized
// text from stdout.
type TesseractOCR struct {
	runner    Runner
	languages string // tesseract -l value, e.g. "por+eng"
}

func NewTesseractOCR(runner Runner, languages string) *TesseractOCR {
	return &TesseractOCR{runner: runner, languages: languages}
}

// Available reports whether the tesseract binary is on PATH.
func (t *TesseractOCR) Available() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

func (t *TesseractOCR) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if !t.Available() {
		return "", ErrToolUnavailable
	}
	stdout, stderr, err := t.runner.Run(ctx, "tesseract", imagePath, "stdout", "-l", t.languages)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

// WhisperTranscriber shells out to a whisper CLI that prints the transcript
// to stdout.
type WhisperTranscriber struct {
	runner  Runner
	command string
	model   string
}

func NewWhisperTranscriber(runner Runner, command, model string) *WhisperTranscriber {
	if command == "" {
		command = "whisper-cli"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperTranscriber{runner: runner, command: command, model: model}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	stdout, stderr, err := w.runner.Run(ctx, w.command, "--model", w.model, "--no-timestamps", mediaPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w (%s)", w.command, err, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}
