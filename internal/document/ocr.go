package document

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/nikhilbhutani/notiflex/internal/config"
)

// Runner executes an external command, optionally feeding stdin, and
// returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Recognizer turns an image into text using the given language model.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
	RecognizeFile(ctx context.Context, path, lang string) (string, error)
}

// OCRService drives the tesseract CLI. At most MaxConcurrency recognitions
// run at once across the process.
type OCRService struct {
	tesseractPath string
	runner        Runner
	sem           *semaphore.Weighted
}

func NewOCRService(cfg config.OCRConfig, runner Runner) *OCRService {
	path := cfg.TesseractPath
	if path == "" {
		path = "tesseract"
	}
	if resolved, err := exec.LookPath(path); err == nil {
		path = resolved
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &OCRService{
		tesseractPath: path,
		runner:        runner,
		sem:           semaphore.NewWeighted(int64(max(cfg.MaxConcurrency, 1))),
	}
}

func (o *OCRService) IsAvailable(ctx context.Context) bool {
	_, err := o.runner.Run(ctx, o.tesseractPath, []string{"--version"}, nil)
	return err == nil
}

// Recognize feeds image bytes through stdin, so no temporary file is written.
func (o *OCRService) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	return o.run(ctx, []string{"stdin", "stdout", "-l", lang}, image)
}

func (o *OCRService) RecognizeFile(ctx context.Context, path, lang string) (string, error) {
	return o.run(ctx, []string{path, "stdout", "-l", lang}, nil)
}

func (o *OCRService) run(ctx context.Context, args []string, stdin []byte) (string, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for OCR slot: %w", err)
	}
	defer o.sem.Release(1)

	output, err := o.runner.Run(ctx, o.tesseractPath, args, stdin)
	if err != nil {
		return "", fmt.Errorf("tesseract OCR: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
