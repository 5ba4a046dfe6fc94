package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	mdblocks "github.com/alnah/go-mdblocks"
	"github.com/alnah/go-mdblocks/internal/config"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unknown", errors.New("boom"), ExitGeneral},
		{"invariant", fmt.Errorf("building document: %w", mdblocks.ErrInvariant), ExitInvariant},
		{"browser connect", fmt.Errorf("converting to PDF: %w", mdblocks.ErrBrowserConnect), ExitBrowser},
		{"pdf generation", mdblocks.ErrPDFGeneration, ExitBrowser},
		{"deadline", context.DeadlineExceeded, ExitBrowser},
		{"not found", fmt.Errorf("discovering files: %w", os.ErrNotExist), ExitIO},
		{"read markdown", ErrReadMarkdown, ExitIO},
		{"write pdf", ErrWritePDF, ExitIO},
		{"output dir", ErrCreateOutputDir, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"config not found", fmt.Errorf("loading config: %w", config.ErrConfigNotFound), ExitUsage},
		{"config invalid", config.ErrConfigInvalid, ExitUsage},
		{"empty markdown", fmt.Errorf("1 conversion(s) failed: %w", mdblocks.ErrEmptyMarkdown), ExitUsage},
		{"margin", mdblocks.ErrInvalidMargin, ExitUsage},
		{"font", mdblocks.ErrFontLoad, ExitUsage},
		{"workers", ErrInvalidWorkerCount, ExitUsage},
		{"timeout", ErrInvalidTimeout, ExitUsage},
		{"extension", ErrInvalidExtension, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
