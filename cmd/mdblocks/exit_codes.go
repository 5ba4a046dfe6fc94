package main

import (
	"context"
	"errors"
	"os"

	mdblocks "github.com/alnah/go-mdblocks"
	"github.com/alnah/go-mdblocks/internal/config"
)

// Exit codes for the mdblocks CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitBrowser   = 4 // Browser/Chrome errors
	ExitInvariant = 5 // Internal traversal invariant violated
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, mdblocks.ErrInvariant) {
		return ExitInvariant
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdblocks.ErrBrowserConnect) ||
		errors.Is(err, mdblocks.ErrPageCreate) ||
		errors.Is(err, mdblocks.ErrPageLoad) ||
		errors.Is(err, mdblocks.ErrPDFGeneration) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, mdblocks.ErrEmptyMarkdown) ||
		errors.Is(err, mdblocks.ErrInvalidPageSize) ||
		errors.Is(err, mdblocks.ErrInvalidOrientation) ||
		errors.Is(err, mdblocks.ErrInvalidMargin) ||
		errors.Is(err, mdblocks.ErrInvalidLayout) ||
		errors.Is(err, mdblocks.ErrFontLoad) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrTooManyInputs) {
		return ExitUsage
	}

	return ExitGeneral
}
