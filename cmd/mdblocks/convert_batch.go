package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mdblocks "github.com/alnah/go-mdblocks"
	"github.com/alnah/go-mdblocks/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown    = errors.New("failed to read markdown file")
	ErrWritePDF        = errors.New("failed to write PDF file")
	ErrWriteHTML       = errors.New("failed to write HTML file")
	ErrCreateOutputDir = errors.New("failed to create output directory")
	ErrServiceInit     = errors.New("failed to initialize converter")
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input mdblocks.Input) (*mdblocks.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*mdblocks.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() CLIConverter
	Release(CLIConverter)
	Size() int
	InitErr() error
}

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	page       *mdblocks.PageSettings
	title      string // Empty = per-file name
	lang       string
	htmlOutput bool
	htmlOnly   bool
}

// ConversionResult is the outcome of one file. HTMLPath is set when an HTML
// file was written next to (or instead of) the PDF.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	HTMLPath   string
	Blocks     int
	Err        error
	Duration   time.Duration
}

// convertBatch fans files out to at most pool.Size() workers. Each worker
// holds one converter for its whole lifetime. Results keep the input order.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(pool.Size(), len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv := pool.Acquire()
			if conv == nil {
				err := fmt.Errorf("%w: %v", ErrServiceInit, pool.InitErr())
				for idx := range jobs {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: err}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}
	wg.Wait()
	return results
}

// convertFile reads one Markdown file, converts it and writes the outputs
// selected by params.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) (result ConversionResult) {
	start := time.Now()
	result = ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	defer func() { result.Duration = time.Since(start) }()

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		return result
	}

	converted, err := conv.Convert(ctx, mdblocks.Input{
		Markdown:  string(content),
		SourceDir: filepath.Dir(f.InputPath),
		Title:     documentTitle(params.title, f.InputPath),
		Lang:      params.lang,
		Page:      params.page,
		HTMLOnly:  params.htmlOnly,
	})
	if err != nil {
		result.Err = err
		return result
	}
	if converted.Document != nil {
		result.Blocks = converted.Document.Len()
	}

	result.Err = writeOutputs(&result, converted, params)
	return result
}

// writeOutputs stores the HTML and PDF of converted and records the paths
// actually written in result.
func writeOutputs(result *ConversionResult, converted *mdblocks.ConvertResult, params *conversionParams) error {
	if err := os.MkdirAll(filepath.Dir(result.OutputPath), dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateOutputDir, err)
	}

	if params.htmlOnly || params.htmlOutput {
		htmlPath := htmlOutputPath(result.OutputPath)
		if err := fileutil.WriteFileAtomic(htmlPath, converted.HTML, filePermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteHTML, err)
		}
		result.HTMLPath = htmlPath
		if params.htmlOnly {
			result.OutputPath = htmlPath
			return nil
		}
	}

	if err := fileutil.WriteFileAtomic(result.OutputPath, converted.PDF, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWritePDF, err)
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	FirstErr  error
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			if summary.FirstErr == nil {
				summary.FirstErr = r.Err
			}
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results to the environment writers.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if !verbose {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
			continue
		}
		fmt.Fprintf(env.Stdout, "%s -> %s (%d blocks, %v)\n",
			r.InputPath, r.OutputPath, r.Blocks, r.Duration.Round(time.Millisecond))
		if r.HTMLPath != "" && r.HTMLPath != r.OutputPath {
			fmt.Fprintf(env.Stdout, "%s -> %s\n", r.InputPath, r.HTMLPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}
