package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdblocks/internal/fileutil"
	"github.com/alnah/go-mdblocks/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// appDir is the directory searched under the user config dir.
const appDir = "go-mdblocks"

// Field length limits.
const (
	MaxTitleLength = 200
	MaxLangLength  = 35 // BCP 47 tags rarely exceed this
	MaxPathLength  = 4096
)

// Numeric bounds.
const (
	MaxFontSize    = 72.0 // pt
	MaxSpacing     = 50.0 // mm
	MaxMargin      = 100.0
	MaxLineSpacing = 5.0
)

// Log levels accepted in log.level.
const (
	LogNone   = "none"
	LogNormal = "normal"
	LogDebug  = "debug"
)

// Config holds all configuration for document generation.
type Config struct {
	Document DocumentConfig `yaml:"document"`
	Page     PageConfig     `yaml:"page"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// DocumentConfig defines text layout options.
type DocumentConfig struct {
	Title            string  `yaml:"title"`            // Empty = input file name
	Lang             string  `yaml:"lang"`             // Hyphenation language, e.g. "en" (empty = no hyphenation)
	Justify          bool    `yaml:"justify"`          // Justify paragraphs (default: true)
	FontSize         float64 `yaml:"fontSize"`         // Body size in pt (default: 11)
	ParagraphSpacing float64 `yaml:"paragraphSpacing"` // mm after each block (default: 2.5)
	HeaderSpacing    float64 `yaml:"headerSpacing"`    // mm before headings (default: 3)
	LineSpacing      float64 `yaml:"lineSpacing"`      // line-height factor (default: 1.281)
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string        `yaml:"size"`        // "a4", "a5", "a3", "letter", "legal" (default: "a4")
	Orientation string        `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margins     MarginsConfig `yaml:"margins"`
}

// MarginsConfig holds page margins in millimeters.
type MarginsConfig struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// FontsConfig defines a custom font family. Empty paths use the built-in family.
type FontsConfig struct {
	Regular    string `yaml:"regular"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"boldItalic"`
	Subset     bool   `yaml:"subset"` // Embed only the glyphs the document uses (default: true)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// LogConfig defines diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"` // "none", "normal", "debug" (default: "normal")
}

// Custom reports whether a custom font family is configured.
func (f FontsConfig) Custom() bool {
	return f.Regular != "" || f.Bold != "" || f.Italic != "" || f.BoldItalic != ""
}

var (
	validPageSizes    = []string{"a3", "a4", "a5", "legal", "letter"}
	validOrientations = []string{"portrait", "landscape"}
	validLogLevels    = []string{LogNone, LogNormal, LogDebug}
)

// Validate checks every field. Errors wrap ErrConfigInvalid, or ErrFieldTooLong
// for oversized strings.
func (c *Config) Validate() error {
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.lang", c.Document.Lang, MaxLangLength); err != nil {
		return err
	}
	if err := validateRange("document.fontSize", c.Document.FontSize, 0, MaxFontSize, false); err != nil {
		return err
	}
	if err := validateRange("document.paragraphSpacing", c.Document.ParagraphSpacing, 0, MaxSpacing, true); err != nil {
		return err
	}
	if err := validateRange("document.headerSpacing", c.Document.HeaderSpacing, 0, MaxSpacing, true); err != nil {
		return err
	}
	if err := validateRange("document.lineSpacing", c.Document.LineSpacing, 0, MaxLineSpacing, false); err != nil {
		return err
	}

	if err := validateOneOf("page.size", strings.ToLower(c.Page.Size), validPageSizes); err != nil {
		return err
	}
	if err := validateOneOf("page.orientation", strings.ToLower(c.Page.Orientation), validOrientations); err != nil {
		return err
	}
	margins := []struct {
		name  string
		value float64
	}{
		{"page.margins.top", c.Page.Margins.Top},
		{"page.margins.right", c.Page.Margins.Right},
		{"page.margins.bottom", c.Page.Margins.Bottom},
		{"page.margins.left", c.Page.Margins.Left},
	}
	for _, m := range margins {
		if err := validateRange(m.name, m.value, 0, MaxMargin, true); err != nil {
			return err
		}
	}

	fonts := []struct {
		name  string
		value string
	}{
		{"fonts.regular", c.Fonts.Regular},
		{"fonts.bold", c.Fonts.Bold},
		{"fonts.italic", c.Fonts.Italic},
		{"fonts.boldItalic", c.Fonts.BoldItalic},
	}
	for _, f := range fonts {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}
	if c.Fonts.Custom() && c.Fonts.Regular == "" {
		return fmt.Errorf("%w: fonts.regular is required when a custom family is set", ErrConfigInvalid)
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	return validateOneOf("log.level", c.Log.Level, validLogLevels)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateRange checks min < v <= max, or min <= v <= max when inclusive.
func validateRange(fieldName string, v, minVal, maxVal float64, inclusive bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrConfigInvalid, fieldName)
	}
	if v < minVal || (!inclusive && v == minVal) || v > maxVal {
		bound := ">"
		if inclusive {
			bound = ">="
		}
		return fmt.Errorf("%w: %s must be %s %g and <= %g, got %g", ErrConfigInvalid, fieldName, bound, minVal, maxVal, v)
	}
	return nil
}

func validateOneOf(fieldName, value string, valid []string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrConfigInvalid, fieldName, strings.Join(valid, ", "), value)
}

// DefaultConfig returns the built-in layout: A4 portrait, justified 11pt text.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			Justify:          true,
			FontSize:         11,
			ParagraphSpacing: 2.5,
			HeaderSpacing:    3,
			LineSpacing:      1.281,
		},
		Page: PageConfig{
			Size:        "a4",
			Orientation: "portrait",
			Margins:     MarginsConfig{Top: 20, Right: 35.5, Bottom: 30, Left: 42.5},
		},
		Fonts: FontsConfig{Subset: true},
		Log:   LogConfig{Level: LogNormal},
	}
}

// YAML renders the configuration as a config file.
func (c *Config) YAML() ([]byte, error) {
	return yamlutil.Encode(c)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-mdblocks/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
