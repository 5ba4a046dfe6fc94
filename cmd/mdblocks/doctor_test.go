package main

// Notes:
// - runDoctorCmd: every test injects a fake Host, so no browser is launched
//   and the process environment is never modified. Tests run in parallel.
// - OSHost and browserVersion touch the real machine and are not tested.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/alnah/go-mdblocks/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

const fakeChrome = "/opt/chrome/chrome"

// fakeHost describes the machine a test runs the doctor against.
type fakeHost struct {
	env        map[string]string
	files      []string // Paths that exist
	noBrowser  bool     // LookPath finds nothing
	versionErr error
	tempDir    string
}

func (f fakeHost) host(t *testing.T) *Host {
	t.Helper()
	tempDir := f.tempDir
	if tempDir == "" {
		tempDir = t.TempDir()
	}
	files := append([]string{fakeChrome}, f.files...)

	return &Host{
		Getenv: func(key string) string { return f.env[key] },
		Stat: func(name string) (os.FileInfo, error) {
			for _, p := range files {
				if p == name {
					return nil, nil
				}
			}
			return nil, os.ErrNotExist
		},
		LookPath: func() (string, bool) { return fakeChrome, !f.noBrowser },
		BrowserVersion: func(string) (string, error) {
			if f.versionErr != nil {
				return "", f.versionErr
			}
			return "Chromium 126.0", nil
		},
		TempDir: func() string { return tempDir },
	}
}

// runDoctorJSON runs "doctor --json" plus args and decodes the report.
func runDoctorJSON(t *testing.T, h fakeHost, args ...string) (doctorResult, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Config: config.DefaultConfig(), Host: h.host(t)}

	code := runDoctorCmd(append([]string{"--json"}, args...), env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\noutput: %s\nstderr: %s", err, stdout.String(), stderr.String())
	}
	return result, code
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - Report of a ready machine
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	result, code := runDoctorJSON(t, fakeHost{})

	if code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
	want := doctorResult{
		Status: statusReady,
		Chrome: chromeInfo{Found: true, Path: fakeChrome, Version: "Chromium 126.0", Sandbox: true},
		Env:    envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
		Fonts:  fontsInfo{Family: "Go", Subset: true, Usable: true},
		System: systemInfo{TempWritable: true},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Checks - Browser, environment and system checks
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Checks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		host        fakeHost
		wantCode    int
		wantStatus  string
		wantMessage string // Substring of a warning or error
	}{
		{
			name:        "browser not found",
			host:        fakeHost{noBrowser: true},
			wantCode:    ExitGeneral,
			wantStatus:  statusErrors,
			wantMessage: "Install Chrome or set ROD_BROWSER_BIN",
		},
		{
			name:        "configured browser missing",
			host:        fakeHost{env: map[string]string{"ROD_BROWSER_BIN": "/nowhere/chrome"}},
			wantCode:    ExitGeneral,
			wantStatus:  statusErrors,
			wantMessage: "Chrome not found at /nowhere/chrome",
		},
		{
			name:        "version unavailable",
			host:        fakeHost{versionErr: os.ErrPermission},
			wantCode:    ExitSuccess,
			wantStatus:  statusWarnings,
			wantMessage: "Could not get Chrome version",
		},
		{
			name:        "CI with sandbox",
			host:        fakeHost{env: map[string]string{"GITHUB_ACTIONS": "true"}},
			wantCode:    ExitSuccess,
			wantStatus:  statusWarnings,
			wantMessage: "Set ROD_NO_SANDBOX=1",
		},
		{
			name:       "CI without sandbox",
			host:       fakeHost{env: map[string]string{"CI": "true", "ROD_NO_SANDBOX": "1"}},
			wantCode:   ExitSuccess,
			wantStatus: statusReady,
		},
		{
			name:        "temp directory missing",
			host:        fakeHost{tempDir: filepath.Join(os.TempDir(), "mdblocks-missing", "nested")},
			wantCode:    ExitGeneral,
			wantStatus:  statusErrors,
			wantMessage: "Temp directory not writable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, code := runDoctorJSON(t, tt.host)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (warnings %v, errors %v)",
					result.Status, tt.wantStatus, result.Warnings, result.Errors)
			}
			if tt.wantMessage == "" {
				return
			}
			messages := strings.Join(append(result.Warnings, result.Errors...), "\n")
			if !strings.Contains(messages, tt.wantMessage) {
				t.Errorf("messages = %q, want to contain %q", messages, tt.wantMessage)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_ContainerDetection - Container signals and precedence
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_ContainerDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     fakeHost
		wantHint string
	}{
		{
			name:     "no container",
			host:     fakeHost{},
			wantHint: "",
		},
		{
			name:     "explicit override",
			host:     fakeHost{env: map[string]string{"MDBLOCKS_CONTAINER": "1"}},
			wantHint: "MDBLOCKS_CONTAINER=1",
		},
		{
			name:     "docker",
			host:     fakeHost{files: []string{"/.dockerenv"}},
			wantHint: "/.dockerenv",
		},
		{
			name:     "podman",
			host:     fakeHost{env: map[string]string{"container": "podman"}},
			wantHint: "container=podman",
		},
		{
			name:     "kubernetes",
			host:     fakeHost{env: map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}},
			wantHint: "KUBERNETES_SERVICE_HOST",
		},
		{
			name: "override takes precedence",
			host: fakeHost{
				env:   map[string]string{"MDBLOCKS_CONTAINER": "1", "KUBERNETES_SERVICE_HOST": "10.0.0.1"},
				files: []string{"/.dockerenv"},
			},
			wantHint: "MDBLOCKS_CONTAINER=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, _ := runDoctorJSON(t, tt.host)

			if result.Env.Container != (tt.wantHint != "") {
				t.Errorf("Container = %v, want %v", result.Env.Container, tt.wantHint != "")
			}
			if result.Env.ContainerHint != tt.wantHint {
				t.Errorf("ContainerHint = %q, want %q", result.Env.ContainerHint, tt.wantHint)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Fonts - Configured font family
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Fonts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		font        []byte // Written as the regular face; nil means no config file
		configName  string // Overrides the written config path
		wantFonts   fontsInfo
		wantMessage string
	}{
		{
			name:      "custom family",
			font:      goregular.TTF,
			wantFonts: fontsInfo{Family: "custom", Custom: true, Subset: true, Usable: true},
		},
		{
			name:        "not a font",
			font:        []byte("plain text"),
			wantFonts:   fontsInfo{Family: "custom", Custom: true, Subset: true},
			wantMessage: "Font family unusable",
		},
		{
			name:        "missing config",
			configName:  filepath.Join("missing", "fonts.yaml"),
			wantMessage: "loading config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			configPath := filepath.Join(dir, tt.configName)
			if tt.font != nil {
				fontPath := writeFile(t, filepath.Join(dir, "regular.ttf"), string(tt.font))
				configPath = writeFile(t, filepath.Join(dir, "fonts.yaml"), "fonts:\n  regular: "+fontPath+"\n")
			}

			result, code := runDoctorJSON(t, fakeHost{}, "--config", configPath)

			if diff := cmp.Diff(tt.wantFonts, result.Fonts); diff != "" {
				t.Errorf("fonts mismatch (-want +got):\n%s", diff)
			}
			if tt.wantMessage == "" {
				if code != ExitSuccess {
					t.Errorf("exit code = %d, want %d (errors %v)", code, ExitSuccess, result.Errors)
				}
				return
			}
			if code != ExitGeneral {
				t.Errorf("exit code = %d, want %d", code, ExitGeneral)
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantMessage) {
				t.Errorf("errors = %v, want to contain %q", result.Errors, tt.wantMessage)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput - Text report sections and status line
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		host fakeHost
		want []string
	}{
		{
			name: "ready",
			host: fakeHost{},
			want: []string{
				"mdblocks doctor",
				"[OK] Found at " + fakeChrome,
				"[OK] Sandbox: enabled",
				"[OK] Platform: " + runtime.GOOS + "/" + runtime.GOARCH,
				"[OK] Family: Go (subset: true)",
				"[OK] Temp directory: writable",
				"Status: Ready to convert",
			},
		},
		{
			name: "container with warnings",
			host: fakeHost{env: map[string]string{"container": "docker"}},
			want: []string{
				"[OK] Container: detected (container=docker)",
				"[WARN] Container/CI detected",
				"Status: Ready with warnings",
			},
		},
		{
			name: "no browser",
			host: fakeHost{noBrowser: true},
			want: []string{
				"[ERROR] Not found",
				"Errors:",
				"Status: Not ready (see errors above)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout bytes.Buffer
			env := &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}, Config: config.DefaultConfig(), Host: tt.host.host(t)}

			runDoctorCmd(nil, env)

			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q\n%s", want, stdout.String())
				}
			}
		})
	}
}
