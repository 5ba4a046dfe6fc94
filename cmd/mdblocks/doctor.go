package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdblocks/internal/config"
	"github.com/alnah/go-mdblocks/internal/fontsubset"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	Fonts    fontsInfo  `json:"fonts"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// fontsInfo describes the font family documents are rendered with.
type fontsInfo struct {
	Family string `json:"family"`
	Custom bool   `json:"custom"`
	Subset bool   `json:"subset"`
	Usable bool   `json:"usable"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// ciVars are set by the common CI providers.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// runDoctorCmd executes the doctor command and returns an exit code.
// Warnings still exit 0; errors exit 1.
func runDoctorCmd(args []string, env *Environment) int {
	f := &doctorFlags{}
	fs := newDoctorFlagSet(f)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	host := env.Host
	if host == nil {
		host = OSHost()
	}
	result := runDoctor(host, f.config, env.Config)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(host *Host, configName string, defaults *config.Config) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  host.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: host.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(host, result)
	checkEnvironment(host, result)
	checkFonts(host, configName, defaults, result)
	checkSystem(host, result)

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	}
	return result
}

// checkChrome locates the browser the PDF renderer launches.
func checkChrome(host *Host, result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = host.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := host.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	if version, err := host.BrowserVersion(chromePath); err == nil {
		result.Chrome.Version = version
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(host *Host, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = detectContainer(host)
	for _, v := range ciVars {
		if host.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// detectContainer returns whether a container was detected and the signal
// that revealed it. MDBLOCKS_CONTAINER=1 takes precedence.
func detectContainer(host *Host) (bool, string) {
	if host.Getenv("MDBLOCKS_CONTAINER") == "1" {
		return true, "MDBLOCKS_CONTAINER=1"
	}
	if _, err := host.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := host.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if host.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkFonts loads the configured font family and verifies every face
// carries the glyphs each document needs.
func checkFonts(host *Host, configName string, defaults *config.Config, result *doctorResult) {
	cfg, err := loadConfig(configName, host.Getenv("MDBLOCKS_CONFIG"), defaults)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	result.Fonts.Subset = cfg.Fonts.Subset
	if !cfg.Fonts.Custom() {
		result.Fonts.Family = fontsubset.GoFamily().Name
		result.Fonts.Usable = true
		return
	}

	result.Fonts.Family = "custom"
	result.Fonts.Custom = true
	fam, err := fontsubset.LoadFamily("custom", fontsubset.Paths{
		Regular:    cfg.Fonts.Regular,
		Bold:       cfg.Fonts.Bold,
		Italic:     cfg.Fonts.Italic,
		BoldItalic: cfg.Fonts.BoldItalic,
	})
	if err == nil {
		_, err = fam.Subset("")
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Font family unusable: %v", err))
		return
	}
	result.Fonts.Usable = true
}

// checkSystem verifies the temp directory accepts new files.
func checkSystem(host *Host, result *doctorResult) {
	tmpDir := host.TempDir()
	f, err := os.CreateTemp(tmpDir, "mdblocks-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdblocks doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Fonts")
	switch {
	case r.Fonts.Usable:
		fmt.Fprintf(w, "  [OK] Family: %s (subset: %t)\n", r.Fonts.Family, r.Fonts.Subset)
	case r.Fonts.Family != "":
		fmt.Fprintf(w, "  [ERROR] Family: %s is unusable\n", r.Fonts.Family)
	default:
		fmt.Fprintln(w, "  [ERROR] Config could not be loaded")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblocks doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome, the font family and the temp directory are usable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Print the report as JSON")
}
