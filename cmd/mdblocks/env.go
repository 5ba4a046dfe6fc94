package main

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-mdblocks/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config // Used when no config file is named
	Host   *Host          // Inspected by the doctor command; nil means the real host
}

// Host is the view of the machine the doctor command inspects.
type Host struct {
	Getenv         func(key string) string
	Stat           func(name string) (os.FileInfo, error)
	LookPath       func() (string, bool)
	BrowserVersion func(bin string) (string, error)
	TempDir        func() string
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
		Host:   OSHost(),
	}
}

// OSHost returns the Host backed by the running process.
func OSHost() *Host {
	return &Host{
		Getenv:         os.Getenv,
		Stat:           os.Stat,
		LookPath:       launcher.LookPath,
		BrowserVersion: browserVersion,
		TempDir:        os.TempDir,
	}
}

// browserVersion runs "<bin> --version".
func browserVersion(bin string) (string, error) {
	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- configured browser binary
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
