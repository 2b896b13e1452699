//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the qcwatch project using Mage.
//
// Usage:
//
//	mage build        Compile the qcwatch binary to bin/
//	mage test:all     Run all tests
//	mage test:race    Run all tests with the race detector
//	mage test:cover   Run all tests and write coverage.out
//	mage test:golden  Regenerate golden files
//	mage vet          Run go vet
//	mage lint         Run go vet and golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install qcwatch to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "qcwatch"
	binaryDir  = "bin"
	cmdDir     = "./cmd/qcwatch"
	versionVar = "github.com/mesh-intelligence/qcwatch/internal/cli.Version"
)

// ldflags stamps the version from QCWATCH_VERSION when it is set.
func ldflags() string {
	v := os.Getenv("QCWATCH_VERSION")
	if v == "" {
		return ""
	}
	return "-X " + versionVar + "=" + v
}

// Build compiles the qcwatch binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	os.Remove(coverProfile)
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
