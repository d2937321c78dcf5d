//go:build mage

// Package main provides build targets for pivend using Mage.
//
// Usage:
//
//	mage build      Compile the pivend CLI to bin/
//	mage firmware   Build the Pico firmware with TinyGo
//	mage flash      Build and flash the firmware to a connected Pico
//	mage test       Run all tests
//	mage clean      Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo     = "go"
	binTinyGo = "tinygo"

	binaryName   = "pivend"
	binaryDir    = "bin"
	cmdDir       = "./cmd/pivend"
	firmwareDir  = "./firmware"
	firmwareName = "pivend.uf2"
	target       = "pico"
)

// Build compiles the pivend CLI to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Firmware builds the firmware image for the Pico to bin/.
func Firmware() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binTinyGo, "build", "-target="+target, "-o", filepath.Join(binaryDir, firmwareName), firmwareDir)
}

// Flash builds the firmware and flashes it to a Pico in BOOTSEL mode.
func Flash() error {
	mg.Deps(Firmware)
	return sh.RunV(binTinyGo, "flash", "-target="+target, firmwareDir)
}

// Test runs all tests. Tests that need a board are skipped unless PIVEND_SERIAL_PORT is set.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
