// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts file locally, writing the result
// next to it.
func Convert(file string) error {
	mg.Deps(Build)
	out, err := sh.Output(filepath.Join(binDir, binName), "convert", file)
	if err != nil {
		return fmt.Errorf("converting %s: %w", file, err)
	}
	fmt.Println("Wrote", out)
	return nil
}

// Serve builds the CLI and runs the HTTP service in the foreground.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}
