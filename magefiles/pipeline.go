//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the CLI stages against the local
// documents/ and reports/ directories.
type Pipeline mg.Namespace

// Fetch downloads the URLs listed in the given file into documents/raw/.
func (Pipeline) Fetch(urlFile string) error {
	mg.Deps(Build)
	return sh.RunV(binPath, "fetch", "--urls", urlFile)
}

// Parse parses every changed document in documents/raw/.
func (Pipeline) Parse() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "parse")
}

// Merge builds and stores canonical reports for every parsed VIN.
func (Pipeline) Merge() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "merge", "--all")
}

// Run parses and merges in order.
func (Pipeline) Run() error {
	mg.SerialDeps(Pipeline.Parse, Pipeline.Merge)
	return nil
}

// Report prints the latest stored report for a VIN.
func (Pipeline) Report(vin string) error {
	mg.Deps(Build)
	out, err := sh.Output(binPath, "report", "show", strings.ToUpper(vin))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}
