//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the testbed binary into bin/.
func (Build) Testbed() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/testbed", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go mod tidy.
func (Build) Tidy() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return err
	}
	return nil
}
