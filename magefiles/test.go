//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the tests that need no GPU driver with the race detector.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race",
		"./engine/core/...",
		"./engine/containers/...",
		"./engine/assets/...",
		"./engine/systems/...",
		"./engine/renderer/frames/...",
		"./engine/renderer/metadata/...",
	), withStream())
	return err
}
