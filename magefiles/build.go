//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	vulkanShaderDir = "assets/shaders/vk"
	spirvDir        = "assets/shaders/vk/spirv"
	testbedBinary   = "bin/testbed"
)

type Build mg.Namespace

// Compiles every Vulkan GLSL stage into SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the testbed binary into bin/.
func (Build) Testbed() error {
	if _, err := executeCmd("go", withArgs("build", "-o", testbedBinary, "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	stages, err := shaderStages(vulkanShaderDir)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return fmt.Errorf("no shader stages found in %s", vulkanShaderDir)
	}
	if err := os.MkdirAll(spirvDir, 0o755); err != nil {
		return err
	}
	for _, src := range stages {
		out := filepath.Join(spirvDir, filepath.Base(src)+".spv")
		if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.0", src, "-o", out)); err != nil {
			return err
		}
	}
	fmt.Printf("compiled %d shader stages into %s\n", len(stages), spirvDir)
	return nil
}

// shaderStages lists the .vert and .frag files directly inside dir.
func shaderStages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var stages []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".vert", ".frag":
			stages = append(stages, filepath.Join(dir, e.Name()))
		}
	}
	return stages, nil
}
