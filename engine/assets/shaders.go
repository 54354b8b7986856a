package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrBadSPIRV = errors.New("malformed SPIR-V file")

// ShaderLibrary reads GLSL stages for the immediate backend and compiled
// SPIR-V stages for the explicit one. It implements metadata.ShaderSource.
type ShaderLibrary struct {
	manager  *AssetManager
	glslDir  string
	spirvDir string
}

// NewShaderLibrary reads from glslDir and spirvDir. A non-nil manager is told
// about every file read so later edits get reported.
func NewShaderLibrary(manager *AssetManager, glslDir, spirvDir string) *ShaderLibrary {
	return &ShaderLibrary{
		manager:  manager,
		glslDir:  glslDir,
		spirvDir: spirvDir,
	}
}

func (l *ShaderLibrary) GLSL(name string) (string, error) {
	data, err := l.read(l.glslDir, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *ShaderLibrary) SPIRV(name string) ([]uint32, error) {
	data, err := l.read(l.spirvDir, name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrBadSPIRV, name, len(data))
	}
	return bytesToWords(data), nil
}

func (l *ShaderLibrary) read(dir, name string) ([]byte, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader %s: %w", name, err)
	}
	if l.manager != nil {
		l.manager.MarkLoaded(path)
	}
	return data, nil
}

// bytesToWords packs little-endian bytes into SPIR-V words.
func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := 0; i < len(words); i++ {
		byteIndex := i * 4
		words[i] |= uint32(b[byteIndex])
		words[i] |= uint32(b[byteIndex+1]) << 8
		words[i] |= uint32(b[byteIndex+2]) << 16
		words[i] |= uint32(b[byteIndex+3]) << 24
	}
	return words
}
