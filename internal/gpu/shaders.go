//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// Embedded WGSL compute shaders.

//go:embed shaders/move_agents.wgsl
var moveAgentsShaderSource string

//go:embed shaders/accumulate.wgsl
var accumulateShaderSource string

// Workgroup size of both compute shaders along x.
const workgroupSize = 64

// compiledShaders caches the SPIR-V for both shaders. Compilation is
// independent of the device, so it happens at most once per process.
var compiledShaders = sync.OnceValues(func() (shaderSet, error) {
	move, err := compileShaderToSPIRV(moveAgentsShaderSource)
	if err != nil {
		return shaderSet{}, fmt.Errorf("move_agents: %w", err)
	}
	acc, err := compileShaderToSPIRV(accumulateShaderSource)
	if err != nil {
		return shaderSet{}, fmt.Errorf("accumulate: %w", err)
	}
	slogger().Debug("gpu: shaders compiled", "move_words", len(move), "accumulate_words", len(acc))
	return shaderSet{move: move, accumulate: acc}, nil
})

// shaderSet holds SPIR-V words for the two passes.
type shaderSet struct {
	move       []uint32
	accumulate []uint32
}

// compileShaderToSPIRV compiles WGSL source to SPIR-V words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
