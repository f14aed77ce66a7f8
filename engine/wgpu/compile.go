//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// compileSPIRV translates a WGSL kernel to SPIR-V words for the HAL.
// Vulkan consumes SPIR-V directly; going through naga here keeps shader
// validation errors at pipeline build time instead of first dispatch.
func compileSPIRV(wgslSource string) ([]uint32, error) {
	raw, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("compile shader: truncated SPIR-V output (%d bytes)", len(raw))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = uint32(raw[i*4]) |
			uint32(raw[i*4+1])<<8 |
			uint32(raw[i*4+2])<<16 |
			uint32(raw[i*4+3])<<24
	}
	return words, nil
}
