// Package shaders embeds the WGSL compute kernels for the GPU force
// paths (§4.2, §4.3), mirroring the teacher's own shaders package:
// each kernel is a plain embedded string, loaded once at GPU-path
// construction.
package shaders

import (
	_ "embed"
)

//go:embed bin_count.wgsl
var BinCountWGSL string

//go:embed bin_scatter.wgsl
var BinScatterWGSL string

//go:embed grid_force.wgsl
var GridForceWGSL string

//go:embed dense_force.wgsl
var DenseForceWGSL string
