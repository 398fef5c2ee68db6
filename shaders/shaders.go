// Package shaders embeds the fixed WGSL sources the pipeline needs
// regardless of which user-authored parametric shader a model uses.
package shaders

import (
	_ "embed"
)

//go:embed subdivide.wgsl
var SubdivideWGSL string

//go:embed copy_patches.wgsl
var CopyPatchesWGSL string

//go:embed fallback.wgsl
var FallbackWGSL string

//go:embed ground_plane.wgsl
var GroundPlaneWGSL string
