// Package viz renders tracking runs in the terminal.
//
// The package implements a live monitor using the Bubble Tea framework:
//
//   - [Model]: tracking progress, transverse beam scatter and centroid history
//   - [Observer]: tracking observer that feeds frames to the model
//   - [Canvas]: Braille-based pixel canvas for particle scatter plots
//
// # Key Bindings
//
//	Q / Ctrl+C - Stop tracking and quit
//	?          - Toggle help
//
// Frames are sent without blocking the tracker. When the terminal falls
// behind, intermediate turns are skipped rather than slowing the run.
package viz
