// Package viz renders ensemble distributions in the terminal.
//
//   - [PlotSnapshots]: asciigraph line plot of the snapshot histograms
//   - [Canvas]: Braille-based pixel canvas used for live histograms
//   - [WatchModel]: Bubble Tea program that follows a running simulation
//
// # Key Bindings
//
//	Space - Freeze/resume the display
//	L     - Toggle a logarithmic density axis
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Stop the simulation and quit
package viz
