// Package viz renders a running race in the terminal.
//
// [Dashboard] is a Bubble Tea model fed by a [Feed], which is attached to a
// session as an observer:
//
//   - speed history plotted with asciigraph
//   - steer, throttle and brake bars
//   - lap, gear, race position and stuck/recovery phase
//   - the 19 range sensors drawn as a Braille fan
//
// # Key Bindings
//
//	Q     - Stop the race and quit
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
