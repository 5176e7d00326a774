// Package control turns one telemetry snapshot into one driving command.
//
// The policy is a fixed pipeline run once per tick:
//
//  1. lap tracking from distFromStart
//  2. steering toward the most open range sensor
//  3. throttle from the forward clearance, gated by the previous brake
//  4. reactive braking while the car is not pointed down the track
//  5. traction control from front/rear wheel spin
//  6. spin prevention (variants [Guarded] and [Lookahead])
//  7. gear from the speed threshold table
//
// Throttle reads the brake computed on the previous tick, so braking and
// acceleration run one tick out of phase. [SameTick] is the variant that
// computes brake first.
//
// A [Memory] value is threaded through every call; [Decide] never mutates
// its inputs and performs no I/O.
//
// # Usage
//
//	drv, err := control.New("lookahead", config.Balanced(), track.Corkscrew())
//	mem := control.NewMemory()
//	for snap := range telemetry {
//		var cmd protocol.Command
//		cmd, mem = drv.Decide(snap, mem)
//		send(protocol.Encode(cmd))
//	}
package control
