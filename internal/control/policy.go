package control

import (
	"math"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/track"
)

const (
	steerLock     = 0.7
	centerSensor  = protocol.TrackSensors / 2
	alignedAngle  = 0.1
	standstill    = 5.0
	spinMinSpeed  = 30.0
	brakeGate     = 0.1
	recoveryGear  = -1
	recoveryAccel = 0.5
)

// Options selects the optional stages of the pipeline.
type Options struct {
	SpinPrevention bool
	Lookahead      bool
	// SameTickBrake computes brake before throttle instead of reading the
	// previous tick's brake.
	SameTickBrake bool
}

// Decide runs the full pipeline, spin prevention included when the config
// enables it. It is equivalent to the "guarded" variant.
func Decide(s protocol.Snapshot, cfg config.Config, mem Memory) (protocol.Command, Memory) {
	return decide(s, cfg, mem, Options{SpinPrevention: true}, nil)
}

func decide(s protocol.Snapshot, cfg config.Config, mem Memory, opts Options, tm *track.Map) (protocol.Command, Memory) {
	next := mem
	trackLaps(s.DistFromStart(), &next)

	sensors := s.Track()
	angle := s.Angle()
	steer := Steer(sensors, angle, s.TrackPos(), cfg)

	if recovering(s.StuckTimer(), cfg, &next) {
		cmd := recoveryCommand(steer)
		next.PrevSteer = cmd.Steer
		next.PrevAccel = cmd.Accel
		next.PrevBrake = cmd.Brake
		next.PrevAngle = angle
		return cmd, next
	}

	speed := s.SpeedX()
	ahead := MinAhead(sensors)

	target := TargetSpeed(ahead, cfg)
	brake := ReactiveBrake(angle, ahead, speed)
	if opts.Lookahead && tm != nil {
		dist := s.DistFromStart()
		target = lookaheadTarget(target, angle, dist, cfg, tm)
		brake = math.Max(brake, tm.AdaptiveBrake(dist, math.Abs(angle)))
	}

	gate := mem.PrevBrake
	if opts.SameTickBrake {
		gate = brake
	}
	accel := Throttle(speed, target, gate)

	if cfg.TractionControl {
		accel = Traction(accel, s.WheelSpinVel(), cfg)
	}

	if opts.SpinPrevention && cfg.SpinPrevention && Spinning(angle, speed, cfg) {
		accel = 0
		brake = cfg.SpinBrake
	}

	cmd := protocol.Command{
		Accel: accel,
		Brake: clamp(brake, 0, 1),
		Gear:  Gear(speed, cfg.GearSpeeds),
		Steer: steer,
		Focus: protocol.DefaultFocus(),
	}

	next.PrevSteer = cmd.Steer
	next.PrevAccel = cmd.Accel
	next.PrevBrake = cmd.Brake
	next.PrevAngle = angle
	return cmd, next
}

// trackLaps counts a lap when the distance drops after having passed 100 m,
// which ignores the reset from zero on the first tick.
func trackLaps(dist float64, mem *Memory) {
	if dist < mem.LastDistFromStart && mem.LastDistFromStart > 100 {
		mem.Laps++
	}
	mem.LastDistFromStart = dist
}

// recovering advances the stuck state machine and reports whether this
// tick belongs to the recovery maneuver. Recovery always ends after
// StuckRecoveryTime ticks whatever the sensors say.
func recovering(stuckTimer float64, cfg config.Config, mem *Memory) bool {
	over := stuckTimer > cfg.StuckThreshold
	if over {
		mem.StuckTicks++
	} else {
		mem.StuckTicks = 0
	}

	switch mem.Phase {
	case Stuck:
		mem.Phase = Recovering
		fallthrough
	case Recovering:
		mem.RecoveryTicks--
		if mem.RecoveryTicks <= 0 {
			mem.RecoveryTicks = 0
			mem.Phase = Normal
			return false
		}
		return true
	default:
		if !over {
			return false
		}
		mem.Phase = Stuck
		mem.RecoveryTicks = cfg.StuckRecoveryTime
		return true
	}
}

func recoveryCommand(steer float64) protocol.Command {
	return protocol.Command{
		Accel: recoveryAccel,
		Gear:  recoveryGear,
		Steer: -steer,
		Focus: protocol.DefaultFocus(),
	}
}

// Steer points the car at the most open range sensor, corrected by the
// heading error and the lateral offset. Equal readings resolve toward the
// forward sensor.
func Steer(sensors [protocol.TrackSensors]float64, angle, trackPos float64, cfg config.Config) float64 {
	best := centerSensor
	for i, v := range sensors {
		switch {
		case v > sensors[best]:
			best = i
		case v == sensors[best] && distance(i) < distance(best):
			best = i
		}
	}
	direction := float64(best-centerSensor) / float64(centerSensor)
	steer := direction*steerLock + angle*cfg.SteerGain/math.Pi - trackPos*cfg.CenteringGain
	return clamp(steer, -1, 1)
}

func distance(i int) int {
	if i < centerSensor {
		return centerSensor - i
	}
	return i - centerSensor
}

// MinAhead is the narrowest of the five forward-center range readings.
func MinAhead(sensors [protocol.TrackSensors]float64) float64 {
	ahead := sensors[7]
	for _, v := range sensors[8:12] {
		ahead = math.Min(ahead, v)
	}
	return ahead
}

func TargetSpeed(ahead float64, cfg config.Config) float64 {
	switch {
	case ahead < 40:
		return 70
	case ahead < 70:
		return 100
	default:
		return cfg.TargetSpeed
	}
}

// Throttle picks accel for the given speed and target. prevBrake is the
// brake command the gate is read from.
func Throttle(speed, target, prevBrake float64) float64 {
	accel := 0.2
	switch {
	case prevBrake > brakeGate:
		accel = 0
	case speed < target-5:
		accel = 1
	case speed < target:
		accel = 0.5
	}
	if speed < standstill {
		accel = 1
	}
	return clamp(accel, 0, 1)
}

// ReactiveBrake only brakes while the heading error exceeds 0.1 rad.
func ReactiveBrake(angle, ahead, speed float64) float64 {
	if math.Abs(angle) <= alignedAngle {
		return 0
	}
	switch {
	case ahead < 35 && speed > 80:
		return 0.4
	case ahead < 60 && speed > 100:
		return 0.18
	case ahead < 90 && speed > 130:
		return 0.07
	}
	return 0
}

// Traction lowers accel when the rear wheels spin faster than the front
// ones by more than the configured threshold. It never raises accel.
func Traction(accel float64, wheels [protocol.Wheels]float64, cfg config.Config) float64 {
	spin := (wheels[2] + wheels[3]) - (wheels[0] + wheels[1])
	if spin > cfg.TractionThreshold {
		accel -= cfg.TractionReduction
	}
	return clamp(accel, 0, 1)
}

func Spinning(angle, speed float64, cfg config.Config) bool {
	return math.Abs(angle) > cfg.SpinThreshold && speed > spinMinSpeed
}

// Gear returns the highest gear whose threshold speed is exceeded, in
// [1, 6].
func Gear(speed float64, thresholds []float64) int {
	gear := 1
	for i, t := range thresholds {
		if speed > t {
			gear = i + 1
		}
	}
	return min(max(gear, 1), 6)
}

func lookaheadTarget(target, angle, dist float64, cfg config.Config, tm *track.Map) float64 {
	heading := cfg.TargetSpeed
	switch a := math.Abs(angle); {
	case a > cfg.BrakeThresholdTight:
		heading *= 0.6
	case a > cfg.BrakeThresholdMedium:
		heading *= 0.8
	}
	target = math.Min(target, heading)
	if corner, ok := tm.CornerSpeed(dist); ok {
		target = math.Min(target, corner)
	}
	return clamp(target, cfg.MinSpeed, cfg.MaxSpeed)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
