package control

import "fmt"

// Phase is the stuck/recovery state of the driver.
type Phase int

const (
	Normal Phase = iota
	Stuck
	Recovering
)

func (p Phase) String() string {
	switch p {
	case Normal:
		return "normal"
	case Stuck:
		return "stuck"
	case Recovering:
		return "recovering"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Memory is the per-session driver state carried from one tick to the
// next. It is a value: Decide returns the updated copy.
type Memory struct {
	PrevSteer float64
	PrevAccel float64
	PrevBrake float64
	PrevAngle float64

	// StuckTicks counts consecutive ticks with stucktimer over threshold.
	StuckTicks int
	Laps       int

	LastDistFromStart float64

	// RecoveryTicks is the remaining length of the recovery maneuver.
	RecoveryTicks int
	Phase         Phase
}

func NewMemory() Memory {
	return Memory{PrevAccel: 0.2, Phase: Normal}
}
