package control

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/track"
)

const (
	Classic   = "classic"
	Guarded   = "guarded"
	Lookahead = "lookahead"
	SameTick  = "sametick"

	DefaultVariant = Guarded
)

var (
	ErrUnknownVariant = errors.New("control: unknown policy variant")
	ErrNoTrack        = errors.New("control: variant needs a track map")
)

// Policy decides one command per tick.
type Policy interface {
	Decide(s protocol.Snapshot, mem Memory) (protocol.Command, Memory)
}

// Driver binds a pipeline variant to an immutable config and an optional
// track map.
type Driver struct {
	name  string
	cfg   config.Config
	opts  Options
	track *track.Map
}

func NewDriver(name string, cfg config.Config, opts Options, tm *track.Map) *Driver {
	return &Driver{name: name, cfg: cfg.Clone(), opts: opts, track: tm}
}

func (d *Driver) Decide(s protocol.Snapshot, mem Memory) (protocol.Command, Memory) {
	return decide(s, d.cfg, mem, d.opts, d.track)
}

func (d *Driver) Name() string          { return d.name }
func (d *Driver) Options() Options      { return d.opts }
func (d *Driver) Config() config.Config { return d.cfg.Clone() }
func (d *Driver) Track() *track.Map     { return d.track }

type variant struct {
	opts       Options
	needsTrack bool
	about      string
}

var variants = map[string]variant{
	Classic: {
		opts:  Options{},
		about: "reactive steering, throttle, braking and traction control",
	},
	Guarded: {
		opts:  Options{SpinPrevention: true},
		about: "classic plus spin prevention",
	},
	Lookahead: {
		opts:       Options{SpinPrevention: true, Lookahead: true},
		needsTrack: true,
		about:      "guarded plus corner anticipation from the segment table",
	},
	SameTick: {
		opts:  Options{SpinPrevention: true, SameTickBrake: true},
		about: "guarded with brake computed before throttle on the same tick",
	},
}

// New builds the named variant. tm may be nil unless the variant reads the
// segment table.
func New(name string, cfg config.Config, tm *track.Map) (*Driver, error) {
	v, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
	if v.needsTrack && tm == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTrack, name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewDriver(name, cfg, v.opts, tm), nil
}

// Variants lists the registered variant names.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line summary of the variant.
func Describe(name string) string {
	return variants[name].about
}
