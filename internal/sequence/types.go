package sequence

// Keyframe pins an envelope to value V at clip-local time T (seconds). Ease
// shapes the segment that starts here: "linear" (default), "smooth" or "cubic".
type Keyframe struct {
	T    float64 `yaml:"t" json:"t"`
	V    float64 `yaml:"v" json:"v"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"`
}

// Envelope is a list of keyframes sorted by T.
type Envelope []Keyframe

// Clip plays one registered animation for DurationS seconds.
type Clip struct {
	Animation string  `yaml:"animation" json:"animation"`
	DurationS float64 `yaml:"duration_s" json:"durationS"`
	// Speed overrides the animation's multiplier when > 0.
	Speed float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
	// Brightness automates the driver brightness over the clip; empty leaves
	// it alone.
	Brightness Envelope `yaml:"brightness,omitempty" json:"brightness,omitempty"`
}

// Program is an ordered run of clips.
type Program struct {
	Loop  bool   `yaml:"loop" json:"loop"`
	Clips []Clip `yaml:"clips" json:"clips"`
}

// State enumerates playlist states.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Paused  State = "paused"
)

// Hooks connect the playlist to whatever plays animations and owns
// brightness. Nil hooks are skipped.
type Hooks struct {
	Play          func(name string) error
	SetSpeed      func(speed float64)
	SetBrightness func(b float64)
}
