package diagnostics

import (
	"fmt"
	"time"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sample is a point-in-time reading of the display driver.
type Sample struct {
	Initialized bool
	Running     bool
	Frames      uint64
	Overruns    uint64
	LastScan    time.Duration
	RefreshHz   int
	Brightness  float64
}

// overrunWarn is the fraction of overrun frames that raises a warning.
const overrunWarn = 0.1

// Evaluate turns a sample into findings, most severe first. A healthy driver
// yields a single Info.
func Evaluate(s Sample) []Diagnostic {
	var out []Diagnostic
	if !s.Initialized {
		out = append(out, Diagnostic{
			Severity:       Err,
			Code:           "LINK_DOWN",
			Summary:        "hardware link not acquired",
			LikelyCauses:   []string{"GPIO or SPI device missing", "insufficient permissions"},
			SuggestedFixes: []string{"run with link: sim", "check /dev/spidev* and gpiochip access"},
		})
		return out
	}
	if s.Frames > 0 {
		ratio := float64(s.Overruns) / float64(s.Frames)
		if ratio > overrunWarn {
			budget := time.Second / time.Duration(max(s.RefreshHz, 1))
			out = append(out, Diagnostic{
				Severity: Warn,
				Code:     "SCAN_OVERRUN",
				Summary:  "scan passes exceed the frame budget",
				Detail:   fmt.Sprintf("last pass %s against a %s budget", s.LastScan, budget),
				LikelyCauses: []string{
					"SPI clock too slow for six layers",
					"hold interval too long",
				},
				SuggestedFixes: []string{"lower refresh_hz", "raise spi.speed_hz", "shorten hold_us"},
				Evidence: map[string]any{
					"frames":   s.Frames,
					"overruns": s.Overruns,
					"ratio":    ratio,
				},
			})
		}
	}
	if s.Brightness == 0 {
		out = append(out, Diagnostic{
			Severity: Warn,
			Code:     "DARK",
			Summary:  "brightness is zero; nothing will light",
		})
	}
	if !s.Running {
		out = append(out, Diagnostic{Severity: Info, Code: "IDLE", Summary: "scan loop stopped"})
	}
	if len(out) == 0 {
		out = append(out, Diagnostic{
			Severity: Info,
			Code:     "OK",
			Summary:  fmt.Sprintf("scanning at %d Hz", s.RefreshHz),
			Evidence: map[string]any{"frames": s.Frames, "last_scan_us": s.LastScan.Microseconds()},
		})
	}
	return out
}
