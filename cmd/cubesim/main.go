// Command cubesim runs the full pipeline headless against the simulated
// link and prints a per-second summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/app"
	"github.com/coreman2200/layercube/internal/config"
	"github.com/coreman2200/layercube/internal/cube"
	"github.com/coreman2200/layercube/internal/hwlink"
	"github.com/coreman2200/layercube/internal/led"
	"github.com/coreman2200/layercube/internal/sequence"
)

// summary prints a compact view of every Nth frame.
type summary struct {
	every int
	count int
}

func (s *summary) Show(v *cube.Volume) error {
	s.count++
	if s.every <= 0 || s.count%s.every != 0 {
		return nil
	}
	var r, g, b float64
	lit := 0
	for _, c := range v.Cells() {
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
		if c != cube.Black {
			lit++
		}
	}
	n := float64(cube.Total)
	fmt.Printf("[frame %05d] lit=%5d avg=(%.1f,%.1f,%.1f)\n", s.count, lit, r/n, g/n, b/n)
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml (playlist, brightness, refresh)")
		animation  = flag.String("animation", "Cube Rotation", "animation to play")
		playlist   = flag.Bool("playlist", false, "cycle through the built-ins")
		clipS      = flag.Float64("clip", 2, "seconds per animation with -playlist")
		duration   = flag.Duration("duration", 5*time.Second, "how long to run")
		fps        = flag.Int("fps", 60, "producer frames per second")
		seed       = flag.Int64("seed", 1, "random seed")
		realtime   = flag.Bool("realtime", true, "simulate wire timing")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = c
	}

	link, sim := hwlink.Simulated(hwlink.SimOpts{Realtime: *realtime})
	matrix := led.NewMatrix(link)
	matrix.SetRefreshRate(cfg.RefreshHz)
	matrix.SetBrightness(cfg.Brightness)
	matrix.SetHold(time.Duration(cfg.HoldUs) * time.Microsecond)
	if err := matrix.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("initialize")
	}

	sched := sequence.NewScheduler(anim.WithSeed(*seed))
	names := sched.AddBuiltins()
	cond := app.NewConductor(sched, matrix, app.Options{
		MaxDelta: cfg.MaxDeltaS,
		Mirror:   &summary{every: *fps},
	})

	if *playlist {
		prog := sequence.DefaultProgram(names, *clipS)
		if len(cfg.Playlist.Clips) > 0 {
			prog = sequence.Program{Loop: cfg.Playlist.Loop, Clips: cfg.Playlist.Clips}
		}
		if err := cond.LoadPlaylist(prog); err != nil {
			log.Fatal().Err(err).Msg("playlist")
		}
		_ = cond.StartPlaylist()
	} else if err := cond.Play(*animation); err != nil {
		log.Fatal().Err(err).Strs("available", names).Msg("play")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	matrix.Start(ctx)
	_ = cond.Run(ctx, *fps)
	matrix.Stop()
	matrix.Shutdown()

	st := cond.Status()
	log.Info().
		Uint64("produced", st.Produced).
		Uint64("scans", st.Scan.Frames).
		Uint64("overruns", st.Scan.Overruns).
		Dur("last_scan", st.Scan.LastScan).
		Int64("spi_bytes", sim.Bytes()).
		Msg("done")
}
