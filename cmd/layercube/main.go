package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/app"
	"github.com/coreman2200/layercube/internal/config"
	"github.com/coreman2200/layercube/internal/hwlink"
	"github.com/coreman2200/layercube/internal/led"
	"github.com/coreman2200/layercube/internal/sequence"
	"github.com/coreman2200/layercube/internal/strip"
	"github.com/coreman2200/layercube/internal/ws"
)

func main() {
	// ---- Flags (override config.yaml when given) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		link       = flag.String("link", "sim", "hardware link: sim | gpio")
		fps        = flag.Int("fps", 60, "producer frames per second")
		refresh    = flag.Int("refresh", 60, "scan passes per second")
		brightness = flag.Float64("brightness", 1.0, "global brightness 0..1")
		animation  = flag.String("animation", "Rain", "animation to play at start")
		playlist   = flag.Bool("playlist", false, "cycle animations instead of holding one")
		addr       = flag.String("addr", ":8080", "preview/control listen address, empty to disable")
		realtime   = flag.Bool("realtime", true, "sim link: take as long as real transfers")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Config, then explicit flags on top ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "link":
			cfg.Link = *link
		case "fps":
			cfg.FPS = *fps
		case "refresh":
			cfg.RefreshHz = *refresh
		case "brightness":
			cfg.Brightness = *brightness
		case "animation":
			cfg.Animation = *animation
		case "playlist":
			cfg.Playlist.Enabled = *playlist
		case "addr":
			cfg.Preview.Addr = *addr
		case "realtime":
			cfg.Realtime = *realtime
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Display driver ----
	matrix := openMatrix(cfg)
	matrix.SetRefreshRate(cfg.RefreshHz)
	matrix.SetBrightness(cfg.Brightness)
	matrix.SetHold(time.Duration(cfg.HoldUs) * time.Microsecond)

	// ---- Animations ----
	var opts []anim.Option
	if cfg.Seed != 0 {
		opts = append(opts, anim.WithSeed(cfg.Seed))
	}
	sched := sequence.NewScheduler(opts...)
	names := sched.AddBuiltins()

	// ---- Optional status strip ----
	var mirror *strip.Strip
	if cfg.Strip.Enabled {
		s, err := strip.New(strip.Opts{
			Dev:   cfg.Strip.Dev,
			Freq:  physic.Frequency(cfg.Strip.SpeedHz) * physic.Hertz,
			Layer: cfg.Strip.Layer,
			Row:   cfg.Strip.Row,
		})
		if err != nil {
			log.Warn().Err(err).Msg("strip disabled")
		} else {
			mirror = s
			defer s.Close()
		}
	}
	aopts := app.Options{MaxDelta: cfg.MaxDeltaS}
	if mirror != nil {
		aopts.Mirror = mirror
	}
	cond := app.NewConductor(sched, matrix, aopts)

	// ---- Program ----
	prog := sequence.Program{Loop: cfg.Playlist.Loop, Clips: cfg.Playlist.Clips}
	if len(prog.Clips) == 0 {
		prog = sequence.DefaultProgram(names, cfg.Playlist.ClipS)
		prog.Loop = cfg.Playlist.Loop
	}
	if err := cond.LoadPlaylist(prog); err != nil {
		log.Warn().Err(err).Msg("playlist rejected")
	}
	if cfg.Playlist.Enabled {
		if err := cond.StartPlaylist(); err != nil {
			log.Warn().Err(err).Msg("playlist not started")
		}
	}
	if !cfg.Playlist.Enabled || !sched.Playing() {
		if err := cond.Play(cfg.Animation); err != nil {
			log.Warn().Err(err).Str("fallback", names[0]).Msg("start animation unavailable")
			_ = cond.Play(names[0])
		}
	}

	// ---- Run ----
	matrix.Start(ctx)
	if cfg.Preview.Addr != "" {
		srv := ws.NewServer(cond, matrix, ws.Options{
			FPS:        cfg.Preview.FPS,
			ConfigPath: *configPath,
			Config:     cfg,
			Sample:     cond.Sample,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Preview.Addr); err != nil {
				log.Error().Err(err).Msg("preview server")
			}
		}()
	}
	log.Info().Str("link", cfg.Link).Str("animation", sched.CurrentName()).Msg("layercube running")
	_ = cond.Run(ctx, cfg.FPS)

	// ---- Shutdown ----
	log.Info().Msg("shutting down")
	matrix.Stop()
	matrix.Shutdown()
}

// openMatrix initializes the configured link, falling back to the simulator
// when hardware cannot be acquired.
func openMatrix(cfg *config.Config) *led.Matrix {
	hz := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
	if cfg.Link == "gpio" {
		m := led.NewMatrix(hwlink.NewController(hwlink.Periph(hwlink.PeriphOpts{SPIDev: cfg.SPI.Dev, SPIHz: hz})))
		err := m.Initialize()
		if err == nil {
			return m
		}
		log.Warn().Err(err).Str("dev", cfg.SPI.Dev).Msg("gpio link failed; falling back to sim")
		cfg.Link = "sim"
	}
	link, _ := hwlink.Simulated(hwlink.SimOpts{SPIHz: hz, Realtime: cfg.Realtime})
	m := led.NewMatrix(link)
	if err := m.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("sim link failed")
	}
	return m
}
