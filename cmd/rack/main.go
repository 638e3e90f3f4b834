// Command rack plays samples and live input through an interactive effect
// rack.
//
// Usage:
//
//	rack [flags] [sample ...]
//
// Up to nine samples (paths or http(s) URLs) become the pads 1..9.
//
// Examples:
//
//	rack kick.wav vocal.mp3
//	rack -preset live.json -ir hall=hall.wav vocal.wav
//	rack -input - < mic.f32
//	rack -render out.wav -duration 5s -preset live.json vocal.wav
//	rack -render out.wav -bits 24 -dither none -shape none vocal.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/dither"
	"github.com/cwbudde/effectrack/dsp/effectchain"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/assets"
	"github.com/cwbudde/effectrack/internal/device"
)

const maxPads = 9

type config struct {
	rate     float64
	quantum  int
	latency  time.Duration
	slots    string
	preset   string
	irs      irFlags
	irlib    string
	input    string
	render   string
	duration time.Duration
	bits     int
	dither   dither.Type
	shape    dither.Preset
	logFile  string
	verbose  bool
	samples  []string
}

// irFlags collects repeated -ir name=location flags.
type irFlags map[string]string

func (f irFlags) String() string {
	parts := make([]string, 0, len(f))
	for name, loc := range f {
		parts = append(parts, name+"="+loc)
	}

	return strings.Join(parts, ",")
}

func (f irFlags) Set(v string) error {
	name, loc, ok := strings.Cut(v, "=")
	if !ok || name == "" || loc == "" {
		return fmt.Errorf("want name=location, got %q", v)
	}

	f[name] = loc

	return nil
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	cfg := config{irs: irFlags{}, dither: dither.Triangular, shape: dither.Preset9FC}
	defaults := core.DefaultProcessorConfig()

	fs := flag.NewFlagSet("rack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&cfg.rate, "rate", defaults.SampleRate, "sample rate in Hz")
	fs.IntVar(&cfg.quantum, "quantum", defaults.BlockSize, "render quantum in samples")
	fs.DurationVar(&cfg.latency, "latency", device.DefaultLatency, "output buffer duration")
	fs.StringVar(&cfg.slots, "slots", "", "comma separated slot order (default "+strings.Join(effectchain.DefaultSlots, ",")+")")
	fs.StringVar(&cfg.preset, "preset", "", "JSON preset file")
	fs.Var(cfg.irs, "ir", "impulse response `name=location` for the reverb (repeatable)")
	fs.StringVar(&cfg.irlib, "irlib", "", "IRLB impulse response library")
	fs.StringVar(&cfg.input, "input", "", "raw float32 LE mono live input file, - for stdin")
	fs.StringVar(&cfg.render, "render", "", "render offline to this WAV file instead of playing")
	fs.DurationVar(&cfg.duration, "duration", 5*time.Second, "length of an offline render")
	fs.IntVar(&cfg.bits, "bits", 16, "bit depth of an offline render (16 or 24)")
	fs.Func("dither", "dither noise for an offline render: none, rect, tpdf or gauss (default tpdf)", func(v string) (err error) {
		cfg.dither, err = dither.ParseType(v)
		return err
	})
	fs.Func("shape", "noise shaping for an offline render: none, efb, 2sc, 3fc, 9fc or sbm (default 9fc)", func(v string) (err error) {
		cfg.shape, err = dither.ParsePreset(v)
		return err
	})
	fs.StringVar(&cfg.logFile, "log", "", "log file (default stderr when rendering, discarded otherwise)")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rack [flags] [sample ...]\n\n")
		fmt.Fprintf(stderr, "Plays up to %d samples (keys 1..%d) and live input through an effect rack.\n\n", maxPads, maxPads)
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg.samples = fs.Args()

	switch {
	case len(cfg.samples) > maxPads:
		return config{}, fmt.Errorf("at most %d samples, got %d", maxPads, len(cfg.samples))
	case cfg.rate <= 0:
		return config{}, fmt.Errorf("-rate must be > 0: %v", cfg.rate)
	case cfg.quantum <= 0:
		return config{}, fmt.Errorf("-quantum must be > 0: %d", cfg.quantum)
	case cfg.render != "" && cfg.duration <= 0:
		return config{}, fmt.Errorf("-duration must be > 0: %v", cfg.duration)
	case cfg.bits != 16 && cfg.bits != 24:
		return config{}, fmt.Errorf("-bits must be 16 or 24: %d", cfg.bits)
	}

	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "rack: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "rack: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	bg := context.Background()
	loader := &assets.Loader{Logger: logger}

	irs, err := loadImpulses(bg, loader, cfg)
	if err != nil {
		return err
	}

	gctx := graph.NewContext(core.WithSampleRate(cfg.rate), core.WithBlockSize(cfg.quantum))

	opts := []effectchain.RackOption{effectchain.WithIRProvider(irs), effectchain.WithLogger(logger)}
	if cfg.slots != "" {
		opts = append(opts, effectchain.WithSlots(strings.Split(cfg.slots, ",")...))
	}

	rack, err := effectchain.NewRack(gctx, opts...)
	if err != nil {
		return err
	}
	defer rack.Close()

	if cfg.preset != "" {
		data, err := os.ReadFile(cfg.preset)
		if err != nil {
			return err
		}

		if err := rack.LoadPreset(data); err != nil {
			return fmt.Errorf("preset %s: %w", cfg.preset, err)
		}
	}

	pads, err := loadPads(bg, loader, cfg.samples)
	if err != nil {
		logger.WithError(err).Warn("some samples failed to load")
	}

	if cfg.input != "" {
		in, closeIn, err := openInput(cfg.input)
		if err != nil {
			return err
		}
		defer closeIn()

		var stream *graph.StreamSource
		gctx.Update(func() { stream = graph.NewStreamSource(gctx, 0) })
		rack.ConnectSource(audioio.Node(stream))

		go func() {
			quantum := gctx.BlockSize()
			wait := time.Duration(float64(quantum) / gctx.SampleRate() * float64(time.Second))

			if err := pump(in, stream, quantum, int(gctx.SampleRate()/4), wait); err != nil {
				logger.WithError(err).Error("live input stopped")
			}
		}()
	}

	if cfg.render != "" {
		return renderOffline(gctx, rack, pads, cfg, logger)
	}

	dev, err := device.Open(gctx, device.Options{SampleRate: int(cfg.rate), Latency: cfg.latency})
	if err != nil {
		return err
	}
	defer dev.Close()

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.input == "-" {
		progOpts = append(progOpts, tea.WithInputTTY())
	}

	if _, err := tea.NewProgram(newModel(gctx, rack, pads), progOpts...).Run(); err != nil {
		return err
	}

	return dev.Err()
}

func newLogger(cfg config) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	switch {
	case cfg.logFile != "":
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}

		logger.SetOutput(f)

		return logger, func() { _ = f.Close() }, nil
	case cfg.render != "":
		logger.SetOutput(os.Stderr)
	default:
		// The terminal belongs to the UI.
		logger.SetOutput(io.Discard)
	}

	return logger, func() {}, nil
}

// loadImpulses loads every -ir entry and the -irlib library. A failing IR
// is an error: the preset may depend on it.
func loadImpulses(ctx context.Context, l *assets.Loader, cfg config) (effectchain.ImpulseLibrary, error) {
	lib := effectchain.ImpulseLibrary{}

	if cfg.irlib != "" {
		irs, err := l.LoadLibrary(ctx, cfg.irlib)
		if err != nil {
			return nil, err
		}

		for name, buf := range assets.Library(irs) {
			lib[name] = buf
		}
	}

	bufs, err := l.LoadAll(ctx, cfg.irs)
	if err != nil {
		return nil, err
	}

	for name, buf := range bufs {
		lib[name] = buf
	}

	return lib, nil
}

func openInput(name string) (io.Reader, func(), error) {
	if name == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { _ = f.Close() }, nil
}
