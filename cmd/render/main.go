// Command render decodes a code grid once and writes the stitched loop to a
// WAV file without opening an audio device.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/decode"
	"github.com/Raikerian/encodec-explorer/internal/infrastructure"
	"github.com/Raikerian/encodec-explorer/internal/resample"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

type options struct {
	configPath string
	grid       string
	rate       int
	loops      int
	out        string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML configuration file")
	flag.StringVar(&opts.grid, "codes", "0", "code grid, layers separated by ';' and fragments by ','")
	flag.IntVar(&opts.rate, "rate", 48000, "output sample rate in Hz")
	flag.IntVar(&opts.loops, "loops", 4, "number of times the loop is repeated")
	flag.StringVar(&opts.out, "out", "loop.wav", "output WAV file")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.loops < 1 {
		return errors.New("loops must be at least 1")
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := infrastructure.BuildLogger(cfg.LogLevel, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	g, err := codes.Parse(opts.grid)
	if err != nil {
		return err
	}

	load, err := decode.LoaderFor(cfg.Decoder.Kind, cfg.Decoder.Seed)
	if err != nil {
		return err
	}
	dec, err := decode.NewModel(load, logger.Named("decoder")).Get()
	if err != nil {
		return err
	}
	pcm, err := decode.NewStitcher(dec).Decode(ctx, g)
	if err != nil {
		return fmt.Errorf("decode %s: %w", g, err)
	}

	kind, err := resample.ParseKind(cfg.Audio.Resampler)
	if err != nil {
		return err
	}
	r, err := resample.New(kind, audio.NativeSampleRate, opts.rate, len(pcm))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	loop, err := r.Process(pcm)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := audio.WriteWAV(w, audio.Float32ToInt16(audio.Repeat(loop, opts.loops)), opts.rate, audio.NativeChannels); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("Rendered loop",
		zap.String("codes", g.String()),
		zap.String("file", opts.out),
		zap.Int("samples", len(loop)),
		zap.Int("loops", opts.loops),
		zap.String("resampler", string(kind)))
	return nil
}
