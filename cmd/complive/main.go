// Command complive runs the compressor on the default audio input and
// output device.
//
// Usage:
//
//	complive [flags]
//
// Parameters are changed on stdin with lines such as "threshold -18 dB" or
// "ratio 4"; "show" prints the current settings. With -listen the same
// parameters are available over a websocket at /ws.
//
// Examples:
//
//	complive
//	complive -rate 44100 -block 128
//	complive -listen localhost:8080 -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/internal/live"
	"github.com/cwbudde/algo-comp/internal/remote"
	"github.com/cwbudde/algo-comp/plugin"
)

const shutdownTimeout = 2 * time.Second

func main() {
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	block := flag.Int("block", 256, "frames per audio callback")
	listen := flag.String("listen", "", "serve the websocket control surface on this address")
	verbose := flag.Bool("v", false, "log parameter changes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: complive [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the compressor between the default input and output device.\n")
		fmt.Fprintf(os.Stderr, "Set parameters on stdin: \"<name> <value>\", or \"show\".\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(log, *rate, *block, *listen); err != nil {
		log.WithError(err).Error("complive failed")
		os.Exit(1)
	}
}

func run(log *logrus.Logger, rate float64, block int, listen string) error {
	if block <= 0 {
		return fmt.Errorf("block size must be positive: %d", block)
	}

	proc, ctrl, err := plugin.New(
		plugin.WithProcessorOptions(
			core.WithSampleRate(rate),
			core.WithBlockSize(block),
			core.WithChannels(2),
		),
		plugin.WithLogger(log),
	)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer func() {
		if err := portaudio.Terminate(); err != nil {
			log.WithError(err).Warn("portaudio terminate")
		}
	}()

	bridge := live.NewBridge(proc, block)

	stream, err := portaudio.OpenDefaultStream(2, 2, rate, block, bridge.Process)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	info := stream.Info()
	if info.SampleRate != rate {
		if err := proc.SetSampleRate(info.SampleRate); err != nil {
			return err
		}
	}

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}

	log.WithFields(logrus.Fields{
		"sampleRate":    info.SampleRate,
		"block":         block,
		"inputLatency":  info.InputLatency,
		"outputLatency": info.OutputLatency,
	}).Info("audio running")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var httpSrv *http.Server
	var surface *remote.Server
	if listen != "" {
		surface = remote.NewServer(ctrl, proc, remote.WithLogger(log))

		mux := http.NewServeMux()
		mux.Handle("/ws", surface)
		httpSrv = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.WithField("addr", listen).Info("control surface listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("control surface stopped")
				stop()
			}
		}()
	}

	go func() {
		live.Show(ctrl, os.Stdout)
		if err := live.ReadCommands(os.Stdin, ctrl, os.Stdout); err != nil {
			log.WithError(err).Warn("reading stdin")
		}
	}()

	<-ctx.Done()
	log.Info("stopping")

	if httpSrv != nil {
		surface.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("control surface shutdown")
		}
	}

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}

	log.WithField("rejectedChanges", proc.Rejected()).Info("stopped")

	return nil
}
