package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vl4deee11/ecoli/render"
	"github.com/vl4deee11/ecoli/sim"
	"github.com/vl4deee11/ecoli/stream"
)

type usageError string

func (e usageError) Error() string {
	return string(e) + "\nusage: ecoli serve|record [flags]"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, sim.ErrInvariant) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	switch args[0] {
	case "serve":
		return runServe(ctx, args[1:])
	case "record":
		return runRecord(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	simf := registerSimFlags(fs)
	interval := fs.Duration("interval", 200*time.Millisecond, "time between ticks")
	port := fs.Int("port", 0, "base listen port (default $PORT or 8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := simf.resolve(fs)
	if err != nil {
		return err
	}
	s, err := sim.NewSim(cfg)
	if err != nil {
		return err
	}

	srv := stream.NewServer(s, *interval)
	go func() {
		for snap := range srv.StateChan {
			if snap.Tick%50 == 0 {
				log.Printf("tick %d: mean concentration %.3f, %s tumbles", snap.Tick, snap.MeanConcentration, humanize.Comma(int64(snap.Tumbles)))
			}
		}
	}()

	ln, err := listen(*port)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{Handler: srv.Handler()}
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http serve error: %v", err)
		}
	}()

	runErr := srv.Run(ctx)
	close(srv.StateChan)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	return runErr
}

func listen(port int) (net.Listener, error) {
	basePort := 8080
	if port > 0 {
		basePort = port
	} else if p := os.Getenv("PORT"); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &basePort); err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
	}

	for i := 0; i < 10; i++ {
		addr := fmt.Sprintf(":%d", basePort+i)
		log.Printf("Trying to start server on %s", addr)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			log.Printf("failed to listen on %s: %v", addr, err)
			continue
		}
		log.Printf("Server started at ws://localhost:%d/ws", basePort+i)
		return ln, nil
	}
	return nil, errors.New("unable to start server on any port")
}

func runRecord(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	simf := registerSimFlags(fs)
	out := fs.String("out", "ecoli.avi", "movie path (.avi for MJPEG, .gif for GIF)")
	fps := fs.Int("fps", 25, "frames per second")
	every := fs.Int("every", 1, "record every n-th tick")
	chartPath := fs.String("chart", "", "optional PNG path for the concentration chart")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := simf.resolve(fs)
	if err != nil {
		return err
	}
	s, err := sim.NewSim(cfg)
	if err != nil {
		return err
	}
	log.Printf("recording %s agents on %d×%d for %d ticks, seed %d",
		humanize.Comma(int64(cfg.PopulationSize)), cfg.WorldSpan, cfg.WorldSpan, cfg.TimeSteps, s.Seed())

	rec, closeOut, err := newRecorder(*out, s.Field(), *fps)
	if err != nil {
		return err
	}
	var chart render.Chart
	movie := render.Every(*every, rec.Observe)
	observe := func(snap sim.Snapshot) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := chart.Observe(snap); err != nil {
			return err
		}
		return movie(snap)
	}

	runErr := s.Run(cfg.TimeSteps, observe)
	if err := rec.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("finalize %s: %w", *out, err)
	}
	if err := closeOut(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	if info, err := os.Stat(*out); err == nil {
		log.Printf("wrote %s (%s)", *out, humanize.Bytes(uint64(info.Size())))
	}

	if *chartPath != "" {
		f, err := os.Create(*chartPath)
		if err != nil {
			return err
		}
		if err := chart.Render(f); err != nil {
			f.Close()
			return fmt.Errorf("render chart: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote %s", *chartPath)
	}
	return nil
}

func newRecorder(path string, field *sim.Field, fps int) (render.Recorder, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, err
		}
		rec, err := render.NewGIF(f, field, fps)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return rec, f.Close, nil
	case ".avi", "":
		rec, err := render.NewMJPEG(path, field, fps)
		if err != nil {
			return nil, nil, err
		}
		return rec, func() error { return nil }, nil
	default:
		return nil, nil, usageError(fmt.Sprintf("unsupported movie format %q", filepath.Ext(path)))
	}
}
