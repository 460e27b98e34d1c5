package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/callspec/compiler"
)

const watchDebounce = 150 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch PATH...",
		Short: "Re-check inputs whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			metrics := compiler.NewMetrics(reg)
			if metricsAddr != "" {
				srv, err := serveMetrics(metricsAddr, reg, a.log)
				if err != nil {
					return err
				}
				a.log.Info("serving metrics", zap.String("addr", srv.Addr))
				defer srv.Close()
			}
			return a.watch(ctx, args, metrics)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv, nil
}

// watch runs check once, then again after every burst of changes to the
// inputs, until ctx is done.
func (a *app) watch(ctx context.Context, args []string, metrics *compiler.Metrics) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs, err := watchDirs(args)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	a.recheck(ctx, args, metrics)

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !supported(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			a.log.Debug("input changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			trigger = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", zap.Error(err))
		case <-trigger:
			trigger = nil
			a.recheck(ctx, args, metrics)
		}
	}
}

func (a *app) recheck(ctx context.Context, args []string, metrics *compiler.Metrics) {
	r, err := a.check(ctx, args, metrics)
	if err != nil {
		fmt.Fprintf(a.stdout, "%s\n", a.styles.render(errorStyle, err.Error()))
		return
	}
	a.report(a.stdout, r)
}

// watchDirs returns the directories to watch: every directory argument and
// its subdirectories, plus the parent of every file argument. Editors often
// replace files on save, so files are watched through their directory.
func watchDirs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Dir(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if p != arg && (d.Name()[0] == '.' || d.Name() == "target") {
				return filepath.SkipDir
			}
			add(p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
