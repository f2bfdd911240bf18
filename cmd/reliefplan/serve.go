package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vanderheijden86/reliefplan/pkg/api"
	"github.com/vanderheijden86/reliefplan/pkg/config"
	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/ui"
	"github.com/vanderheijden86/reliefplan/pkg/watcher"
)

// shutdownGrace bounds how long in-flight requests may finish.
const shutdownGrace = 10 * time.Second

func runServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "serve", "")
	addr := fs.String("addr", a.cfg.Server.Addr, "Listen address")
	watch := fs.Bool("watch", true, "Reload the config file when it changes")
	quiet := fs.Bool("quiet", false, "Disable the access log")
	if err := parseArgs(fs, args, false); err != nil {
		return err
	}

	b := newBackend(a.cfg, a.logger)
	defer b.Close()

	srv, err := newServer(b.svc, a, !*quiet)
	if err != nil {
		return err
	}

	if *watch && a.cfgPath != "" {
		r, err := watcher.NewConfigReloader(a.cfgPath, a.cfg, srv.apply, a.logger)
		if err != nil {
			return err
		}
		if err := r.Start(); err != nil {
			a.logger.Printf("config reload disabled: %v", err)
		} else {
			defer r.Stop()
		}
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, srv.handler, a)
}

// server ties the API and the pages to one mux and swaps their defaults
// when the config changes.
type server struct {
	handler http.Handler
	api     *api.Handler
	pages   *ui.Server
}

func newServer(svc *api.Service, a *app, accessLog bool) (*server, error) {
	opts := []api.Option{api.WithRenderOptions(renderOptions(a.cfg))}
	if accessLog {
		opts = append(opts, api.WithLogger(a.logger))
	}
	h := api.NewHandler(svc, opts...)
	pages, err := ui.New(svc, uiSettings(a.cfg), a.logger)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", h)
	mux.Handle("/healthz", h)
	mux.Handle("/", pages)
	return &server{handler: mux, api: h, pages: pages}, nil
}

// apply takes the parts of cfg that can change without a restart. The
// listener, geo endpoints and cache keep their startup values.
func (s *server) apply(cfg config.Config) {
	debug.Log("serve: applying config (ui=%+v render=%+v)", cfg.UI, cfg.Render)
	s.pages.SetSettings(uiSettings(cfg))
	s.api.SetRenderOptions(renderOptions(cfg))
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, a *app) error {
	httpSrv := &http.Server{
		Handler:           h,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()
	fmt.Fprintln(a.stderr, a.styles.ok.Render("Serving on http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
