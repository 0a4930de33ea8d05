// Command robot-server serves the robot viewer and its assets from a static directory.
// Unknown page routes fall back to index.html and every response disables caching.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-robot/config"

	"github.com/edaniels/golog"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "listen address (default "+config.DefaultListenAddr+")")
	staticDir := flag.String("static", "", "directory to serve (default "+config.DefaultStaticDir+")")
	flag.Parse()

	logger := golog.NewLogger("robot-server")

	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatalw("failed to load config", "error", err)
		}
	}
	cfg.Resolve(config.Flags{ListenAddr: *addr, StaticDir: *staticDir})

	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		logger.Fatalw("static directory is not readable", "dir", cfg.StaticDir, "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newSPAHandler(cfg.StaticDir, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("shutdown failed", "error", err)
		}
	}()

	logger.Infow("starting SPA server", "addr", cfg.ListenAddr, "dir", cfg.StaticDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("server stopped", "error", err)
	}
}

// newSPAHandler serves files from staticDir. Requests for missing pages (no extension or .html)
// are answered with index.html so client-side routes resolve; missing assets stay 404.
func newSPAHandler(staticDir string, logger golog.Logger) http.Handler {
	fs := http.FileServer(http.Dir(staticDir))
	index := filepath.Join(staticDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		p := path.Clean("/" + r.URL.Path)
		if p == "/" {
			http.ServeFile(w, r, index)
			return
		}

		full := filepath.Join(staticDir, filepath.FromSlash(p))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		if ext := path.Ext(p); ext != "" && ext != ".html" {
			logger.Debugw("asset not found", "path", p)
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
