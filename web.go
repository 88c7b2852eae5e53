/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dyadgames/duetbox/realtime"
	"github.com/dyadgames/duetbox/store"
)

const timeout time.Duration = 10 * time.Second

// server bundles everything the route handlers share.
type server struct {
	cfg     *Config
	log     *zap.SugaredLogger
	bus     *realtime.Bus
	metrics *metrics
	store   store.Store
}

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func (s *server) serveVersion() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(s.cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("duetbox v" + releaseVersion + "\n"))
		if err != nil {
			s.log.Warnw("version write failed", "err", err)
			return
		}

		s.log.Debugw("served version page",
			"size", humanReadableSize(int64(written)),
			"client", realIP(r),
			"elapsed", time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func (s *server) serveHealthCheck() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(s.cfg, w)

		if _, err := w.Write([]byte("Ok\n")); err != nil {
			s.log.Warnw("healthz write failed", "err", err)
		}
	}
}

func (s *server) serveRobots() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(s.cfg, w)

		if _, err := w.Write([]byte(data)); err != nil {
			s.log.Warnw("robots write failed", "err", err)
		}
	}
}

// recordMatch persists one finished session and bumps the completion
// counter. Persistence failures never reach the players.
func (s *server) recordMatch(game, roomCode, playerID, role, outcome string, secondsLeft int) {
	s.metrics.GameCompleted(game, outcome)

	if err := s.store.RecordMatch(store.MatchRecord{
		RoomCode:    roomCode,
		GameType:    game,
		PlayerID:    playerID,
		Role:        role,
		Outcome:     outcome,
		SecondsLeft: secondsLeft,
	}); err != nil {
		s.log.Warnw("match record failed", "game", game, "room", roomCode, "err", err)
	}
}

func ServePage(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg)
	defer log.Sync()

	log.Infow("starting", "version", releaseVersion)

	m := newMetrics()

	s := &server{
		cfg:     cfg,
		log:     log,
		bus:     realtime.NewBus(2, cfg.roomIdleTimeout, m, log),
		metrics: m,
		store:   store.Discard{},
	}
	defer s.bus.Close()

	if cfg.databaseURL != "" {
		pg, err := store.OpenPostgres(cfg.databaseURL, log)
		if err != nil {
			return err
		}
		defer pg.Close()
		s.store = pg
		log.Infow("match persistence enabled")
	}

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		log.Errorw("handler panic", "path", r.URL.Path, "panic", i)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, errorPage)
	}

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	mux.GET(cfg.prefix+"/", s.serveHomePage())
	mux.GET(cfg.prefix+"/assets/*asset", s.serveAssets())
	mux.GET(cfg.prefix+"/healthz", s.serveHealthCheck())
	mux.GET(cfg.prefix+"/robots.txt", s.serveRobots())
	mux.GET(cfg.prefix+"/version", s.serveVersion())
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	s.registerKeyLockGame("/keylock", mux)
	s.registerSharedControlGame("/shared", mux)

	go func() {
		var err error
		log.Infow("listening", "url", cfg.scheme()+"://"+srv.Addr+cfg.prefix+"/")
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
