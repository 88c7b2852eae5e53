/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed assets/*
var assets embed.FS

const errorPage = `<!DOCTYPE html><html lang="en"><head><title>Server Error</title>` +
	`<style>html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>` +
	`</head><body><a href="/">An error has occurred. Please try again.</a></body></html>`

func (s *server) serveHomePage() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/home.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(s.cfg, w)

		if _, err := w.Write(data); err != nil {
			s.log.Warnw("home write failed", "err", err)
		}
	}
}

// serveGamePage serves one embedded game client. The room code lives in
// the URL; the client reads it back out of location.pathname.
func (s *server) serveGamePage(fname string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile(fname)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(s.cfg, w)

		if _, err := w.Write(data); err != nil {
			s.log.Warnw("page write failed", "err", err)
		}
	}
}

func (s *server) serveAssets() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, s.cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(s.cfg, w)

		ext := strings.ToLower(filepath.Ext(fname))
		switch ext {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		case ".svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		}

		if _, err := w.Write(data); err != nil {
			s.log.Warnw("asset write failed", "path", fname, "err", err)
		}
	}
}
