/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// newRoomCode generates a crypto-random room code and ensures it doesn't
// collide with a room that is currently live on the bus.
func (s *server) newRoomCode(channel func(string) string) string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		if !s.bus.RoomActive(channel(code)) {
			return code
		}
	}
}

// normalizeRoomCode uppercases a player-typed code and rejects anything
// that is not exactly six alphanumerics.
func normalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(roomCodeAlphabet, rune(code[i])) {
			return "", false
		}
	}
	return code, true
}

// redirectNewRoom handles GET /path by generating a fresh room code and
// redirecting to /path/:room.
func (s *server) redirectNewRoom(path string, channel func(string) string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := s.newRoomCode(channel)
		s.log.Infow("room created", "path", path, "room", code)
		http.Redirect(w, r, s.cfg.prefix+path+"/"+code+keepQuery(r), http.StatusTemporaryRedirect)
	}
}

// keepQuery preserves the raw query string across a redirect, so access
// tokens survive the hop to the fresh room.
func keepQuery(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}

// serveQR generates a PNG QR code for the current room URL.
func (s *server) serveQR() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("room")
		if room == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:room/qr; strip the suffix to get the room URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
