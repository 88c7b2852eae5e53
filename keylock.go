/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/dyadgames/duetbox/games/keylock"
	"github.com/dyadgames/duetbox/session"
)

// registerKeyLockGame sets up routes so that:
//   - $path            → redirects to a fresh random room code
//   - $path/:room      → HTML client
//   - $path/:room/ws   → WebSocket for that room
//   - $path/:room/qr   → PNG QR code for that room URL
func (s *server) registerKeyLockGame(path string, mux *httprouter.Router) {
	mux.GET(s.cfg.prefix+path, s.redirectNewRoom(path, keylock.ChannelName))
	mux.GET(s.cfg.prefix+path+"/:room", s.serveGamePage("assets/keylock.html"))
	mux.GET(s.cfg.prefix+path+"/:room/ws", s.serveKeyLockSocket())
	mux.GET(s.cfg.prefix+path+"/:room/qr", s.serveQR())
}

func (s *server) serveKeyLockSocket() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := normalizeRoomCode(ps.ByName("room"))
		if !ok {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warnw("upgrade failed", "client", realIP(r), "err", err)
			return
		}

		var peer *keylock.Peer
		peer, err = keylock.Join(s.bus, room, s.log, func(outcome session.Status, role string, secondsLeft int) {
			s.recordMatch("keylock", room, peer.PlayerID(), role, outcome.String(), secondsLeft)
		})
		if err != nil {
			s.log.Infow("join rejected", "game", "keylock", "room", room, "err", err)
			closeWithReason(conn, err.Error())
			return
		}

		s.log.Infow("player joined", "game", "keylock", "room", room, "player", peer.PlayerID(), "client", realIP(r))

		go peer.Run()
		pumpPeer(conn, peer.Commands(), peer.Views(), peer.Close)
	}
}
