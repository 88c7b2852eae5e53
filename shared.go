/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/subtle"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/dyadgames/duetbox/games/shared"
	"github.com/dyadgames/duetbox/session"
)

// registerSharedControlGame wires the same route shape as the maze game,
// plus the closed-beta token gate on the page and the socket.
func (s *server) registerSharedControlGame(path string, mux *httprouter.Router) {
	mux.GET(s.cfg.prefix+path, s.gateShared(s.redirectNewRoom(path, shared.ChannelName)))
	mux.GET(s.cfg.prefix+path+"/:room", s.gateShared(s.serveGamePage("assets/shared.html")))
	mux.GET(s.cfg.prefix+path+"/:room/ws", s.gateShared(s.serveSharedSocket()))
	mux.GET(s.cfg.prefix+path+"/:room/qr", s.serveQR())
}

// gateShared enforces --shared-access-tokens. With no tokens configured
// the game is open. The guard sits here at the route boundary; the
// simulation itself never sees tokens.
func (s *server) gateShared(next httprouter.Handle) httprouter.Handle {
	if len(s.cfg.sharedAccessTokens) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := r.URL.Query().Get("token")
		for _, want := range s.cfg.sharedAccessTokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1 {
				next(w, r, ps)
				return
			}
		}
		s.log.Infow("shared control access denied", "client", realIP(r))
		http.Redirect(w, r, s.cfg.prefix+"/", http.StatusTemporaryRedirect)
	}
}

func (s *server) serveSharedSocket() httprouter.Handle {
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

		var peer *shared.Peer
		peer, err = shared.Join(s.bus, room, s.log, func(outcome session.Status, role string, secondsLeft int) {
			s.recordMatch("shared", room, peer.PlayerID(), role, outcome.String(), secondsLeft)
		})
		if err != nil {
			s.log.Infow("join rejected", "game", "shared", "room", room, "err", err)
			closeWithReason(conn, err.Error())
			return
		}

		s.log.Infow("player joined", "game", "shared", "room", room, "player", peer.PlayerID(), "client", realIP(r))

		go peer.Run()
		pumpPeer(conn, peer.Commands(), peer.Views(), peer.Close)
	}
}
