/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// closeWithReason sends a close frame with a human-readable reason before
// dropping the connection, so the browser can show why it was rejected.
func closeWithReason(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}

// pumpPeer bridges one browser websocket and one peer: views flow out,
// commands flow in. It blocks until the browser disconnects or the peer's
// view stream closes, and tears both ends down on the way out.
func pumpPeer[C, V any](conn *websocket.Conn, commands chan<- C, views <-chan V, closePeer func()) {
	go func() {
		defer conn.Close()
		for v := range views {
			if err := conn.WriteJSON(v); err != nil {
				return
			}
		}
	}()

	defer func() {
		closePeer()
		_ = conn.Close()
	}()

	for {
		var cmd C
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		select {
		case commands <- cmd:
		default:
			// A flooding client loses inputs, never stalls the peer.
		}
	}
}
