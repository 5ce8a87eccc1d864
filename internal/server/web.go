package server

import (
	"net/http"
)

// Handler routes the RPC endpoints. Both require the bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(s.secret, s.rpc))
	mux.Handle("/jsonrpc/ws", requireToken(s.secret, http.HandlerFunc(s.rpc.handleWS)))
	return mux
}
