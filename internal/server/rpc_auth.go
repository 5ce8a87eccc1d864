package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creachadair/jrpc2"
)

const codeUnauthorized = jrpc2.Code(-32600)

type authError struct {
	Version string `json:"jsonrpc"`
	Error   struct {
		Code    jrpc2.Code `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
	ID any `json:"id"`
}

// requireToken lets a request through only when it carries the secret.
// An empty secret rejects everything.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(r)
		if !ok || !validToken(secret, token) {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestToken reads "Authorization: Bearer <token>". Websocket upgrades
// may pass it as the token query parameter instead, since browsers cannot
// set headers on them.
func requestToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return "", false
		}
		return token, true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
	}
	return "", false
}

func validToken(secret, token string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func writeUnauthorized(w http.ResponseWriter) {
	var body authError
	body.Version = "2.0"
	body.Error.Code = codeUnauthorized
	body.Error.Message = "Unauthorized"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(&body)
}
