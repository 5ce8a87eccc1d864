// Package common provides the names and payload types shared by the CLI and
// the RPC control server.
package common

// Environment variable names for configuration.
const (
	// URLEnv overrides the remote video URL.
	URLEnv = "WARPREEL_URL"

	// DirEnv overrides the directory holding the local video file.
	DirEnv = "WARPREEL_DIR"

	// RPCSecretEnv is the bearer token required by the RPC endpoints.
	RPCSecretEnv = "WARPREEL_RPC_SECRET"

	// ListenEnv overrides the RPC listen address.
	ListenEnv = "WARPREEL_LISTEN"
)
