// Package fetch downloads a single remote media file into a fixed local path.
//
// A Controller runs at most one transfer at a time. Received bytes are kept
// in memory and written to the Store in one piece once the transfer ends
// without error; the state is reported through Handlers as it moves between
// Download, Downloading, Downloaded and Failed.
package fetch
