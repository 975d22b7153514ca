// Package server is the broadcasting end of the feed. It accepts WebSocket
// clients and writes every event produced by a source to all of them as a
// JSON text frame.
//
// Routes:
//
//	GET <ws_path>       WebSocket upgrade; live events only, no replay
//	GET /health         {"status":"ok","clients":N,"published":N}
//	GET <metrics_path>  Prometheus metrics
package server
