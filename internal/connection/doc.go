// Package connection implements the streaming transport used by the feed.
//
// A Client wraps exactly one gorilla WebSocket connection:
//   - Dials with a handshake timeout
//   - Delivers inbound frames in arrival order, stamped with a local receive time
//   - Keeps the link alive with ping/pong and flags it stale when pongs stop
//   - Reports why the read loop ended once it has stopped
package connection
