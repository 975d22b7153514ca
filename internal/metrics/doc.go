// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Feed connection status, reconnect attempts and connection failures
//   - Inbound message rate and decode failures
//   - Feed server client count, broadcast volume and write failures
//   - Source emit rate and dropped payloads
package metrics
