// Package feed implements the feed connection manager.
//
// The Manager owns one streaming connection to a remote endpoint, tracks its
// status, decodes inbound frames into model.InteractionEvent values and
// appends them, in arrival order, to an append-only feed. Display layers read
// snapshots through Status and Events, or subscribe for incremental updates.
//
// Status transitions:
//
//	disconnected -> (Initialize) -> connecting -> (OnConnected) -> connected
//	connected|connecting -> (OnDisconnected) -> disconnected
//
// Reconnection is off unless Config.Reconnect.Enabled is set.
package feed
