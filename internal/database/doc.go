// Package database provides the PostgreSQL connection pool and the
// LISTEN/NOTIFY listener used by the postgres event source.
//
// Interaction events are published by the store database with
// pg_notify(channel, payload); the feed server relays each payload.
package database
