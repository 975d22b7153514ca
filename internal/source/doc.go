// Package source produces the interaction events that the feed server
// broadcasts.
//
// Two sources exist: Simulator, which imitates in-store devices running
// timed sessions, and PGNotify, which relays payloads published on a
// PostgreSQL notification channel.
package source
