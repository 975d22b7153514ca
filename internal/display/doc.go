// Package display projects feed manager state to a terminal: a status
// indicator followed by one line per event in arrival order.
package display
