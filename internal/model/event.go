package model

import "time"

// InteractionEvent is one decoded unit of feed data representing a single
// user/device interaction. Values are immutable once constructed.
type InteractionEvent struct {
	Identifier      string `json:"identifier"`
	ProductName     string `json:"productName"`
	InteractionType string `json:"interactionType"`
	Timestamp       string `json:"timestamp"`
}

// InteractionType tags produced by the device simulator.
// The feed itself accepts any tag.
const (
	InteractionPickup      = "PRODUCT_PICKUP"
	InteractionPutdown     = "PRODUCT_PUTDOWN"
	InteractionScreenTouch = "SCREEN_TOUCH"
	InteractionView        = "VIEW"
)

// InteractionTypes lists the simulator vocabulary in a stable order.
var InteractionTypes = []string{
	InteractionPickup,
	InteractionPutdown,
	InteractionScreenTouch,
	InteractionView,
}

// FormatTimestamp renders t the way events produced by this module carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
