package app

import "github.com/codepals/collab/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	// DropEvent sheds the undeliverable frame for that connection only.
	DropEvent
	// Disconnect forcibly closes the overflowing connection.
	Disconnect
)

// Policy decides what happens to a connection whose outbound queue
// overflowed during fan-out. Other recipients are never affected.
type Policy interface {
	OnBackpressure(room *core.Room, conn core.ConnID) BackpressureAction
}

// DisconnectPolicy is the default: a consumer that cannot drain its
// queue will only fall further behind, and silently losing shared-edit
// events leaves its document permanently out of sync. Better to force a
// reconnect.
type DisconnectPolicy struct{}

func (DisconnectPolicy) OnBackpressure(*core.Room, core.ConnID) BackpressureAction {
	return Disconnect
}

// DropPolicy trades message loss for connection stability: the frame
// that found the queue full is discarded, the connection stays.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(*core.Room, core.ConnID) BackpressureAction {
	return DropEvent
}
