package adapters

import "context"

// NoopTransport is the realtime transport used when realtime delivery is
// disabled. Broadcasts vanish and every room is empty, so the fan-out keeps
// a single code path instead of branching on transport availability.
type NoopTransport struct{}

// NewNoopTransport creates a NoopTransport.
func NewNoopTransport() *NoopTransport {
	return &NoopTransport{}
}

// BroadcastToRoom discards the payload.
func (NoopTransport) BroadcastToRoom(ctx context.Context, room, event string, payload any) error {
	return nil
}

// RoomMemberCount always reports an empty room.
func (NoopTransport) RoomMemberCount(ctx context.Context, room string) (int, error) {
	return 0, nil
}
