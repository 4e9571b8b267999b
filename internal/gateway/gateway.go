package gateway

import (
	"context"
	"errors"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

var (
	// ErrForbidden means the gateway refused the operation (missing
	// permission, participant no longer connected). Callers skip and continue.
	ErrForbidden    = errors.New("gateway: operation forbidden")
	ErrRoomNotFound = errors.New("gateway: room not found")
)

// RoomManager is the room-management capability of the community gateway. All
// calls are bounded by the client's per-call timeout; a timeout leaves state
// unchanged and is retried only on the next natural trigger.
type RoomManager interface {
	ListCommunities(ctx context.Context) ([]int64, error)
	ListRooms(ctx context.Context, communityID int64) ([]domain.RoomRef, error)
	ListPresent(ctx context.Context, roomID int64) ([]domain.PresentMember, error)
	CreateRoom(ctx context.Context, communityID, containerID int64, name string) (domain.RoomRef, error)
	DeleteRoom(ctx context.Context, roomID int64) error
	MoveParticipant(ctx context.Context, communityID, participantID, roomID int64) error
	// DisconnectVoice drops any shared voice client anchored to one of the
	// given rooms. Best-effort; used during group teardown.
	DisconnectVoice(ctx context.Context, communityID int64, roomIDs []int64) error
}

// Notifier delivers a text message to a room. No delivery guarantee.
type Notifier interface {
	SendMessage(ctx context.Context, roomID int64, text string) error
}
