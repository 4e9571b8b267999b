package domain

// RoomGroup is an ephemeral set of rooms created together under one container
// and torn down together once every member room is empty. Key is the id of the
// first room created.
type RoomGroup struct {
	Key           int64
	CommunityID   int64
	ContainerID   int64
	MemberRoomIDs []int64
}
