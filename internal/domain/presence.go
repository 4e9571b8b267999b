package domain

import "time"

// RoomRef identifies a voice room as seen on the gateway.
type RoomRef struct {
	ID            int64
	Name          string
	ContainerID   *int64
	ContainerName string
}

// VoiceState is one presence-change event from the gateway feed. Before and
// After are nil when the participant was, or ends up, in no room.
type VoiceState struct {
	CommunityID     int64
	ParticipantID   int64
	ParticipantName string
	Before          *RoomRef
	After           *RoomRef
	SelfMute        bool
	SelfDeaf        bool
	Bot             bool
	At              time.Time
}

// PresentMember is one occupant of a room as reported by the gateway.
type PresentMember struct {
	ParticipantID int64
	SelfMute      bool
	SelfDeaf      bool
	Bot           bool
}

func (m PresentMember) Muted() bool {
	return m.SelfMute || m.SelfDeaf
}
