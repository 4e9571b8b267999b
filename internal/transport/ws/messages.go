package ws

import (
	"encoding/json"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Event types arriving on the gateway feed.
const (
	TypeVoiceState = "voice_state" // presence change in a voice room
	TypeMessage    = "message"     // text message posted in the community
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type RoomPayload struct {
	RoomID        int64  `json:"room_id"`
	Name          string `json:"name"`
	ContainerID   *int64 `json:"container_id,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

type VoiceStatePayload struct {
	CommunityID     int64        `json:"community_id"`
	ParticipantID   int64        `json:"participant_id"`
	ParticipantName string       `json:"participant_name,omitempty"`
	Before          *RoomPayload `json:"before,omitempty"`
	After           *RoomPayload `json:"after,omitempty"`
	SelfMute        bool         `json:"self_mute"`
	SelfDeaf        bool         `json:"self_deaf"`
	Bot             bool         `json:"bot"`
	TSUnix          int64        `json:"ts_unix"`
}

type MessagePayload struct {
	CommunityID   int64 `json:"community_id"`
	ParticipantID int64 `json:"participant_id"`
	Bot           bool  `json:"bot"`
}

func (p VoiceStatePayload) toDomain() domain.VoiceState {
	ev := domain.VoiceState{
		CommunityID:     p.CommunityID,
		ParticipantID:   p.ParticipantID,
		ParticipantName: p.ParticipantName,
		SelfMute:        p.SelfMute,
		SelfDeaf:        p.SelfDeaf,
		Bot:             p.Bot,
		At:              time.Unix(p.TSUnix, 0),
	}
	if p.Before != nil {
		ev.Before = p.Before.toDomain()
	}
	if p.After != nil {
		ev.After = p.After.toDomain()
	}
	return ev
}

func (p RoomPayload) toDomain() *domain.RoomRef {
	return &domain.RoomRef{
		ID:            p.RoomID,
		Name:          p.Name,
		ContainerID:   p.ContainerID,
		ContainerName: p.ContainerName,
	}
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
