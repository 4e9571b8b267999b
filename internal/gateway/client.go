package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Client talks to the gateway's REST API. It implements RoomManager and
// Notifier. Every call carries the configured timeout; HTTP 403 maps to
// ErrForbidden, 404 to ErrRoomNotFound.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
		http:    &http.Client{},
	}
}

type roomPayload struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContainerID   *int64 `json:"container_id,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

type presentPayload struct {
	ParticipantID int64 `json:"participant_id"`
	SelfMute      bool  `json:"self_mute"`
	SelfDeaf      bool  `json:"self_deaf"`
	Bot           bool  `json:"bot"`
}

func (c *Client) ListCommunities(ctx context.Context) ([]int64, error) {
	var out struct {
		Items []int64 `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/communities", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) ListRooms(ctx context.Context, communityID int64) ([]domain.RoomRef, error) {
	var out struct {
		Items []roomPayload `json:"items"`
	}
	path := "/communities/" + strconv.FormatInt(communityID, 10) + "/voice-rooms"
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	rooms := make([]domain.RoomRef, 0, len(out.Items))
	for _, it := range out.Items {
		rooms = append(rooms, domain.RoomRef{
			ID:            it.ID,
			Name:          it.Name,
			ContainerID:   it.ContainerID,
			ContainerName: it.ContainerName,
		})
	}
	return rooms, nil
}

func (c *Client) ListPresent(ctx context.Context, roomID int64) ([]domain.PresentMember, error) {
	var out struct {
		Items []presentPayload `json:"items"`
	}
	path := "/voice-rooms/" + strconv.FormatInt(roomID, 10) + "/present"
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	members := make([]domain.PresentMember, 0, len(out.Items))
	for _, it := range out.Items {
		members = append(members, domain.PresentMember{
			ParticipantID: it.ParticipantID,
			SelfMute:      it.SelfMute,
			SelfDeaf:      it.SelfDeaf,
			Bot:           it.Bot,
		})
	}
	return members, nil
}

func (c *Client) CreateRoom(ctx context.Context, communityID, containerID int64, name string) (domain.RoomRef, error) {
	req := map[string]any{"container_id": containerID, "name": name}
	var out roomPayload
	path := "/communities/" + strconv.FormatInt(communityID, 10) + "/voice-rooms"
	if err := c.call(ctx, http.MethodPost, path, req, &out); err != nil {
		return domain.RoomRef{}, err
	}
	return domain.RoomRef{
		ID:            out.ID,
		Name:          out.Name,
		ContainerID:   out.ContainerID,
		ContainerName: out.ContainerName,
	}, nil
}

func (c *Client) DeleteRoom(ctx context.Context, roomID int64) error {
	path := "/voice-rooms/" + strconv.FormatInt(roomID, 10)
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) MoveParticipant(ctx context.Context, communityID, participantID, roomID int64) error {
	req := map[string]any{"room_id": roomID}
	path := "/communities/" + strconv.FormatInt(communityID, 10) +
		"/participants/" + strconv.FormatInt(participantID, 10) + "/move"
	return c.call(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) DisconnectVoice(ctx context.Context, communityID int64, roomIDs []int64) error {
	req := map[string]any{"room_ids": roomIDs}
	path := "/communities/" + strconv.FormatInt(communityID, 10) + "/voice/disconnect"
	return c.call(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) SendMessage(ctx context.Context, roomID int64, text string) error {
	req := map[string]any{"text": text}
	path := "/rooms/" + strconv.FormatInt(roomID, 10) + "/messages"
	return c.call(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrRoomNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("gateway: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway: decode response: %w", err)
		}
	}
	return nil
}
