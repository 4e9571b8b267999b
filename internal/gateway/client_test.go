package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gw-token" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/voice-rooms/1":
			w.WriteHeader(http.StatusForbidden)
		case "/voice-rooms/2":
			w.WriteHeader(http.StatusNotFound)
		case "/voice-rooms/3":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gw-token", time.Second)
	ctx := context.Background()

	if err := c.DeleteRoom(ctx, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("403 mapped to %v, want ErrForbidden", err)
	}
	if err := c.DeleteRoom(ctx, 2); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("404 mapped to %v, want ErrRoomNotFound", err)
	}
	err := c.DeleteRoom(ctx, 3)
	if err == nil || errors.Is(err, ErrForbidden) || errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("500 mapped to %v, want generic error", err)
	}
	if err := c.DeleteRoom(ctx, 4); err != nil {
		t.Fatalf("200 returned %v", err)
	}
}

func TestClientListRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/communities/1/voice-rooms" {
			t.Errorf("path = %q", r.URL.Path)
		}
		container := int64(10)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": 100, "name": "General", "container_id": container, "container_name": "Voice"},
				{"id": 101, "name": "Stage"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	rooms, err := c.ListRooms(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms", len(rooms))
	}
	if rooms[0].ContainerID == nil || *rooms[0].ContainerID != 10 {
		t.Fatalf("container id = %v", rooms[0].ContainerID)
	}
	if rooms[1].ContainerID != nil {
		t.Fatalf("room without container decoded %v", rooms[1].ContainerID)
	}
}
