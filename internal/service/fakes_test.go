package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
	"github.com/kangminLeo/Ironbot/internal/gateway"
)

type acctKey struct {
	community   int64
	participant int64
}

type fakeAccounts struct {
	mu   sync.Mutex
	data map[acctKey]*domain.Account
	err  error // when set, every call fails with it
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{data: make(map[acctKey]*domain.Account)}
}

func (f *fakeAccounts) get(communityID, participantID int64) *domain.Account {
	key := acctKey{communityID, participantID}
	acc, ok := f.data[key]
	if !ok {
		acc = &domain.Account{CommunityID: communityID, ParticipantID: participantID}
		f.data[key] = acc
	}
	return acc
}

func (f *fakeAccounts) Ensure(_ context.Context, communityID, participantID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.get(communityID, participantID)
	return nil
}

func (f *fakeAccounts) Mutate(_ context.Context, communityID, participantID int64, fn func(acc *domain.Account) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	acc := f.get(communityID, participantID)
	work := *acc
	if err := fn(&work); err != nil {
		return err
	}
	*acc = work
	return nil
}

func (f *fakeAccounts) Get(_ context.Context, communityID, participantID int64) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	acc := *f.get(communityID, participantID)
	return &acc, nil
}

func (f *fakeAccounts) Leaderboard(_ context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.LeaderboardEntry
	for key, acc := range f.data {
		if key.community != communityID || acc.Points == 0 {
			continue
		}
		out = append(out, domain.LeaderboardEntry{ParticipantID: acc.ParticipantID, Points: acc.Points})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAccounts) OpenSessions(_ context.Context, communityID int64) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Account
	for key, acc := range f.data {
		if key.community == communityID && acc.SessionStart != nil {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out, nil
}

type fakeActivity struct {
	mu   sync.Mutex
	last map[acctKey]time.Time
}

func newFakeActivity() *fakeActivity {
	return &fakeActivity{last: make(map[acctKey]time.Time)}
}

func (f *fakeActivity) MarkActive(_ context.Context, communityID, participantID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last[acctKey{communityID, participantID}] = at
	return nil
}

func (f *fakeActivity) LastActive(_ context.Context, communityID, participantID int64) (*domain.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.last[acctKey{communityID, participantID}]
	if !ok {
		return nil, nil
	}
	return &domain.ActivityRecord{
		CommunityID:   communityID,
		ParticipantID: participantID,
		LastActiveAt:  at,
	}, nil
}

type fakeSettings struct {
	mu   sync.Mutex
	data map[int64]domain.CommunitySettings
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{data: make(map[int64]domain.CommunitySettings)}
}

func (f *fakeSettings) Get(_ context.Context, communityID int64) (domain.CommunitySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.data[communityID]
	st.CommunityID = communityID
	return st, nil
}

func (f *fakeSettings) SetAFKRoom(_ context.Context, communityID int64, roomID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.data[communityID]
	st.AFKRoomID = roomID
	f.data[communityID] = st
	return nil
}

func (f *fakeSettings) SetLogRoom(_ context.Context, communityID int64, roomID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.data[communityID]
	st.LogRoomID = roomID
	f.data[communityID] = st
	return nil
}

type fakeRoom struct {
	ref     domain.RoomRef
	members []domain.PresentMember
}

// fakeRooms is an in-memory gateway.RoomManager that records every mutating
// call in order, so tests can assert call sequencing.
type fakeRooms struct {
	mu          sync.Mutex
	communities []int64
	rooms       map[int64]*fakeRoom
	nextID      int64
	calls       []string
}

func newFakeRooms(communities ...int64) *fakeRooms {
	return &fakeRooms{
		communities: communities,
		rooms:       make(map[int64]*fakeRoom),
		nextID:      1000,
	}
}

func (f *fakeRooms) addRoom(ref domain.RoomRef, members ...domain.PresentMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[ref.ID] = &fakeRoom{ref: ref, members: members}
}

// dropRoom removes a room without logging, simulating out-of-band deletion.
func (f *fakeRooms) dropRoom(roomID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, roomID)
}

func (f *fakeRooms) setMembers(roomID int64, members ...domain.PresentMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[roomID]; ok {
		r.members = members
	}
}

func (f *fakeRooms) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRooms) ListCommunities(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.communities...), nil
}

func (f *fakeRooms) ListRooms(_ context.Context, communityID int64) ([]domain.RoomRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoomRef
	for _, r := range f.rooms {
		out = append(out, r.ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRooms) ListPresent(_ context.Context, roomID int64) ([]domain.PresentMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, gateway.ErrRoomNotFound
	}
	return append([]domain.PresentMember(nil), r.members...), nil
}

func (f *fakeRooms) CreateRoom(_ context.Context, communityID, containerID int64, name string) (domain.RoomRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ref := domain.RoomRef{ID: f.nextID, Name: name, ContainerID: &containerID}
	f.rooms[ref.ID] = &fakeRoom{ref: ref}
	f.calls = append(f.calls, fmt.Sprintf("create %s", name))
	return ref, nil
}

func (f *fakeRooms) DeleteRoom(_ context.Context, roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return gateway.ErrRoomNotFound
	}
	delete(f.rooms, roomID)
	f.calls = append(f.calls, fmt.Sprintf("delete %d", roomID))
	return nil
}

func (f *fakeRooms) MoveParticipant(_ context.Context, communityID, participantID, roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("move %d->%d", participantID, roomID))
	return nil
}

func (f *fakeRooms) DisconnectVoice(_ context.Context, communityID int64, roomIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "disconnect")
	return nil
}

type sentMessage struct {
	roomID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(_ context.Context, roomID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{roomID: roomID, text: text})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func roomRef(id int64, name string, containerID int64, containerName string) *domain.RoomRef {
	return &domain.RoomRef{ID: id, Name: name, ContainerID: &containerID, ContainerName: containerName}
}
