package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/kangminLeo/Ironbot/internal/domain"
	"github.com/kangminLeo/Ironbot/internal/gateway"
)

type GroupConfig struct {
	Size              int
	TriggerName       string
	RoomNames         []string
	Containers        []string // eligible container names, matched normalized
	PrivateTriggers   []string
	PrivateNamePrefix string
}

// Groups manages ephemeral room groups and one-off private rooms. All indices
// are process-local; on inconsistency, membership and emptiness are re-derived
// from live presence rather than trusted.
//
// Creation, join and teardown for a community run under that community's lock,
// so a teardown racing a creation cannot corrupt the index maps.
type Groups struct {
	rooms gateway.RoomManager
	cfg   GroupConfig

	mu             sync.Mutex
	locks          map[int64]*sync.Mutex       // communityID -> critical section
	groups         map[int64]*domain.RoomGroup // groupKey -> group
	roomGroup      map[int64]int64             // roomID -> groupKey
	containerGroup map[int64]int64             // containerID -> groupKey
	private        map[int64]int64             // private roomID -> communityID

	normTrigger    string
	normContainers map[string]struct{}
	normPrivate    map[string]struct{}
}

func NewGroups(rooms gateway.RoomManager, cfg GroupConfig) *Groups {
	if cfg.Size <= 0 {
		cfg.Size = 4
	}
	// Room names must line up with Size even when the caller skipped config
	// validation; a short list would otherwise break group creation.
	if len(cfg.RoomNames) != cfg.Size {
		names := make([]string, 0, cfg.Size)
		for i := 0; i < cfg.Size && i < len(cfg.RoomNames); i++ {
			names = append(names, cfg.RoomNames[i])
		}
		for i := len(names); i < cfg.Size; i++ {
			names = append(names, fmt.Sprintf("Room %d", i+1))
		}
		cfg.RoomNames = names
	}
	g := &Groups{
		rooms:          rooms,
		cfg:            cfg,
		locks:          make(map[int64]*sync.Mutex),
		groups:         make(map[int64]*domain.RoomGroup),
		roomGroup:      make(map[int64]int64),
		containerGroup: make(map[int64]int64),
		private:        make(map[int64]int64),
		normTrigger:    normalizeName(cfg.TriggerName),
		normContainers: make(map[string]struct{}, len(cfg.Containers)),
		normPrivate:    make(map[string]struct{}, len(cfg.PrivateTriggers)),
	}
	for _, c := range cfg.Containers {
		g.normContainers[normalizeName(c)] = struct{}{}
	}
	for _, p := range cfg.PrivateTriggers {
		g.normPrivate[normalizeName(p)] = struct{}{}
	}
	return g
}

// normalizeName strips whitespace and anything that is not a letter or digit,
// so cosmetic variants of the same name compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// HandleVoiceState reacts to one presence event: trigger-room entries create
// groups or private rooms, and both the room being left and the room being
// entered are re-checked for teardown.
func (g *Groups) HandleVoiceState(ctx context.Context, ev domain.VoiceState) {
	if ev.After != nil {
		switch {
		case g.isGroupTrigger(ev.After):
			if err := g.createOrJoin(ctx, ev); err != nil {
				slog.Warn("groups: create", "community", ev.CommunityID, "err", err)
			}
		case g.isPrivateTrigger(ev.After):
			if err := g.createPrivate(ctx, ev); err != nil {
				slog.Warn("groups: private room", "community", ev.CommunityID, "err", err)
			}
		}
	}

	if ev.Before != nil {
		g.maybeTeardown(ctx, ev.CommunityID, ev.Before.ID)
		g.maybeReapPrivate(ctx, ev.Before.ID)
	}
	if ev.After != nil {
		g.maybeTeardown(ctx, ev.CommunityID, ev.After.ID)
	}
}

func (g *Groups) isGroupTrigger(room *domain.RoomRef) bool {
	if room.ContainerID == nil || normalizeName(room.Name) != g.normTrigger {
		return false
	}
	_, ok := g.normContainers[normalizeName(room.ContainerName)]
	return ok
}

func (g *Groups) isPrivateTrigger(room *domain.RoomRef) bool {
	if room.ContainerID == nil {
		return false
	}
	_, ok := g.normPrivate[normalizeName(room.Name)]
	return ok
}

func (g *Groups) communityLock(communityID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[communityID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[communityID] = l
	}
	return l
}

// createOrJoin handles a trigger-room entry. If the container already hosts a
// group, the participant is moved into its first room and the trigger (a
// duplicate-click leftover) is deleted. Otherwise a fresh group is created.
// The trigger room is deleted only after MoveParticipant has returned, so the
// participant is never left without a destination.
func (g *Groups) createOrJoin(ctx context.Context, ev domain.VoiceState) error {
	communityID := ev.CommunityID
	trigger := ev.After
	containerID := *trigger.ContainerID

	lock := g.communityLock(communityID)
	lock.Lock()
	defer lock.Unlock()

	g.mu.Lock()
	key, exists := g.containerGroup[containerID]
	var firstRoom int64
	if exists {
		firstRoom = g.groups[key].MemberRoomIDs[0]
	}
	g.mu.Unlock()

	if exists {
		if err := g.rooms.MoveParticipant(ctx, communityID, ev.ParticipantID, firstRoom); err != nil {
			slog.Debug("groups: move to existing group", "participant", ev.ParticipantID, "err", err)
		}
		g.deleteRoomQuiet(ctx, trigger.ID)
		return nil
	}

	created := make([]domain.RoomRef, 0, g.cfg.Size)
	for _, name := range g.cfg.RoomNames {
		room, err := g.rooms.CreateRoom(ctx, communityID, containerID, name)
		if err != nil {
			// Abort and roll the partial set back; state stays unchanged and
			// the trigger room survives for a retry.
			for _, r := range created {
				g.deleteRoomQuiet(ctx, r.ID)
			}
			return fmt.Errorf("create %q: %w", name, err)
		}
		created = append(created, room)
	}

	grp := &domain.RoomGroup{
		Key:         created[0].ID,
		CommunityID: communityID,
		ContainerID: containerID,
	}
	for _, r := range created {
		grp.MemberRoomIDs = append(grp.MemberRoomIDs, r.ID)
	}

	g.mu.Lock()
	g.groups[grp.Key] = grp
	g.containerGroup[containerID] = grp.Key
	for _, id := range grp.MemberRoomIDs {
		g.roomGroup[id] = grp.Key
	}
	g.mu.Unlock()

	if err := g.rooms.MoveParticipant(ctx, communityID, ev.ParticipantID, grp.MemberRoomIDs[0]); err != nil {
		slog.Debug("groups: move into new group", "participant", ev.ParticipantID, "err", err)
	}
	g.deleteRoomQuiet(ctx, trigger.ID)

	slog.Info("groups: created", "community", communityID, "container", containerID, "key", grp.Key)
	return nil
}

// maybeTeardown tears the whole group down once every member room is empty.
// A single occupied room blocks teardown. Rooms that no longer exist on the
// gateway are dropped from membership defensively.
func (g *Groups) maybeTeardown(ctx context.Context, communityID, roomID int64) {
	g.mu.Lock()
	key, ok := g.roomGroup[roomID]
	g.mu.Unlock()
	if !ok {
		return
	}

	lock := g.communityLock(communityID)
	lock.Lock()
	defer lock.Unlock()

	g.mu.Lock()
	grp, ok := g.groups[key]
	var memberIDs []int64
	if ok {
		memberIDs = append(memberIDs, grp.MemberRoomIDs...)
	}
	g.mu.Unlock()
	if !ok {
		return // torn down while we waited for the lock
	}

	live := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		members, err := g.rooms.ListPresent(ctx, id)
		if errors.Is(err, gateway.ErrRoomNotFound) {
			continue // vanished; drop from membership
		}
		if err != nil {
			slog.Warn("groups: list present", "room", id, "err", err)
			return // cannot prove emptiness, keep the group
		}
		if len(members) > 0 {
			return
		}
		live = append(live, id)
	}

	if len(live) > 0 {
		if err := g.rooms.DisconnectVoice(ctx, communityID, live); err != nil {
			slog.Debug("groups: disconnect voice", "community", communityID, "err", err)
		}
	}
	for _, id := range live {
		g.deleteRoomQuiet(ctx, id)
	}

	g.mu.Lock()
	for _, id := range memberIDs {
		delete(g.roomGroup, id)
	}
	delete(g.groups, key)
	delete(g.containerGroup, grp.ContainerID)
	g.mu.Unlock()

	g.restoreTrigger(ctx, communityID, grp.ContainerID)
	slog.Info("groups: torn down", "community", communityID, "key", key)
}

// restoreTrigger recreates exactly one trigger room in the container unless
// one already exists.
func (g *Groups) restoreTrigger(ctx context.Context, communityID, containerID int64) {
	rooms, err := g.rooms.ListRooms(ctx, communityID)
	if err != nil {
		slog.Warn("groups: list rooms for trigger restore", "community", communityID, "err", err)
		return
	}
	for _, r := range rooms {
		if r.ContainerID != nil && *r.ContainerID == containerID && normalizeName(r.Name) == g.normTrigger {
			return
		}
	}
	if _, err := g.rooms.CreateRoom(ctx, communityID, containerID, g.cfg.TriggerName); err != nil {
		slog.Warn("groups: recreate trigger", "community", communityID, "container", containerID, "err", err)
	}
}

// createPrivate spawns a single on-demand room named after its owner and
// moves the owner in. The trigger room itself persists.
func (g *Groups) createPrivate(ctx context.Context, ev domain.VoiceState) error {
	communityID := ev.CommunityID
	containerID := *ev.After.ContainerID

	lock := g.communityLock(communityID)
	lock.Lock()
	defer lock.Unlock()

	owner := ev.ParticipantName
	if owner == "" {
		owner = strconv.FormatInt(ev.ParticipantID, 10)
	}
	room, err := g.rooms.CreateRoom(ctx, communityID, containerID, g.cfg.PrivateNamePrefix+owner)
	if err != nil {
		return fmt.Errorf("create private room: %w", err)
	}

	g.mu.Lock()
	g.private[room.ID] = communityID
	g.mu.Unlock()

	if err := g.rooms.MoveParticipant(ctx, communityID, ev.ParticipantID, room.ID); err != nil {
		slog.Debug("groups: move into private room", "participant", ev.ParticipantID, "err", err)
	}
	return nil
}

// maybeReapPrivate deletes a private room once it is empty.
func (g *Groups) maybeReapPrivate(ctx context.Context, roomID int64) {
	g.mu.Lock()
	communityID, ok := g.private[roomID]
	g.mu.Unlock()
	if !ok {
		return
	}

	lock := g.communityLock(communityID)
	lock.Lock()
	defer lock.Unlock()

	members, err := g.rooms.ListPresent(ctx, roomID)
	if err != nil && !errors.Is(err, gateway.ErrRoomNotFound) {
		slog.Warn("groups: list present in private room", "room", roomID, "err", err)
		return
	}
	if err == nil && len(members) > 0 {
		return
	}

	if err == nil {
		g.deleteRoomQuiet(ctx, roomID)
	}
	g.mu.Lock()
	delete(g.private, roomID)
	g.mu.Unlock()
}

// deleteRoomQuiet makes deletion idempotent: an already-deleted room is fine.
func (g *Groups) deleteRoomQuiet(ctx context.Context, roomID int64) {
	err := g.rooms.DeleteRoom(ctx, roomID)
	if err != nil && !errors.Is(err, gateway.ErrRoomNotFound) {
		slog.Debug("groups: delete room", "room", roomID, "err", err)
	}
}

// Snapshot returns copies of the live indices, for introspection and tests.
func (g *Groups) Snapshot() (roomGroup, containerGroup map[int64]int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	roomGroup = make(map[int64]int64, len(g.roomGroup))
	for k, v := range g.roomGroup {
		roomGroup[k] = v
	}
	containerGroup = make(map[int64]int64, len(g.containerGroup))
	for k, v := range g.containerGroup {
		containerGroup[k] = v
	}
	return roomGroup, containerGroup
}
