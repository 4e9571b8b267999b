package service

import (
	"context"
	"testing"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

func newTestReconciler(accounts *fakeAccounts, settings *fakeSettings, rooms *fakeRooms, notifier *fakeNotifier) (*Reconciler, *fakeActivity) {
	activity := newFakeActivity()
	policy := Policy{BlockSeconds: 1800, PointsPerBlock: 5}
	notify := NewNotify(settings, notifier, policy)
	rec := NewReconciler(accounts, activity, settings, rooms, notify, policy)
	return rec, activity
}

func openSession(t *testing.T, accounts *fakeAccounts, communityID, participantID int64, start time.Time) {
	t.Helper()
	err := accounts.Mutate(context.Background(), communityID, participantID, func(acc *domain.Account) error {
		acc.SessionStart = &start
		return nil
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
}

func TestReconcilerGrantsAndRestartsPresentSession(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(100, "General", 10, "Voice"),
		domain.PresentMember{ParticipantID: 7})
	notifier := &fakeNotifier{}
	rec, activity := newTestReconciler(accounts, settings, rooms, notifier)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(65 * time.Minute)
	rec.now = func() time.Time { return now }
	openSession(t, accounts, 1, 7, start)

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1, 7)
	if acc.Points != 10 {
		t.Fatalf("points = %d, want 10", acc.Points)
	}
	if acc.CarrySeconds != 300 {
		t.Fatalf("carry = %d, want 300", acc.CarrySeconds)
	}
	if acc.SessionStart == nil || !acc.SessionStart.Equal(now) {
		t.Fatalf("session start = %v, want restarted at %v", acc.SessionStart, now)
	}

	// participant is present and unmuted, so activity advanced to the sweep time
	rec7, _ := activity.LastActive(context.Background(), 1, 7)
	if rec7 == nil || !rec7.LastActiveAt.Equal(now) {
		t.Fatalf("last active = %v, want %v", rec7, now)
	}
}

func TestReconcilerSecondSweepDoesNotDoubleAward(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(100, "General", 10, "Voice"),
		domain.PresentMember{ParticipantID: 7})
	rec, _ := newTestReconciler(accounts, settings, rooms, &fakeNotifier{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(35 * time.Minute)
	rec.now = func() time.Time { return now }
	openSession(t, accounts, 1, 7, start)

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1, 7)
	if acc.Points != 5 || acc.CarrySeconds != 300 {
		t.Fatalf("after first sweep: points=%d carry=%d, want 5/300", acc.Points, acc.CarrySeconds)
	}

	// no presence change in between: the second sweep measures from the
	// restarted session and must not award the same interval again
	rec.Sweep(context.Background())

	acc, _ = accounts.Get(context.Background(), 1, 7)
	if acc.Points != 5 {
		t.Fatalf("points = %d after second sweep, want 5", acc.Points)
	}
	if acc.CarrySeconds != 300 {
		t.Fatalf("carry = %d after second sweep, want 300", acc.CarrySeconds)
	}
	if acc.SessionStart == nil || !acc.SessionStart.Equal(now) {
		t.Fatalf("session start = %v, want pinned at %v", acc.SessionStart, now)
	}
}

func TestReconcilerClosesAbsentSession(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(100, "General", 10, "Voice")) // empty room
	rec, _ := newTestReconciler(accounts, settings, rooms, &fakeNotifier{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return start.Add(40 * time.Minute) }
	openSession(t, accounts, 1, 7, start)

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1, 7)
	if acc.SessionStart != nil {
		t.Fatal("absent participant's session left open")
	}
	if acc.Points != 5 {
		t.Fatalf("points = %d, want 5", acc.Points)
	}
	if acc.CarrySeconds != 600 {
		t.Fatalf("carry = %d, want 600", acc.CarrySeconds)
	}
}

func TestReconcilerIgnoresHoldingRoomPresence(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	afkRoom := int64(900)
	_ = settings.SetAFKRoom(context.Background(), 1, &afkRoom)

	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(afkRoom, "AFK", 10, "Voice"),
		domain.PresentMember{ParticipantID: 7})
	rec, _ := newTestReconciler(accounts, settings, rooms, &fakeNotifier{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return start.Add(30 * time.Minute) }
	openSession(t, accounts, 1, 7, start)

	rec.Sweep(context.Background())

	// sitting in the holding room counts as absent: grant and close
	acc, _ := accounts.Get(context.Background(), 1, 7)
	if acc.SessionStart != nil {
		t.Fatal("holding-room presence kept the session open")
	}
	if acc.Points != 5 {
		t.Fatalf("points = %d, want 5", acc.Points)
	}
}

func TestReconcilerSkipsBots(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(100, "General", 10, "Voice"),
		domain.PresentMember{ParticipantID: 42, Bot: true})
	rec, activity := newTestReconciler(accounts, settings, rooms, &fakeNotifier{})
	rec.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	rec.Sweep(context.Background())

	rec42, _ := activity.LastActive(context.Background(), 1, 42)
	if rec42 != nil {
		t.Fatal("bot presence marked activity")
	}
}

func TestReconcilerNotifiesAfterGrant(t *testing.T) {
	accounts := newFakeAccounts()
	settings := newFakeSettings()
	logRoom := int64(555)
	_ = settings.SetLogRoom(context.Background(), 1, &logRoom)
	rooms := newFakeRooms(1)
	rooms.addRoom(*roomRef(100, "General", 10, "Voice"))
	notifier := &fakeNotifier{}
	rec, _ := newTestReconciler(accounts, settings, rooms, notifier)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return start.Add(30 * time.Minute) }
	openSession(t, accounts, 1, 7, start)
	openSession(t, accounts, 1, 8, start.Add(10*time.Minute)) // below a block

	rec.Sweep(context.Background())

	msgs := notifier.messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(msgs))
	}
	if msgs[0].roomID != logRoom {
		t.Fatalf("notification room = %d, want %d", msgs[0].roomID, logRoom)
	}
}
