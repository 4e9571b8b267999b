package domain

import "time"

// Account is the per-(community, participant) accrual state. SessionStart is
// set while the participant is being timed in a countable room; nil otherwise.
type Account struct {
	CommunityID   int64      `db:"community_id"`
	ParticipantID int64      `db:"participant_id"`
	Points        int64      `db:"points"`
	CarrySeconds  int64      `db:"carry_seconds"`
	SessionStart  *time.Time `db:"session_start"`
}

// ActivityRecord holds the last evidence of active participation: a message
// sent, or unmuted presence in a countable room.
type ActivityRecord struct {
	CommunityID   int64     `db:"community_id"`
	ParticipantID int64     `db:"participant_id"`
	LastActiveAt  time.Time `db:"last_active_at"`
}

// LeaderboardEntry is one row of the community top list.
type LeaderboardEntry struct {
	ParticipantID int64 `db:"participant_id"`
	Points        int64 `db:"points"`
}
