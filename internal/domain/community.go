package domain

// CommunitySettings is the per-community configuration. A nil room id
// disables the corresponding feature.
type CommunitySettings struct {
	CommunityID int64  `db:"community_id"`
	AFKRoomID   *int64 `db:"afk_room_id"`
	LogRoomID   *int64 `db:"log_room_id"`
}
