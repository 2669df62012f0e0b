package models

// LeaderboardEntry is one ranked reader as reported by the sync service
type LeaderboardEntry struct {
	Username      string `json:"username"`
	TotalXP       int    `json:"totalXP"`
	Level         int    `json:"level"`
	Rank          int    `json:"rank"`
	IsSuperMember bool   `json:"isSuperMember,omitempty"`
	Location      string `json:"location,omitempty"`
}

// ProgressReport is the fire-and-forget payload sent on login and chapter completion
type ProgressReport struct {
	Username      string `json:"username"`
	Chapter       string `json:"chapter"`
	Score         string `json:"score"`
	XP            int    `json:"xp"`
	IsSuperMember bool   `json:"isSuperMember,omitempty"`
}
