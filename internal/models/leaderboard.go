package models

type LeaderboardItem struct {
	UserID   int64   `msgpack:"user_id" json:"user_id"`
	FullName string  `msgpack:"full_name" json:"full_name"`
	Score    float64 `msgpack:"score" json:"score"`
	Rank     int     `msgpack:"rank" json:"rank"`
}

type LeaderboardResponse struct {
	Items []LeaderboardItem `json:"items"`
	Me    *LeaderboardItem  `json:"me,omitempty"`
}
