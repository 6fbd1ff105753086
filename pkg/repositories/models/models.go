package models

// MatchResult is the outcome of one match as observed by one replica.
type MatchResult struct {
	ID int64 `json:"id"`
	// ReplicaID is the participant id of the replica that recorded the result
	ReplicaID  string `json:"replica_id"`
	WinnerID   string `json:"winner_id"`
	WinnerName string `json:"winner_name,omitempty"`
	// StartedAt and EndedAt are milliseconds since the Unix epoch; StartedAt is 0 if unknown
	StartedAt int64 `json:"started_at"`
	EndedAt   int64 `json:"ended_at"`
	// Participants is the number of participants when the match started
	Participants int `json:"participants"`
	Deaths       int `json:"deaths"`
	// WinnerItTime is the winner's cumulative "it" time in seconds
	WinnerItTime float64 `json:"winner_it_time"`
}
