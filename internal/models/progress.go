package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A record is marked completed once the playhead passes this percentage.
const completedThreshold = 90

// ProgressRecord is the canonical watch position for one (user, title, episode).
// Title metadata is denormalized into the record so continue-watching lists can
// render without a second lookup.
type ProgressRecord struct {
	ID            primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID        uint               `json:"userId" bson:"user_id"`
	TitleID       string             `json:"titleId" bson:"title_id"`
	TitleName     string             `json:"titleName" bson:"title_name"`
	TitleThumb    string             `json:"titleThumb" bson:"title_thumb"`
	EpisodeID     string             `json:"episodeId" bson:"episode_id"`
	EpisodeName   string             `json:"episodeName" bson:"episode_name"`
	ServerLabel   string             `json:"serverLabel" bson:"server_label"`
	CurrentTime   float64            `json:"currentTime" bson:"current_time"`
	Duration      float64            `json:"duration" bson:"duration"`
	Percentage    int                `json:"percentage" bson:"percentage"`
	Completed     bool               `json:"completed" bson:"completed"`
	LastWatchedAt time.Time          `json:"lastWatchedAt" bson:"last_watched_at"`
}

// Derive recomputes Percentage and Completed from the playhead position.
// Calling it twice with the same inputs yields the same result.
func (p *ProgressRecord) Derive() {
	if p.Duration > 0 {
		p.Percentage = int(math.Round(p.CurrentTime / p.Duration * 100))
	} else {
		p.Percentage = 0
	}
	p.Completed = p.Percentage >= completedThreshold
}

type SaveProgressRequest struct {
	TitleID     string  `json:"titleId" validate:"required"`
	TitleName   string  `json:"titleName" validate:"required"`
	TitleThumb  string  `json:"titleThumb"`
	EpisodeID   string  `json:"episodeId" validate:"required"`
	EpisodeName string  `json:"episodeName"`
	ServerLabel string  `json:"serverLabel"`
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
	Duration    float64 `json:"duration" validate:"gte=0"`
}
