package push

import (
	"encoding/json"
	"time"

	"github.com/NgocVuuu/film-sub001/internal/models"
)

const (
	defaultTitle = "FilmSub"
	defaultIcon  = "/icons/icon-192.png"
	defaultBadge = "/icons/badge-72.png"
)

// Payload is the JSON body the client's background context renders.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
	Icon      string `json:"icon"`
	Badge     string `json:"badge"`
	Timestamp int64  `json:"timestamp"`
}

// BuildPayload creates the wire payload for a notification.
func BuildPayload(title, body, link string) []byte {
	if title == "" {
		title = defaultTitle
	}
	p := Payload{
		Title:     title,
		Body:      body,
		Link:      link,
		Icon:      defaultIcon,
		Badge:     defaultBadge,
		Timestamp: time.Now().UnixMilli(),
	}
	bytes, _ := json.Marshal(p)
	return bytes
}

// TitleFor picks the notification title shown for a given type.
func TitleFor(typ string) string {
	switch typ {
	case models.NotificationTypeNewEpisode:
		return "New episode available"
	case models.NotificationTypeAnnouncement:
		return "Announcement"
	default:
		return defaultTitle
	}
}
