package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription stores one web push delivery endpoint for a user. The
// endpoint is unique across all users; the key material is the pair of opaque
// secrets the browser hands out on opt-in.
type PushSubscription struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	Endpoint  string             `json:"endpoint" bson:"endpoint"`
	P256dh    string             `json:"-" bson:"p256dh"`
	Auth      string             `json:"-" bson:"auth"`
	UserAgent string             `json:"user_agent" bson:"user_agent"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	RenewedAt time.Time          `json:"renewed_at" bson:"renewed_at"`
}

// SubscribeRequest mirrors the browser's PushSubscription JSON shape.
type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint" validate:"required,url"`
		Keys     struct {
			P256dh string `json:"p256dh" validate:"required"`
			Auth   string `json:"auth" validate:"required"`
		} `json:"keys"`
	} `json:"subscription" validate:"required"`
	UserAgent string `json:"userAgent"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}
