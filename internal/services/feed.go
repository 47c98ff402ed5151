package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scriptforge-backend/internal/models"
)

// ChangeFeed mirrors repository writes onto the owner's update channel
// so every open session of that user refreshes. Publishing is best
// effort; a failed publish only logs.
type ChangeFeed struct {
	pubsub *redis.Client
}

func NewChangeFeed(pubsub *redis.Client) *ChangeFeed {
	return &ChangeFeed{pubsub: pubsub}
}

func (f *ChangeFeed) Publish(ctx context.Context, userID uuid.UUID, table, action string, id uuid.UUID) {
	if f == nil || f.pubsub == nil {
		return
	}
	msg := models.WSMessage{
		Type: "change",
		Payload: models.ChangeEvent{
			Table:  table,
			Action: action,
			ID:     id,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := f.pubsub.Publish(ctx, "user_updates:"+userID.String(), payload).Err(); err != nil {
		log.Printf("change feed publish failed for user %s: %v", userID, err)
	}
}

// PublishEvent sends an arbitrary websocket message (job progress,
// completion, errors) to the user's update channel.
func (f *ChangeFeed) PublishEvent(ctx context.Context, userID uuid.UUID, msgType string, payload interface{}) {
	if f == nil || f.pubsub == nil {
		return
	}
	data, err := json.Marshal(models.WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		return
	}
	if err := f.pubsub.Publish(ctx, "user_updates:"+userID.String(), data).Err(); err != nil {
		log.Printf("event publish failed for user %s: %v", userID, err)
	}
}
