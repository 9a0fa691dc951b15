// Package events delivers committed registry notifications to in-memory
// recorders, the structured log and Kafka.
package events

import (
	"encoding/json"
	"fmt"

	"assetd/internal/registry/models"
)

// Envelope is the JSON wire form of a registry notification.
type Envelope struct {
	Type     models.EventType `json:"type"`
	Identity string           `json:"identity"`
	Owner    string           `json:"owner,omitempty"`
	From     string           `json:"from,omitempty"`
	To       string           `json:"to,omitempty"`
}

// NewEnvelope converts a registry event into its wire form.
func NewEnvelope(event models.Event) (Envelope, error) {
	switch e := event.(type) {
	case models.Created:
		return Envelope{
			Type:     e.Type(),
			Identity: e.Identity.String(),
			Owner:    e.Owner.String(),
		}, nil
	case models.Transferred:
		return Envelope{
			Type:     e.Type(),
			Identity: e.Identity.String(),
			From:     e.From.String(),
			To:       e.To.String(),
		}, nil
	default:
		return Envelope{}, fmt.Errorf("unsupported event %T", event)
	}
}

// Encode marshals event as an Envelope.
func Encode(event models.Event) ([]byte, error) {
	env, err := NewEnvelope(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
