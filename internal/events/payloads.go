package events

import "dev.helix.deliberation/internal/models"

// Wire payloads for each event type. JSON field names are part of the
// client contract and must not change.

type DebateStartedPayload struct {
	DebateID string           `json:"debate_id"`
	Topic    string           `json:"topic"`
	Agents   []models.Persona `json:"agents"`
}

type StartAgentTurnPayload struct {
	DebateID string         `json:"debate_id"`
	Agent    models.Persona `json:"agent"`
}

type TypingStatusPayload struct {
	DebateID string         `json:"debate_id"`
	Agent    models.Persona `json:"agent"`
	IsTyping bool           `json:"is_typing"`
}

type NewMessagePayload struct {
	DebateID string         `json:"debate_id"`
	Message  models.Message `json:"message"`
}

type InterventionPayload struct {
	DebateID     string `json:"debate_id"`
	Intervention string `json:"intervention"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
