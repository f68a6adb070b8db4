package models

import "time"

// MessageType identifies who produced a debate message.
type MessageType string

const (
	MessageTypeAgent        MessageType = "agent_message"
	MessageTypeIntervention MessageType = "intervention"
)

// InterventionSender is the sender recorded for user interventions.
const InterventionSender = "user"

// DebateStatus represents the lifecycle state of a debate.
type DebateStatus string

// DebateStatusActive is the only status a debate ever holds in-process;
// debates are garbage-collected by process exit, not by transition.
const DebateStatusActive DebateStatus = "active"

// Persona is one of the fixed debate participants. The persona set is
// immutable for the process lifetime and its declaration order defines
// the turn rotation.
type Persona struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Bias string `json:"bias"`
}

// Message is a single entry in a debate's log. Immutable once appended.
// Role is only set for agent messages.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Sender    string      `json:"sender"`
	Role      string      `json:"role,omitempty"`
}

// Debate holds the full in-memory state of one debate session.
type Debate struct {
	ID        string       `json:"debate_id"`
	Topic     string       `json:"topic"`
	StartTime time.Time    `json:"start_time"`
	Status    DebateStatus `json:"status"`
	Messages  []Message    `json:"messages"`
}

// NewAgentMessage builds an agent turn message stamped with the current time.
func NewAgentMessage(agent Persona, content string) Message {
	return Message{
		Type:      MessageTypeAgent,
		Content:   content,
		Timestamp: time.Now(),
		Sender:    agent.Name,
		Role:      agent.Role,
	}
}

// NewIntervention builds a user intervention message stamped with the current time.
func NewIntervention(content string) Message {
	return Message{
		Type:      MessageTypeIntervention,
		Content:   content,
		Timestamp: time.Now(),
		Sender:    InterventionSender,
	}
}
