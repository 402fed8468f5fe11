// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of an assistant conversation.
// Per prd004-sessions R2.1.
type Message struct {
	// Role is "user" or "assistant".
	Role Role `json:"role" yaml:"role"`

	// Content is the message text.
	Content string `json:"content" yaml:"content"`

	// CreatedAt records when the message was appended.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Run is a persistent assistant session. A user's most recent run is
// resumed by default when they start a chat. Per prd004-sessions R1.1-R1.4.
type Run struct {
	// ID is the run identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// UserID identifies the run's owner (default "default_user").
	UserID string `json:"user_id" yaml:"user_id"`

	// Messages is the conversation in append order.
	Messages []Message `json:"messages" yaml:"messages"`

	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the run last changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
