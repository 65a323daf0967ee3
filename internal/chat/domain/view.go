package domain

import "time"

// Profile public member info shown next to chats
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ChatView chat as returned by the conversation api
type ChatView struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Text   string    `json:"text"`
	Viewed bool      `json:"viewed"`
	User   Profile   `json:"user"`
}

// ConversationView full history of one conversation
type ConversationView struct {
	ID          string     `json:"id"`
	Chats       []ChatView `json:"chats"`
	PeerProfile Profile    `json:"peerProfile"`
}

// ConversationSummary entry of the caller's conversation list
type ConversationSummary struct {
	ID          string    `json:"id"`
	PeerProfile Profile   `json:"peerProfile"`
	LastChat    *ChatView `json:"lastChat,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
