// ABOUTME: Wire types for the UniMeet REST API
// ABOUTME: Mirrors the JSON shapes served by the backend, field for field

package api

import "time"

// User is a lightweight user reference embedded in other payloads
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// EventRef identifies an event inside a request or notification payload
type EventRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// JoinRequest is a pending request by a user to join one of the caller's events
type JoinRequest struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserDetails  User      `json:"user_details"`
	EventDetails EventRef  `json:"event_details"`
}

// FriendRequest is a pending friend request received by the caller
type FriendRequest struct {
	ID              int       `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	FromUserDetails User      `json:"from_user_details"`
}

// LastMessage is the most recent message in a conversation
type LastMessage struct {
	SenderID  int       `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a message thread with another user. Its identity is the
// other user's id; the API has no separate conversation id.
type Conversation struct {
	User        User         `json:"user"`
	UnreadCount int          `json:"unread_count"`
	LastMessage *LastMessage `json:"last_message"`
}

// Notification is a generic server-generated notification, such as an
// event reminder
type Notification struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	IsRead       bool      `json:"is_read"`
	Message      string    `json:"message"`
	EventDetails *EventRef `json:"event_details,omitempty"`
}

// Location is a campus location an event is hosted at
type Location struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Event is a public or joined campus event
type Event struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Details         string    `json:"details"`
	PostedDate      time.Time `json:"posted_date"`
	HostDetails     User      `json:"host_details"`
	LocationDetails Location  `json:"location_details"`
	IsPublic        bool      `json:"is_public"`
}

// TokenPair is the credential pair issued by the token endpoint
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
