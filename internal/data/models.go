package data

import (
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is a GrowNet user role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleMentor, RoleMentee}

// ParseRole normalizes s and reports whether it names a valid role.
func ParseRole(s string) (Role, bool) {
	r := Role(normalize.Role(s))
	for _, v := range Roles {
		if r == v {
			return r, true
		}
	}
	return "", false
}

// MessageTypeText is the type given to messages stored before types existed.
const MessageTypeText = "text"

// User maps to the users collection.
type User struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Email           string        `bson:"email"`
	Username        string        `bson:"username"`
	Password        string        `bson:"password"`
	Role            Role          `bson:"role,omitempty"`
	ExperienceYears *int          `bson:"experienceYears,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

// Message maps to the messages collection. Pointer and omitempty fields may
// be absent on documents written before the message schema migration.
type Message struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	ChatID    bson.ObjectID `bson:"chatId,omitempty"`
	SenderID  any           `bson:"senderId,omitempty"`
	Content   string        `bson:"content,omitempty"`
	ReadBy    []any         `bson:"readBy,omitempty"`
	Type      string        `bson:"type,omitempty"`
	SentAt    *time.Time    `bson:"sentAt,omitempty"`
	CreatedAt *time.Time    `bson:"createdAt,omitempty"`
	UpdatedAt *time.Time    `bson:"updatedAt,omitempty"`
}

// Chat maps to the chats collection.
type Chat struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	Participants []bson.ObjectID `bson:"participants"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

// UpdateCounts is the matched/modified pair reported by every bulk update.
type UpdateCounts struct {
	Matched  int64
	Modified int64
}

