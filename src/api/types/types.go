package types

import "time"

// Profile roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Comment vote types
const (
	VoteUp   int16 = 1
	VoteDown int16 = -1
)

// Accounts
type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:256;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID      uint64 `gorm:"primaryKey" json:"user_id"`
	Username    string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"size:128" json:"display_name"`
	Role        string `gorm:"size:16;not null;default:user" json:"role"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}

// Polls
type Poll struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	UserID      uint64    `gorm:"index;not null" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Options are created on first vote referencing a new text value and reused after.
type Option struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PollID    uint64    `gorm:"uniqueIndex:idx_poll_option;not null" json:"poll_id"`
	Text      string    `gorm:"size:255;uniqueIndex:idx_poll_option;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// One row per (poll, voter); casting again moves the vote to another option.
type Vote struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PollID    uint64    `gorm:"uniqueIndex:idx_poll_voter;not null" json:"poll_id"`
	OptionID  uint64    `gorm:"index;not null" json:"option_id"`
	UserID    uint64    `gorm:"uniqueIndex:idx_poll_voter;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comments are tombstoned, never physically removed.
type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PollID    uint64    `gorm:"index;not null" json:"poll_id"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	IsEdited  bool      `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// One row per (comment, voter); repeating the same vote type toggles it off.
type CommentVote struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	CommentID uint64    `gorm:"uniqueIndex:idx_comment_voter;not null" json:"comment_id"`
	UserID    uint64    `gorm:"uniqueIndex:idx_comment_voter;not null" json:"user_id"`
	VoteType  int16     `gorm:"not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Append-only audit trail of privileged mutations.
type AdminAction struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	AdminID       uint64    `gorm:"index;not null" json:"admin_id"`
	ActionType    string    `gorm:"size:64;not null" json:"action_type"`
	TargetType    string    `gorm:"size:32;not null" json:"target_type"`
	TargetID      uint64    `gorm:"index" json:"target_id"`
	ActionDetails string    `gorm:"size:512" json:"action_details"`
	CreatedAt     time.Time `json:"created_at"`
}

// Email subscriptions for comment notifications
type EmailSubscription struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	CommentID uint64     `gorm:"index;not null" json:"comment_id"`
	Email     string     `gorm:"size:256;not null" json:"email"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
