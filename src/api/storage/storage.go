package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ballotcast/ballotcast/src/api/types"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Actions reported by ToggleCommentVote.
const (
	VoteCreated = "created"
	VoteUpdated = "updated"
	VoteRemoved = "removed"
)

// OptionCount is an option together with its current vote tally.
type OptionCount struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	VoteCount int64     `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteSummary aggregates the votes on a single comment. UserVote is 0 when
// the requesting user has no active vote.
type VoteSummary struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	UserVote  int16 `json:"user_vote"`
}

// UserAccount is the merged identity + profile view used by admin listings.
type UserAccount struct {
	ID          uint64    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence boundary. The mysql implementation backs
// production; the memory implementation backs tests and local development.
type Store interface {
	// Accounts
	CreateUser(ctx context.Context, u *types.User) error
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, id uint64) (*types.User, error)
	DeleteUser(ctx context.Context, id uint64) error
	CreateProfile(ctx context.Context, p *types.Profile) error
	GetProfile(ctx context.Context, userID uint64) (*types.Profile, error)
	UpdateProfileRole(ctx context.Context, userID uint64, role string) error
	SetProfileActive(ctx context.Context, userID uint64, active bool) error
	ListUsers(ctx context.Context) ([]UserAccount, error)
	CountAdmins(ctx context.Context) (int64, error)

	// Polls
	CreatePoll(ctx context.Context, p *types.Poll) error
	GetPoll(ctx context.Context, id uint64) (*types.Poll, error)
	ListActivePolls(ctx context.Context) ([]types.Poll, error)
	DeletePoll(ctx context.Context, id uint64) error
	GetOrCreateOption(ctx context.Context, pollID uint64, text string) (*types.Option, error)
	// UpsertVote inserts the voter's row or moves an existing one to
	// optionID, keyed on (poll_id, user_id).
	UpsertVote(ctx context.Context, pollID, optionID, userID uint64) error
	// OptionCounts returns the poll's options sorted by vote count, highest
	// first.
	OptionCounts(ctx context.Context, pollID uint64) ([]OptionCount, error)

	// Comments
	CreateComment(ctx context.Context, c *types.Comment) error
	GetComment(ctx context.Context, id uint64) (*types.Comment, error)
	ListComments(ctx context.Context, pollID uint64) ([]types.Comment, error)
	UpdateCommentContent(ctx context.Context, id uint64, content string) error
	SoftDeleteComment(ctx context.Context, id uint64) error
	// ToggleCommentVote enforces one row per (comment_id, user_id): no row
	// inserts, an equal vote type deletes, an opposite one updates in place.
	ToggleCommentVote(ctx context.Context, commentID, userID uint64, voteType int16) (string, error)
	CommentVoteSummary(ctx context.Context, commentID, userID uint64) (VoteSummary, error)

	// Audit & notifications
	RecordAdminAction(ctx context.Context, a *types.AdminAction) error
	ListAdminActions(ctx context.Context, limit int) ([]types.AdminAction, error)
	CreateEmailSubscription(ctx context.Context, s *types.EmailSubscription) error
}
