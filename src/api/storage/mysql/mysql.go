package mysql

import (
	"context"
	"errors"
	"strings"

	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry"):
		return storage.ErrDuplicate
	default:
		return err
	}
}

// Accounts

func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var u types.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*types.User, error) {
	var u types.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&types.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateProfile(ctx context.Context, p *types.Profile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetProfile(ctx context.Context, userID uint64) (*types.Profile, error) {
	var p types.Profile
	if err := s.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) UpdateProfileRole(ctx context.Context, userID uint64, role string) error {
	res := s.db.WithContext(ctx).Model(&types.Profile{}).Where("user_id = ?", userID).Update("role", role)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetProfileActive(ctx context.Context, userID uint64, active bool) error {
	res := s.db.WithContext(ctx).Model(&types.Profile{}).Where("user_id = ?", userID).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]storage.UserAccount, error) {
	var accounts []storage.UserAccount
	err := s.db.WithContext(ctx).Table("users").
		Select("users.id, users.email, users.created_at, profiles.username, profiles.display_name, profiles.role, profiles.is_active").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Order("users.id asc").
		Scan(&accounts).Error
	return accounts, translate(err)
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.Profile{}).Where("role = ?", types.RoleAdmin).Count(&n).Error
	return n, translate(err)
}

// Polls

func (s *Store) CreatePoll(ctx context.Context, p *types.Poll) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetPoll(ctx context.Context, id uint64) (*types.Poll, error) {
	var p types.Poll
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) ListActivePolls(ctx context.Context) ([]types.Poll, error) {
	var polls []types.Poll
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at desc").Find(&polls).Error
	return polls, translate(err)
}

func (s *Store) DeletePoll(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&types.Poll{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetOrCreateOption(ctx context.Context, pollID uint64, text string) (*types.Option, error) {
	var opt types.Option
	err := s.db.WithContext(ctx).
		Where(types.Option{PollID: pollID, Text: text}).
		FirstOrCreate(&opt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &opt, nil
}

// UpsertVote relies on the unique (poll_id, user_id) index so two concurrent
// casts from the same voter can never leave two rows behind.
func (s *Store) UpsertVote(ctx context.Context, pollID, optionID, userID uint64) error {
	vote := types.Vote{PollID: pollID, OptionID: optionID, UserID: userID}
	return translate(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_id"}),
	}).Create(&vote).Error)
}

func (s *Store) OptionCounts(ctx context.Context, pollID uint64) ([]storage.OptionCount, error) {
	var rows []storage.OptionCount
	err := s.db.WithContext(ctx).Table("options").
		Select("options.id, options.text, options.created_at, count(votes.id) as vote_count").
		Joins("LEFT JOIN votes ON votes.option_id = options.id").
		Where("options.poll_id = ?", pollID).
		Group("options.id, options.text, options.created_at").
		Order("vote_count desc, options.id asc").
		Scan(&rows).Error
	return rows, translate(err)
}

// Comments

func (s *Store) CreateComment(ctx context.Context, c *types.Comment) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) GetComment(ctx context.Context, id uint64) (*types.Comment, error) {
	var c types.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, pollID uint64) ([]types.Comment, error) {
	var comments []types.Comment
	err := s.db.WithContext(ctx).
		Where("poll_id = ? AND is_deleted = ?", pollID, false).
		Order("created_at asc").
		Find(&comments).Error
	return comments, translate(err)
}

func (s *Store) UpdateCommentContent(ctx context.Context, id uint64, content string) error {
	res := s.db.WithContext(ctx).Model(&types.Comment{}).Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "is_edited": true})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteComment(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Model(&types.Comment{}).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleCommentVote(ctx context.Context, commentID, userID uint64, voteType int16) (string, error) {
	var action string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cv types.CommentVote
		err := tx.First(&cv, "comment_id = ? AND user_id = ?", commentID, userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = storage.VoteCreated
			return tx.Create(&types.CommentVote{CommentID: commentID, UserID: userID, VoteType: voteType}).Error
		case err != nil:
			return err
		case cv.VoteType == voteType:
			action = storage.VoteRemoved
			return tx.Delete(&cv).Error
		default:
			action = storage.VoteUpdated
			return tx.Model(&cv).Update("vote_type", voteType).Error
		}
	})
	if err != nil {
		return "", translate(err)
	}
	return action, nil
}

func (s *Store) CommentVoteSummary(ctx context.Context, commentID, userID uint64) (storage.VoteSummary, error) {
	var out storage.VoteSummary

	type agg struct {
		VoteType int16
		Count    int64
	}
	var rows []agg
	err := s.db.WithContext(ctx).Table("comment_votes").
		Select("vote_type, count(*) as count").
		Where("comment_id = ?", commentID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return out, translate(err)
	}
	for _, r := range rows {
		switch r.VoteType {
		case types.VoteUp:
			out.Upvotes = r.Count
		case types.VoteDown:
			out.Downvotes = r.Count
		}
	}

	if userID != 0 {
		var cv types.CommentVote
		err := s.db.WithContext(ctx).First(&cv, "comment_id = ? AND user_id = ?", commentID, userID).Error
		if err == nil {
			out.UserVote = cv.VoteType
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return out, translate(err)
		}
	}
	return out, nil
}

// Audit & notifications

func (s *Store) RecordAdminAction(ctx context.Context, a *types.AdminAction) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) ListAdminActions(ctx context.Context, limit int) ([]types.AdminAction, error) {
	var actions []types.AdminAction
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&actions).Error
	return actions, translate(err)
}

func (s *Store) CreateEmailSubscription(ctx context.Context, sub *types.EmailSubscription) error {
	return translate(s.db.WithContext(ctx).Create(sub).Error)
}
