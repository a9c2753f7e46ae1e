package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

// Store keeps everything in process memory. It backs tests and the
// STORAGE=memory development mode; a process restart loses all data.
type Store struct {
	mu sync.RWMutex

	users        map[uint64]*types.User
	profiles     map[uint64]*types.Profile
	polls        map[uint64]*types.Poll
	options      map[uint64]*types.Option
	votes        map[uint64]*types.Vote
	comments     map[uint64]*types.Comment
	commentVotes map[uint64]*types.CommentVote
	actions      []types.AdminAction
	subs         []types.EmailSubscription

	nextID uint64
}

func New() *Store {
	return &Store{
		users:        make(map[uint64]*types.User),
		profiles:     make(map[uint64]*types.Profile),
		polls:        make(map[uint64]*types.Poll),
		options:      make(map[uint64]*types.Option),
		votes:        make(map[uint64]*types.Vote),
		comments:     make(map[uint64]*types.Comment),
		commentVotes: make(map[uint64]*types.CommentVote),
	}
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// Accounts

func (s *Store) CreateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrDuplicate
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id uint64) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) DeleteUser(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateProfile(_ context.Context, p *types.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return storage.ErrDuplicate
	}
	for _, existing := range s.profiles {
		if existing.Username == p.Username {
			return storage.ErrDuplicate
		}
	}
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID uint64) (*types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdateProfileRole(_ context.Context, userID uint64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return storage.ErrNotFound
	}
	p.Role = role
	return nil
}

func (s *Store) SetProfileActive(_ context.Context, userID uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return storage.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]storage.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		acct := storage.UserAccount{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
		if p, ok := s.profiles[u.ID]; ok {
			acct.Username = p.Username
			acct.DisplayName = p.DisplayName
			acct.Role = p.Role
			acct.IsActive = p.IsActive
		}
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountAdmins(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.profiles {
		if p.Role == types.RoleAdmin {
			n++
		}
	}
	return n, nil
}

// Polls

func (s *Store) CreatePoll(_ context.Context, p *types.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.polls[p.ID] = &cp
	return nil
}

func (s *Store) GetPoll(_ context.Context, id uint64) (*types.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListActivePolls(_ context.Context) ([]types.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Poll
	for _, p := range s.polls {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeletePoll(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.polls, id)
	return nil
}

func (s *Store) GetOrCreateOption(_ context.Context, pollID uint64, text string) (*types.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range s.options {
		if opt.PollID == pollID && opt.Text == text {
			cp := *opt
			return &cp, nil
		}
	}
	opt := &types.Option{ID: s.id(), PollID: pollID, Text: text, CreatedAt: time.Now()}
	s.options[opt.ID] = opt
	cp := *opt
	return &cp, nil
}

func (s *Store) UpsertVote(_ context.Context, pollID, optionID, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.PollID == pollID && v.UserID == userID {
			v.OptionID = optionID
			return nil
		}
	}
	v := &types.Vote{ID: s.id(), PollID: pollID, OptionID: optionID, UserID: userID, CreatedAt: time.Now()}
	s.votes[v.ID] = v
	return nil
}

func (s *Store) OptionCounts(_ context.Context, pollID uint64) ([]storage.OptionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.OptionCount
	for _, opt := range s.options {
		if opt.PollID != pollID {
			continue
		}
		row := storage.OptionCount{ID: opt.ID, Text: opt.Text, CreatedAt: opt.CreatedAt}
		for _, v := range s.votes {
			if v.OptionID == opt.ID {
				row.VoteCount++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Comments

func (s *Store) CreateComment(_ context.Context, c *types.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *Store) GetComment(_ context.Context, id uint64) (*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListComments(_ context.Context, pollID uint64) ([]types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Comment
	for _, c := range s.comments {
		if c.PollID == pollID && !c.IsDeleted {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateCommentContent(_ context.Context, id uint64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SoftDeleteComment(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.IsDeleted = true
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ToggleCommentVote(_ context.Context, commentID, userID uint64, voteType int16) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cv := range s.commentVotes {
		if cv.CommentID != commentID || cv.UserID != userID {
			continue
		}
		if cv.VoteType == voteType {
			delete(s.commentVotes, id)
			return storage.VoteRemoved, nil
		}
		cv.VoteType = voteType
		return storage.VoteUpdated, nil
	}
	cv := &types.CommentVote{ID: s.id(), CommentID: commentID, UserID: userID, VoteType: voteType, CreatedAt: time.Now()}
	s.commentVotes[cv.ID] = cv
	return storage.VoteCreated, nil
}

func (s *Store) CommentVoteSummary(_ context.Context, commentID, userID uint64) (storage.VoteSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out storage.VoteSummary
	for _, cv := range s.commentVotes {
		if cv.CommentID != commentID {
			continue
		}
		switch cv.VoteType {
		case types.VoteUp:
			out.Upvotes++
		case types.VoteDown:
			out.Downvotes++
		}
		if cv.UserID == userID {
			out.UserVote = cv.VoteType
		}
	}
	return out, nil
}

// Audit & notifications

func (s *Store) RecordAdminAction(_ context.Context, a *types.AdminAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.actions = append(s.actions, *a)
	return nil
}

func (s *Store) ListAdminActions(_ context.Context, limit int) ([]types.AdminAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AdminAction, len(s.actions))
	copy(out, s.actions)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateEmailSubscription(_ context.Context, sub *types.EmailSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id()
	s.subs = append(s.subs, *sub)
	return nil
}

// VoteRows reports how many vote rows exist for (pollID, userID). Test hook.
func (s *Store) VoteRows(pollID, userID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.votes {
		if v.PollID == pollID && v.UserID == userID {
			n++
		}
	}
	return n
}

// CommentVoteRows reports how many vote rows exist for (commentID, userID).
// Test hook.
func (s *Store) CommentVoteRows(commentID, userID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, cv := range s.commentVotes {
		if cv.CommentID == commentID && cv.UserID == userID {
			n++
		}
	}
	return n
}
