package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

func newPollFixture(t *testing.T) (*Store, *types.Poll) {
	t.Helper()
	s := New()
	poll := &types.Poll{Title: "fixture", IsActive: true, UserID: 42}
	require.NoError(t, s.CreatePoll(context.Background(), poll))
	return s, poll
}

func TestUpsertVoteKeepsSingleRow(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	optA, err := s.GetOrCreateOption(ctx, poll.ID, "A")
	require.NoError(t, err)
	optB, err := s.GetOrCreateOption(ctx, poll.ID, "B")
	require.NoError(t, err)

	const voter = uint64(7)
	for _, optID := range []uint64{optA.ID, optB.ID, optA.ID, optA.ID, optB.ID} {
		require.NoError(t, s.UpsertVote(ctx, poll.ID, optID, voter))
		assert.Equal(t, 1, s.VoteRows(poll.ID, voter))
	}

	// The row tracks the most recent cast.
	counts, err := s.OptionCounts(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "B", counts[0].Text)
	assert.Equal(t, int64(1), counts[0].VoteCount)
	assert.Equal(t, int64(0), counts[1].VoteCount)
}

func TestGetOrCreateOptionReuses(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	first, err := s.GetOrCreateOption(ctx, poll.ID, "tacos")
	require.NoError(t, err)
	second, err := s.GetOrCreateOption(ctx, poll.ID, "tacos")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := s.GetOrCreateOption(ctx, poll.ID, "sushi")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestOptionCountsSortedByVotes(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	a, _ := s.GetOrCreateOption(ctx, poll.ID, "A")
	b, _ := s.GetOrCreateOption(ctx, poll.ID, "B")

	require.NoError(t, s.UpsertVote(ctx, poll.ID, b.ID, 1))
	require.NoError(t, s.UpsertVote(ctx, poll.ID, b.ID, 2))
	require.NoError(t, s.UpsertVote(ctx, poll.ID, a.ID, 3))

	counts, err := s.OptionCounts(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "B", counts[0].Text)
	assert.Equal(t, int64(2), counts[0].VoteCount)
	assert.Equal(t, "A", counts[1].Text)

	var total int64
	for _, c := range counts {
		total += c.VoteCount
	}
	assert.Equal(t, int64(3), total)
}

func TestToggleCommentVoteParity(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	comment := &types.Comment{PollID: poll.ID, UserID: 42, Content: "hi"}
	require.NoError(t, s.CreateComment(ctx, comment))
	const voter = uint64(7)

	// Odd number of identical casts leaves one row, even leaves none.
	for i := 1; i <= 6; i++ {
		action, err := s.ToggleCommentVote(ctx, comment.ID, voter, types.VoteUp)
		require.NoError(t, err)
		if i%2 == 1 {
			assert.Equal(t, storage.VoteCreated, action)
			assert.Equal(t, 1, s.CommentVoteRows(comment.ID, voter))
		} else {
			assert.Equal(t, storage.VoteRemoved, action)
			assert.Equal(t, 0, s.CommentVoteRows(comment.ID, voter))
		}
	}
}

func TestToggleCommentVoteAlternating(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	comment := &types.Comment{PollID: poll.ID, UserID: 42, Content: "hi"}
	require.NoError(t, s.CreateComment(ctx, comment))
	const voter = uint64(7)

	action, err := s.ToggleCommentVote(ctx, comment.ID, voter, types.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, storage.VoteCreated, action)

	// Alternating types always updates the single row in place.
	for _, vt := range []int16{types.VoteDown, types.VoteUp, types.VoteDown} {
		action, err = s.ToggleCommentVote(ctx, comment.ID, voter, vt)
		require.NoError(t, err)
		assert.Equal(t, storage.VoteUpdated, action)
		assert.Equal(t, 1, s.CommentVoteRows(comment.ID, voter))

		sum, err := s.CommentVoteSummary(ctx, comment.ID, voter)
		require.NoError(t, err)
		assert.Equal(t, vt, sum.UserVote)
	}
}

func TestCommentVoteSummaryCounts(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	comment := &types.Comment{PollID: poll.ID, UserID: 42, Content: "hi"}
	require.NoError(t, s.CreateComment(ctx, comment))

	_, err := s.ToggleCommentVote(ctx, comment.ID, 1, types.VoteUp)
	require.NoError(t, err)
	_, err = s.ToggleCommentVote(ctx, comment.ID, 2, types.VoteUp)
	require.NoError(t, err)
	_, err = s.ToggleCommentVote(ctx, comment.ID, 3, types.VoteDown)
	require.NoError(t, err)

	sum, err := s.CommentVoteSummary(ctx, comment.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Upvotes)
	assert.Equal(t, int64(1), sum.Downvotes)
	assert.Equal(t, types.VoteDown, sum.UserVote)

	// Anonymous callers get counts without a personal vote.
	sum, err = s.CommentVoteSummary(ctx, comment.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int16(0), sum.UserVote)
}

func TestDuplicateAccounts(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &types.User{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	err := s.CreateUser(ctx, &types.User{Email: "a@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	require.NoError(t, s.CreateProfile(ctx, &types.Profile{UserID: u.ID, Username: "a", Role: types.RoleUser, IsActive: true}))
	err = s.CreateProfile(ctx, &types.Profile{UserID: u.ID + 1, Username: "a", Role: types.RoleUser})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestSoftDeleteHidesFromListing(t *testing.T) {
	s, poll := newPollFixture(t)
	ctx := context.Background()

	keep := &types.Comment{PollID: poll.ID, UserID: 1, Content: "keep"}
	drop := &types.Comment{PollID: poll.ID, UserID: 1, Content: "drop"}
	require.NoError(t, s.CreateComment(ctx, keep))
	require.NoError(t, s.CreateComment(ctx, drop))

	require.NoError(t, s.SoftDeleteComment(ctx, drop.ID))

	comments, err := s.ListComments(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "keep", comments[0].Content)

	// The tombstone is still readable directly.
	got, err := s.GetComment(ctx, drop.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}
