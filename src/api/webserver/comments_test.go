package webserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballotcast/ballotcast/src/api/config"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/storage/memory"
	"github.com/ballotcast/ballotcast/src/api/types"
)

func createComment(t *testing.T, r *gin.Engine, token string, pollID uint64, content string) uint64 {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/polls/"+itoa(pollID)+"/comments", token, gin.H{"content": content})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	return uint64(comment["id"].(float64))
}

func commentVote(t *testing.T, r *gin.Engine, token string, commentID uint64, voteType int) *httptest.ResponseRecorder {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/comments/"+itoa(commentID)+"/vote", token, gin.H{"voteType": voteType})
	return w
}

func TestCommentCreateAndFetch(t *testing.T) {
	r, _ := newTestEnv(t)
	token, _ := register(t, r, "alice")
	pollID := createPoll(t, r, token, "poll with thread")

	commentID := createComment(t, r, token, pollID, "first!")

	w := doJSON(t, r, http.MethodGet, "/api/comments/"+itoa(commentID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	comment := body["comment"].(map[string]interface{})
	assert.Equal(t, "first!", comment["content"])
	votes := body["votes"].(map[string]interface{})
	assert.Equal(t, float64(0), votes["upvotes"])
	assert.Equal(t, float64(0), votes["user_vote"])

	// Thread listing, oldest first.
	createComment(t, r, token, pollID, "second")
	w = doJSON(t, r, http.MethodGet, "/api/polls/"+itoa(pollID)+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decodeBody(t, w)["comments"].([]interface{})
	require.Len(t, comments, 2)
	assert.Equal(t, "first!", comments[0].(map[string]interface{})["content"])
}

func TestCommentContentIsSanitized(t *testing.T) {
	r, _ := newTestEnv(t)
	token, _ := register(t, r, "alice")
	pollID := createPoll(t, r, token, "poll")

	commentID := createComment(t, r, token, pollID, "<script>alert(1)</script>hello")

	w := doJSON(t, r, http.MethodGet, "/api/comments/"+itoa(commentID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	assert.NotContains(t, comment["content"], "script")
	assert.Contains(t, comment["content"], "hello")
}

func TestCommentLengthLimit(t *testing.T) {
	r, _ := newTestEnv(t)
	token, _ := register(t, r, "alice")
	pollID := createPoll(t, r, token, "poll")

	long := strings.Repeat("a", 1500)
	w := doJSON(t, r, http.MethodPost, "/api/polls/"+itoa(pollID)+"/comments", token, gin.H{"content": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	commentID := createComment(t, r, token, pollID, "short")
	w = doJSON(t, r, http.MethodPut, "/api/comments/"+itoa(commentID), token, gin.H{"content": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The limit counts characters, not bytes: 1000 two-byte runes fit.
	accented := strings.Repeat("é", 1000)
	w = doJSON(t, r, http.MethodPost, "/api/polls/"+itoa(pollID)+"/comments", token, gin.H{"content": accented})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// brokenCommentStore simulates a backend outage on comment reads.
type brokenCommentStore struct {
	*memory.Store
}

func (b brokenCommentStore) GetComment(context.Context, uint64) (*types.Comment, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestCommentStorageFailureIsNot404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{JWTSecret: testSecret, RateLimit: 1000}
	r := gin.New()
	attachRoutes(r, cfg, brokenCommentStore{memory.New()}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/comments/1", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	token, _ := register(t, r, "alice")
	w = doJSON(t, r, http.MethodPost, "/api/comments/1/vote", token, gin.H{"voteType": 1})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCommentEditRules(t *testing.T) {
	r, store := newTestEnv(t)
	owner, _ := register(t, r, "owner")
	other, _ := register(t, r, "other")
	pollID := createPoll(t, r, owner, "poll")
	commentID := createComment(t, r, owner, pollID, "original")

	// Only the author may edit.
	w := doJSON(t, r, http.MethodPut, "/api/comments/"+itoa(commentID), other, gin.H{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/comments/"+itoa(commentID), owner, gin.H{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "edited", comment["content"])
	assert.Equal(t, true, comment["is_edited"])

	// Edits on tombstoned comments are invalid input, not 500s.
	require.NoError(t, store.SoftDeleteComment(context.Background(), commentID))
	w = doJSON(t, r, http.MethodPut, "/api/comments/"+itoa(commentID), owner, gin.H{"content": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentDeleteRules(t *testing.T) {
	r, store := newTestEnv(t)
	owner, _ := register(t, r, "owner")
	other, otherID := register(t, r, "other")
	pollID := createPoll(t, r, owner, "poll")
	commentID := createComment(t, r, owner, pollID, "target")

	// A plain user cannot delete someone else's comment.
	w := doJSON(t, r, http.MethodDelete, "/api/comments/"+itoa(commentID), other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A moderator can, and the delete is audited.
	require.NoError(t, store.UpdateProfileRole(context.Background(), otherID, types.RoleModerator))
	w = doJSON(t, r, http.MethodDelete, "/api/comments/"+itoa(commentID), other, nil)
	require.Equal(t, http.StatusOK, w.Code)

	actions, err := store.ListAdminActions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "comment_delete", actions[0].ActionType)
	assert.Equal(t, otherID, actions[0].AdminID)

	// The row is tombstoned, not gone: a second delete is a 404.
	w = doJSON(t, r, http.MethodDelete, "/api/comments/"+itoa(commentID), other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	comment, err := store.GetComment(context.Background(), commentID)
	require.NoError(t, err)
	assert.True(t, comment.IsDeleted)

	// Deleted comments are invisible to readers and voters.
	w = doJSON(t, r, http.MethodGet, "/api/comments/"+itoa(commentID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = commentVote(t, r, owner, commentID, 1)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentVoteToggle(t *testing.T) {
	r, store := newTestEnv(t)
	token, uid := register(t, r, "alice")
	pollID := createPoll(t, r, token, "poll")
	commentID := createComment(t, r, token, pollID, "vote on me")

	// Invalid vote type.
	w := commentVote(t, r, token, commentID, 5)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// First upvote creates a row.
	w = commentVote(t, r, token, commentID, 1)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, storage.VoteCreated, body["action"])
	votes := body["votes"].(map[string]interface{})
	assert.Equal(t, float64(1), votes["upvotes"])
	assert.Equal(t, float64(1), votes["user_vote"])

	// Same vote again toggles it off.
	w = commentVote(t, r, token, commentID, 1)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, storage.VoteRemoved, body["action"])
	assert.Equal(t, 0, store.CommentVoteRows(commentID, uid))

	// Opposite type right after creates again.
	w = commentVote(t, r, token, commentID, -1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storage.VoteCreated, decodeBody(t, w)["action"])

	// Flipping updates in place, still one row.
	w = commentVote(t, r, token, commentID, 1)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, storage.VoteUpdated, body["action"])
	assert.Equal(t, 1, store.CommentVoteRows(commentID, uid))
	votes = body["votes"].(map[string]interface{})
	assert.Equal(t, float64(1), votes["upvotes"])
	assert.Equal(t, float64(0), votes["downvotes"])
}
