package webserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

const maxCommentLen = 1000

type Comments struct {
	store     storage.Store
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
	audit     *AuditLog
}

func NewComments(store storage.Store, rdb *redis.Client, audit *AuditLog) Comments {
	// Strict sanitizer: comments allow basic formatting only.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.AddTargetBlankToFullyQualifiedLinks(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Comments{store: store, rdb: rdb, sanitizer: sanitizer, audit: audit}
}

func (m Comments) cleanContent(raw string) (string, string) {
	content := m.sanitizer.Sanitize(raw)
	if !utf8.ValidString(content) {
		return "", "invalid characters in content"
	}
	if len(content) < 1 {
		return "", "content must not be empty"
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "", "content must be at most 1000 characters"
	}
	return content, ""
}

func (m Comments) ListForPoll(c *gin.Context) {
	pollID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid poll id"})
		return
	}
	if _, err := m.store.GetPoll(c.Request.Context(), pollID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	comments, err := m.store.ListComments(c.Request.Context(), pollID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if comments == nil {
		comments = []types.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (m Comments) Create(c *gin.Context) {
	pollID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid poll id"})
		return
	}

	var req struct {
		Content string   `json:"content" binding:"required,min=1,max=4000"`
		Emails  []string `json:"emails" binding:"max=10"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	content, msg := m.cleanContent(req.Content)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": msg})
		return
	}
	for _, email := range req.Emails {
		if !isValidEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"err": "invalid email format: " + email})
			return
		}
	}

	ctx := c.Request.Context()
	poll, err := m.store.GetPoll(ctx, pollID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	comment := types.Comment{
		PollID:  poll.ID,
		UserID:  currentUID(c),
		Content: content,
	}
	if err := m.store.CreateComment(ctx, &comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	for _, e := range req.Emails {
		_ = m.store.CreateEmailSubscription(ctx, &types.EmailSubscription{CommentID: comment.ID, Email: e})
	}

	// Hand the event to the out-of-process mailer; never blocks the reply.
	if m.rdb != nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := data.PublishNotification(pubCtx, m.rdb, map[string]interface{}{
				"poll_id":    poll.ID,
				"comment_id": comment.ID,
				"author":     comment.UserID,
				"time":       comment.CreatedAt.Unix(),
			})
			if err != nil {
				log.Printf("Failed to publish comment notification: %v", err)
			}
		}()
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (m Comments) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid comment id"})
		return
	}

	comment, err := m.store.GetComment(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if comment.IsDeleted {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	}

	votes, err := m.store.CommentVoteSummary(c.Request.Context(), id, currentUID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment, "votes": votes})
}

func (m Comments) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid comment id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=4000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	ctx := c.Request.Context()
	comment, err := m.store.GetComment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if comment.UserID != currentUID(c) {
		c.JSON(http.StatusForbidden, gin.H{"err": "only the author may edit"})
		return
	}
	if comment.IsDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"err": "comment is deleted"})
		return
	}

	content, msg := m.cleanContent(req.Content)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": msg})
		return
	}

	if err := m.store.UpdateCommentContent(ctx, id, content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	updated, err := m.store.GetComment(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": updated})
}

func (m Comments) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid comment id"})
		return
	}

	ctx := c.Request.Context()
	comment, err := m.store.GetComment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if comment.IsDeleted {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	}

	uid := currentUID(c)
	owner := comment.UserID == uid
	elevated := false
	if !owner {
		profile, err := m.store.GetProfile(ctx, uid)
		if err != nil || (profile.Role != types.RoleAdmin && profile.Role != types.RoleModerator) {
			c.JSON(http.StatusForbidden, gin.H{"err": "access denied"})
			return
		}
		elevated = true
	}

	if err := m.store.SoftDeleteComment(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if elevated {
		m.audit.Record(uid, "comment_delete", "comment", id, "moderation delete")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Vote toggles the caller's vote on a comment: same type removes it, the
// opposite type flips it in place.
func (m Comments) Vote(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid comment id"})
		return
	}

	var req struct {
		VoteType int16 `json:"voteType" binding:"required,oneof=1 -1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "voteType must be 1 or -1"})
		return
	}

	ctx := c.Request.Context()
	comment, err := m.store.GetComment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if comment.IsDeleted {
		c.JSON(http.StatusNotFound, gin.H{"err": "comment not found"})
		return
	}

	uid := currentUID(c)
	action, err := m.store.ToggleCommentVote(ctx, id, uid, req.VoteType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	votes, err := m.store.CommentVoteSummary(ctx, id, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "action": action, "votes": votes})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email) && len(email) <= 255
}
