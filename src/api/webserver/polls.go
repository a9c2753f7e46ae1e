package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

// Well-known poll auto-created on first vote when absent.
const defaultBootstrapPollID uint64 = 1

type Polls struct {
	store storage.Store
	audit *AuditLog
}

func NewPolls(store storage.Store, audit *AuditLog) Polls {
	return Polls{store: store, audit: audit}
}

func bootstrapPollID() uint64 {
	return data.GetSettingUint64("bootstrap_poll_id", defaultBootstrapPollID)
}

func bootstrapPollTitle() string {
	if v := data.GetSetting("bootstrap_poll_title"); v != "" {
		return v
	}
	return "Community poll"
}

func (p Polls) List(c *gin.Context) {
	polls, err := p.store.ListActivePolls(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"polls": polls})
}

func (p Polls) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,min=1,max=255"`
		Description string `json:"description" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	poll := types.Poll{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
		UserID:      currentUID(c),
	}
	if err := p.store.CreatePoll(c.Request.Context(), &poll); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"poll": poll})
}

func (p Polls) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid poll id"})
		return
	}

	poll, err := p.store.GetPoll(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	options, err := p.store.OptionCounts(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	var total int64
	for _, opt := range options {
		total += opt.VoteCount
	}
	if options == nil {
		options = []storage.OptionCount{}
	}

	c.JSON(http.StatusOK, gin.H{
		"poll": gin.H{
			"id":          poll.ID,
			"title":       poll.Title,
			"description": poll.Description,
			"is_active":   poll.IsActive,
			"created_at":  poll.CreatedAt,
			"updated_at":  poll.UpdatedAt,
			"total_votes": total,
			"options":     options,
		},
	})
}

// Vote casts or moves the caller's vote. One row per (poll, voter); voting
// for another option updates the row, it never inserts a second one.
func (p Polls) Vote(c *gin.Context) {
	var req struct {
		PollID     uint64 `json:"pollId" binding:"required"`
		OptionText string `json:"optionText" binding:"required,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUID(c)
	ctx := c.Request.Context()

	poll, err := p.store.GetPoll(ctx, req.PollID)
	if errors.Is(err, storage.ErrNotFound) {
		if req.PollID != bootstrapPollID() {
			c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
			return
		}
		// First vote bootstraps the well-known poll with the caller as owner.
		poll = &types.Poll{
			ID:       req.PollID,
			Title:    bootstrapPollTitle(),
			IsActive: true,
			UserID:   uid,
		}
		if err := p.store.CreatePoll(ctx, poll); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	if !poll.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
		return
	}

	option, err := p.store.GetOrCreateOption(ctx, poll.ID, req.OptionText)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if err := p.store.UpsertVote(ctx, poll.ID, option.ID, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("vote recorded for %q", option.Text),
		"option":  option.Text,
	})
}

func (p Polls) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid poll id"})
		return
	}

	uid := currentUID(c)
	ctx := c.Request.Context()

	poll, err := p.store.GetPoll(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "poll not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	owner := poll.UserID == uid
	if !owner {
		profile, err := p.store.GetProfile(ctx, uid)
		if err != nil || profile.Role != types.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"err": "access denied"})
			return
		}
	}

	if err := p.store.DeletePoll(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if !owner {
		p.audit.Record(uid, "poll_delete", "poll", id, poll.Title)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
