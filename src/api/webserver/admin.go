package webserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

type Admin struct {
	store storage.Store
	rdb   *redis.Client
	audit *AuditLog
}

func NewAdmin(store storage.Store, rdb *redis.Client, audit *AuditLog) Admin {
	return Admin{store: store, rdb: rdb, audit: audit}
}

func (a Admin) ListUsers(c *gin.Context) {
	accounts, err := a.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if accounts == nil {
		accounts = []storage.UserAccount{}
	}
	c.JSON(http.StatusOK, gin.H{"users": accounts})
}

func (a Admin) ListActions(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	actions, err := a.store.ListAdminActions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if actions == nil {
		actions = []types.AdminAction{}
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (a Admin) SetRole(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid user id"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=user moderator admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := a.store.UpdateProfileRole(c.Request.Context(), targetID, req.Role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	adminID := currentUID(c)
	a.audit.Record(adminID, "role_change", "user", targetID, "role set to "+req.Role)
	log.Printf("Admin %d set role of user %d to %s", adminID, targetID, req.Role)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a Admin) SetActive(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid user id"})
		return
	}

	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := a.store.SetProfileActive(c.Request.Context(), targetID, *req.IsActive); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	adminID := currentUID(c)
	a.audit.Record(adminID, "account_toggle", "user", targetID, fmt.Sprintf("is_active set to %v", *req.IsActive))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateInvite mints a single-use admin elevation code. Codes live in redis
// with a 24h TTL and are consumed atomically on claim.
func (a Admin) CreateInvite(c *gin.Context) {
	if a.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "invites unavailable"})
		return
	}

	code := uuid.NewString()
	adminID := currentUID(c)
	if err := data.SetInviteCode(c.Request.Context(), a.rdb, code, adminID); err != nil {
		log.Printf("Failed to store invite code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create invite"})
		return
	}

	a.audit.Record(adminID, "invite_create", "invite", 0, "admin invite minted")
	c.JSON(http.StatusCreated, gin.H{"code": code})
}
