package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

type Auth struct {
	store     storage.Store
	rdb       *redis.Client
	jwtSecret []byte
	setupCode string
	audit     *AuditLog
}

func NewAuth(store storage.Store, rdb *redis.Client, secret []byte, setupCode string, audit *AuditLog) Auth {
	return Auth{store: store, rdb: rdb, jwtSecret: secret, setupCode: setupCode, audit: audit}
}

func (a Auth) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email,max=256"`
		Password    string `json:"password" binding:"required,min=8,max=128"`
		Username    string `json:"username" binding:"required,min=2,max=50"`
		DisplayName string `json:"displayName" binding:"max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to hash password"})
		return
	}

	user := types.User{Email: req.Email, PasswordHash: string(hash)}
	if err := a.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"err": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	profile := types.Profile{
		UserID:      user.ID,
		Username:    req.Username,
		DisplayName: displayName,
		Role:        types.RoleUser,
		IsActive:    true,
	}
	if err := a.store.CreateProfile(c.Request.Context(), &profile); err != nil {
		// Remove the user row again so the email is free for a retry.
		if derr := a.store.DeleteUser(c.Request.Context(), user.ID); derr != nil {
			log.Printf("Failed to remove user %d after profile error: %v", user.ID, derr)
		}
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"err": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	token, err := issueJWT(user.ID, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	log.Printf("Registered user %d (%s)", user.ID, req.Username)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	user, err := a.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}

	profile, err := a.store.GetProfile(c.Request.Context(), user.ID)
	if err == nil && !profile.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "account disabled"})
		return
	}

	token, err := issueJWT(user.ID, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a Auth) Me(c *gin.Context) {
	uid := currentUID(c)
	user, err := a.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	out := gin.H{"id": user.ID, "email": user.Email, "role": types.RoleUser}
	if profile, err := a.store.GetProfile(c.Request.Context(), uid); err == nil {
		out["username"] = profile.Username
		out["display_name"] = profile.DisplayName
		out["role"] = profile.Role
	}
	c.JSON(http.StatusOK, out)
}

// ClaimAdmin promotes the caller to admin. Elevation is gated: the code must
// be either a single-use invite minted by an existing admin, or the operator
// setup code while the system has no admin yet.
func (a Auth) ClaimAdmin(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required,min=8,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUID(c)
	if _, err := a.store.GetProfile(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"err": "profile required"})
		return
	}

	ok := false
	if a.setupCode != "" && req.Code == a.setupCode {
		admins, err := a.store.CountAdmins(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
		// The setup code only bootstraps the first admin.
		ok = admins == 0
	}
	if !ok && a.rdb != nil {
		if _, err := data.ConsumeInviteCode(c.Request.Context(), a.rdb, req.Code); err == nil {
			ok = true
		}
	}
	if !ok {
		log.Printf("Rejected admin claim from user %d", uid)
		c.JSON(http.StatusForbidden, gin.H{"err": "invalid elevation code"})
		return
	}

	if err := a.store.UpdateProfileRole(c.Request.Context(), uid, types.RoleAdmin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	a.audit.Record(uid, "role_change", "user", uid, "self elevation via invite code")
	log.Printf("User %d elevated to admin", uid)
	c.JSON(http.StatusOK, gin.H{"success": true, "role": types.RoleAdmin})
}
