package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ballotcast/ballotcast/src/api/config"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

func attachRoutes(r *gin.Engine, cfg config.Config, store storage.Store, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(cfg.JWTSecret)
	audit := NewAuditLog(store, rdb)
	authH := NewAuth(store, rdb, secret, cfg.AdminSetupCode, audit)
	pollH := NewPolls(store, audit)
	commentH := NewComments(store, rdb, audit)
	adminH := NewAdmin(store, rdb, audit)

	limiter := NewRateLimiter(cfg.RateLimit, time.Minute)
	limited := RateLimitMiddleware(limiter)

	api := r.Group("/api")
	{
		api.POST("/auth/register", limited, authH.Register)
		api.POST("/auth/login", limited, authH.Login)

		// Reads work anonymously; a valid token personalizes user_vote.
		public := api.Group("")
		public.Use(OptionalJWT(secret))
		public.GET("/polls", pollH.List)
		public.GET("/polls/:id", pollH.Get)
		public.GET("/polls/:id/comments", commentH.ListForPoll)
		public.GET("/comments/:id", commentH.Get)

		secured := api.Group("")
		secured.Use(JWTMiddleware(secret))
		secured.GET("/auth/me", authH.Me)
		secured.POST("/auth/claim-admin", authH.ClaimAdmin)

		secured.POST("/polls", pollH.Create)
		secured.POST("/polls/vote", limited, pollH.Vote)
		secured.DELETE("/polls/:id", pollH.Delete)
		secured.POST("/polls/:id/comments", commentH.Create)

		secured.PUT("/comments/:id", commentH.Update)
		secured.DELETE("/comments/:id", commentH.Delete)
		secured.POST("/comments/:id/vote", limited, commentH.Vote)

		admin := api.Group("/admin")
		admin.Use(JWTMiddleware(secret), RoleMiddleware(store, types.RoleAdmin))
		admin.GET("/users", adminH.ListUsers)
		admin.GET("/actions", adminH.ListActions)
		admin.PUT("/users/:id/role", adminH.SetRole)
		admin.PUT("/users/:id/active", adminH.SetActive)
		admin.POST("/invites", adminH.CreateInvite)
	}
}
