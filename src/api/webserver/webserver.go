package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ballotcast/ballotcast/src/api/config"
	"github.com/ballotcast/ballotcast/src/api/storage"
)

func New(cfg config.Config, store storage.Store, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, store, rdb)
	return g
}
