package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/ballotcast/ballotcast/src/api/config"
	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/storage/memory"
	mysqlstore "github.com/ballotcast/ballotcast/src/api/storage/mysql"
	"github.com/ballotcast/ballotcast/src/api/types"
	"github.com/ballotcast/ballotcast/src/api/webserver"
)

var allModels = []interface{}{
	&types.User{}, &types.Profile{},
	&types.Poll{}, &types.Option{}, &types.Vote{},
	&types.Comment{}, &types.CommentVote{},
	&types.AdminAction{}, &types.EmailSubscription{},
	&types.Setting{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func seedSettings(db *gorm.DB) {
	defaults := []types.Setting{
		{ID: 1, Name: "bootstrap_poll_id", Value: "1"},
		{ID: 2, Name: "bootstrap_poll_title", Value: "Community poll"},
	}
	for _, s := range defaults {
		var existing types.Setting
		_ = db.Where("name = ?", s.Name).FirstOrCreate(&existing, s).Error
	}
}

func main() {
	cfg := config.Load()

	var store storage.Store
	if cfg.Storage == "memory" {
		log.Printf("Using in-memory storage (data is lost on restart)")
		store = memory.New()
	} else {
		db := data.MustMySQL(cfg.MySQLDSN)
		migrate(db)
		seedSettings(db)
		if err := data.LoadSettings(db); err != nil {
			log.Printf("Failed to load settings: %v", err)
		}
		store = mysqlstore.New(db)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, store, rdb)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if cfg.EnableSSL && cfg.SSLCert != "" && cfg.SSLKey != "" {
			tlsReloader, rerr := webserver.NewTLSReloader(cfg.SSLCert, cfg.SSLKey, 5*time.Minute)
			if rerr != nil {
				log.Printf("Failed to create TLS reloader: %v. Falling back to HTTP", rerr)
				err = httpSrv.ListenAndServe()
			} else {
				httpSrv.TLSConfig = tlsReloader.GetConfig()
				err = httpSrv.ListenAndServeTLS("", "")
			}
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("Ballotcast API listening on %s (SSL: %v)", cfg.Port, cfg.EnableSSL && cfg.SSLCert != "")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
