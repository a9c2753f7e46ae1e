package webserver

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ballotcast/ballotcast/src/api/data"
	"github.com/ballotcast/ballotcast/src/api/storage"
	"github.com/ballotcast/ballotcast/src/api/types"
)

// AuditLog records privileged mutations. Best effort: a failed write is
// logged and swallowed, it never fails the operation it describes.
type AuditLog struct {
	store storage.Store
	rdb   *redis.Client
}

func NewAuditLog(store storage.Store, rdb *redis.Client) *AuditLog {
	return &AuditLog{store: store, rdb: rdb}
}

func (a *AuditLog) Record(adminID uint64, actionType, targetType string, targetID uint64, details string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	act := types.AdminAction{
		AdminID:       adminID,
		ActionType:    actionType,
		TargetType:    targetType,
		TargetID:      targetID,
		ActionDetails: details,
	}
	if err := a.store.RecordAdminAction(ctx, &act); err != nil {
		log.Printf("audit: record %s on %s/%d failed: %v", actionType, targetType, targetID, err)
		return
	}

	if a.rdb == nil {
		return
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		err := data.PublishAudit(pubCtx, a.rdb, map[string]interface{}{
			"admin_id":    adminID,
			"action_type": actionType,
			"target_type": targetType,
			"target_id":   targetID,
			"details":     details,
			"time":        time.Now().Unix(),
		})
		if err != nil {
			log.Printf("audit: publish %s failed: %v", actionType, err)
		}
	}()
}
