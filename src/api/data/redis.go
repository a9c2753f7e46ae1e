package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	invitePrefix = "admin-invite:"
	inviteTTL    = 24 * time.Hour
	streamAudit  = "ballotcast.audit"
	streamNotify = "ballotcast.notifications"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// SetInviteCode stores a single-use admin elevation code.
func SetInviteCode(ctx context.Context, rdb *redis.Client, code string, mintedBy uint64) error {
	return rdb.Set(ctx, invitePrefix+code, mintedBy, inviteTTL).Err()
}

// ConsumeInviteCode atomically fetches and deletes an invite code so it can
// never be redeemed twice.
func ConsumeInviteCode(ctx context.Context, rdb *redis.Client, code string) (string, error) {
	return rdb.GetDel(ctx, invitePrefix+code).Result()
}

func PublishAudit(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamAudit,
		Values: payload,
	}).Result()
	return err
}

// PublishNotification hands a comment event to the out-of-process mailer.
func PublishNotification(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamNotify,
		Values: payload,
	}).Result()
	return err
}
