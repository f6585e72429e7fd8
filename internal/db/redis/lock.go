package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/rueidis"

	"github.com/bokjilink/poldex/internal/db"
)

// Compare-and-delete so an expired lock taken over by another writer is
// never released by the original holder.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// TryLock acquires a best-effort lock via SET NX PX. A held key returns
// db.ErrKeyExists immediately; callers skip rather than block.
func (s *Store) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := newToken()
	cmd := s.b().Set().Key(key).Value(token).Nx().Px(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		// SET NX on a held key replies nil.
		if rueidis.IsRedisNil(err) {
			return "", db.ErrKeyExists
		}
		return "", &db.Error{Op: db.OpSet, Err: err}
	}
	return token, nil
}

// Unlock releases the lock if the token still matches.
func (s *Store) Unlock(ctx context.Context, key, token string) error {
	cmd := s.b().Eval().Script(unlockScript).Numkeys(1).Key(key).Arg(token).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func newToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
