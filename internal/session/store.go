package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const releaseTimeout = 30 * time.Second

// Store keeps sessions in memory keyed by session ID. A session leaving the
// store, by Delete or by expiry, has its index closed.
type Store struct {
	cache *cache.Cache
	log   *zap.Logger
}

// NewStore creates a store whose entries expire after ttl of inactivity.
func NewStore(ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{cache: cache.New(ttl, 10*time.Minute), log: log}
	s.cache.OnEvicted(s.release)
	return s
}

func (s *Store) Save(sess Session) {
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
}

func (s *Store) Get(id string) (Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return Session{}, false
	}
	return v.(Session), true
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) release(id string, v interface{}) {
	sess, ok := v.(Session)
	if !ok || sess.Answerer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := sess.Answerer.Close(ctx); err != nil {
		s.log.Warn("close index", zap.String("session", id), zap.Error(err))
		return
	}
	s.log.Debug("index released", zap.String("session", id))
}
