package service

import (
	"testing"
	"time"

	"storagechat/internal/chat/status"
	"storagechat/internal/chat/validator"
	"storagechat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestStore_EvictsIdleSessions(t *testing.T) {
	st := NewStore(time.Minute, 0, logger.Discard())
	defer st.Stop()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return base }

	fresh := newTestSession("fresh", base)
	stale := newTestSession("stale", base.Add(-2*time.Minute))
	st.Put(fresh)
	st.Put(stale)

	var evicted []string
	st.onEvict = func(s *Session) { evicted = append(evicted, s.ID) }

	assert.Equal(t, 1, st.evictIdle())
	assert.Equal(t, []string{"stale"}, evicted)
	_, ok := st.Get("stale")
	assert.False(t, ok)
	_, ok = st.Get("fresh")
	assert.True(t, ok)
	assert.True(t, stale.Closed())
}

func newTestSession(id string, seen time.Time) *Session {
	log := logger.Discard()
	return newSession(id, seen, sessionDeps{
		validator:  validator.NewChatValidator(log, testFacilities),
		scheduler:  status.NewManualScheduler(),
		facilities: testFacilities,
		log:        log,
	})
}

func TestStore_StopEndsCleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	st := NewStore(time.Minute, time.Millisecond, logger.Discard())
	time.Sleep(5 * time.Millisecond)
	st.Stop()
	st.Stop()
}
