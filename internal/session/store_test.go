package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	st := NewStore(time.Hour, nil)
	s := New()
	s.Topic = "Photosynthesis"
	st.Save(s)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "Photosynthesis", got.Topic)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreExpires(t *testing.T) {
	st := NewStore(10*time.Millisecond, nil)
	s := New()
	st.Save(s)
	time.Sleep(30 * time.Millisecond)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreDeleteClosesIndex(t *testing.T) {
	st := NewStore(time.Hour, nil)
	ans := &fakeAnswerer{}
	s := New()
	s.Answerer = ans
	st.Save(s)

	st.Delete(s.ID)
	assert.True(t, ans.closed)
}

func TestStoreExpiryClosesIndex(t *testing.T) {
	st := NewStore(10*time.Millisecond, nil)
	ans := &fakeAnswerer{}
	s := New()
	s.Answerer = ans
	st.Save(s)
	time.Sleep(30 * time.Millisecond)

	st.cache.DeleteExpired()
	assert.True(t, ans.closed)
}

func TestStoreOverwriteKeepsIndexOpen(t *testing.T) {
	st := NewStore(time.Hour, nil)
	ans := &fakeAnswerer{}
	s := New()
	s.Answerer = ans
	st.Save(s)

	s.Topic = "Osmosis"
	st.Save(s)
	assert.False(t, ans.closed)
}
