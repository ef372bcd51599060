package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/dashpay-relay/internal/envfile"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
)

// fakeRecord implementa Record en memoria y cuenta escrituras.
type fakeRecord struct {
	mu      sync.Mutex
	vals    map[string]string
	writes  int
	failing bool
}

func (f *fakeRecord) Lookup(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vals[key]
	if !ok {
		return "", envfile.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRecord) Replace(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("disk on fire")
	}
	if f.vals == nil {
		f.vals = map[string]string{}
	}
	f.vals[key] = value
	f.writes++
	return nil
}

// countingSigner emite tokens distintos en cada llamada.
type countingSigner struct {
	calls atomic.Int64
	delay time.Duration
}

func (s *countingSigner) Sign() (*jwt.Credential, error) {
	n := s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	now := time.Now().UTC()
	return &jwt.Credential{
		Token:     fmt.Sprintf("token-%d", n),
		KeyID:     "kid",
		IssuedAt:  now,
		ExpiresAt: now.Add(jwt.CredentialTTL),
	}, nil
}

func TestStore_CurrentAndSetCurrent(t *testing.T) {
	s := New(&fakeRecord{}, "")
	assert.Equal(t, DefaultKey, s.Key())
	assert.Nil(t, s.Current())

	c := &jwt.Credential{Token: "a"}
	s.SetCurrent(c)
	assert.Same(t, c, s.Current())

	s.SetCurrent(nil)
	assert.Same(t, c, s.Current(), "nil must not clear the current credential")
}

func TestStore_PersistWritesRecord(t *testing.T) {
	rec := &fakeRecord{}
	s := New(rec, "")
	require.NoError(t, s.Persist(&jwt.Credential{Token: "abc"}))

	v, err := rec.Lookup(DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestStore_PersistFailureIsWrapped(t *testing.T) {
	s := New(&fakeRecord{failing: true}, "")
	err := s.Persist(&jwt.Credential{Token: "abc"})
	require.ErrorIs(t, err, ErrPersist)
	assert.Nil(t, s.Current(), "persist must not touch memory")
}

func TestStore_LoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTHER=1\nDOORDASH_API_KEY=opaque-value\n"), 0o600))

	s := New(envfile.New(path), "")
	c, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "opaque-value", s.Current().Token)
}

func TestRefresher_SignsPersistsAndSets(t *testing.T) {
	rec := &fakeRecord{}
	s := New(rec, "")
	signer := &countingSigner{}
	r := NewRefresher(signer, s)

	c, err := r.Refresh(context.Background(), SourceScheduler)
	require.NoError(t, err)
	assert.Equal(t, "token-1", c.Token)
	assert.Same(t, c, s.Current())
	assert.Equal(t, 1, rec.writes)
}

func TestRefresher_PersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	s := New(&fakeRecord{failing: true}, "")
	r := NewRefresher(&countingSigner{}, s)

	c, err := r.Refresh(context.Background(), SourceRelay)
	require.NoError(t, err)
	assert.Same(t, c, s.Current())
}

type failingSigner struct{}

func (failingSigner) Sign() (*jwt.Credential, error) { return nil, errors.New("no secret") }

func TestRefresher_SignFailureLeavesCurrent(t *testing.T) {
	s := New(&fakeRecord{}, "")
	old := &jwt.Credential{Token: "old"}
	s.SetCurrent(old)

	_, err := NewRefresher(failingSigner{}, s).Refresh(context.Background(), SourceRelay)
	require.Error(t, err)
	assert.Same(t, old, s.Current())
}

func TestRefresher_CoalescesConcurrentRefreshes(t *testing.T) {
	s := New(&fakeRecord{}, "")
	signer := &countingSigner{delay: 50 * time.Millisecond}
	r := NewRefresher(signer, s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Refresh(context.Background(), SourceRelay)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, signer.calls.Load(), int64(8))
	assert.NotNil(t, s.Current())
}
