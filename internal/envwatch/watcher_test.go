package envwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/dashpay-relay/internal/credstore"
	"github.com/dropDatabas3/dashpay-relay/internal/envfile"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
)

type recordingSetter struct {
	mu   sync.Mutex
	last *jwt.Credential
	n    int
}

func (r *recordingSetter) SetCurrent(c *jwt.Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = c
	r.n++
}

func (r *recordingSetter) token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return ""
	}
	return r.last.Token
}

func writeEnv(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestReload_SetsCurrentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeEnv(t, path, "A=1\nDOORDASH_API_KEY=abc\n")

	set := &recordingSetter{}
	w := New(path, credstore.DefaultKey, set)

	c, err := w.Reload()
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, "abc", set.token())

	// idempotente
	_, err = w.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, set.n)
}

func TestReload_MissingKeyOrFile(t *testing.T) {
	dir := t.TempDir()
	set := &recordingSetter{}

	w := New(filepath.Join(dir, "nope.env"), credstore.DefaultKey, set)
	_, err := w.Reload()
	require.Error(t, err)

	path := filepath.Join(dir, ".env")
	writeEnv(t, path, "A=1\n")
	w = New(path, credstore.DefaultKey, set)
	_, err = w.Reload()
	require.ErrorIs(t, err, ErrKeyMissing)
	assert.Zero(t, set.n)
}

func TestRun_PicksUpAtomicRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeEnv(t, path, "DOORDASH_API_KEY=first\n")

	set := &recordingSetter{}
	w := New(path, credstore.DefaultKey, set)
	ready := make(chan struct{}, 16)
	w.reloaded = func(*jwt.Credential) {
		select {
		case ready <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// el watcher puede tardar en registrarse: reescribimos hasta ver el valor
	f := envfile.New(path)
	require.Eventually(t, func() bool {
		_ = f.Replace(credstore.DefaultKey, "second")
		select {
		case <-ready:
		case <-time.After(100 * time.Millisecond):
		}
		return set.token() == "second"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
