package codexconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache stops its janitor from a finalizer, not on demand.
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

func newTestStore(t *testing.T, content string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codex", FileConfig)
	if content != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return NewStore(WithPath(path)), path
}

func TestStore_ReadMissingFile(t *testing.T) {
	store, _ := newTestStore(t, "")

	v, ok, err := store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, v)

	p, ok, err := store.ReadPersonality()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, p)
}

func TestStore_ReadValues(t *testing.T) {
	store, _ := newTestStore(t, `
personality = "pragmatic"
model = "o3"

[features]
collab = true
steer = false
`)

	v, ok, err := store.ReadFeature(FeatureCollab)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v)

	v, ok, err = store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, v)

	_, ok, err = store.ReadFeature(FeatureApps)
	require.NoError(t, err)
	assert.False(t, ok)

	p, ok, err := store.ReadPersonality()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pragmatic", p)
}

func TestStore_ReadWrongTypes(t *testing.T) {
	store, _ := newTestStore(t, "personality = 3\n[features]\nsteer = \"yes\"\n")

	_, _, err := store.ReadFeature(FeatureSteer)
	assert.Error(t, err)

	_, _, err = store.ReadPersonality()
	assert.Error(t, err)
}

func TestStore_ReadInvalidFile(t *testing.T) {
	store, _ := newTestStore(t, "this is = = not toml")

	_, _, err := store.ReadFeature(FeatureSteer)
	assert.Error(t, err)
}

func TestStore_WriteCreatesFileAndDirectory(t *testing.T) {
	store, path := newTestStore(t, "")

	require.NoError(t, store.WriteFeature(FeatureUnifiedExec, true))
	require.NoError(t, store.WritePersonality("friendly"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "personality = \"friendly\"\n\n[features]\nunified_exec = true\n", string(data))

	v, ok, err := store.ReadFeature(FeatureUnifiedExec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestStore_WritePreservesUnmanagedContent(t *testing.T) {
	original := "# keep me\nmodel = \"o3\"\n\n[features]\nsteer = true\nweb_search = true\n\n[mcp_servers.docs]\ncommand = \"docs\"\n"
	store, path := newTestStore(t, original)

	require.NoError(t, store.WriteFeature(FeatureSteer, false))
	require.NoError(t, store.WriteFeature(FeatureApps, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# keep me")
	assert.Contains(t, content, "web_search = true")
	assert.Contains(t, content, "[mcp_servers.docs]")
	assert.Contains(t, content, "steer = false")
	assert.Contains(t, content, "apps = true")
}

func TestStore_WriteRejectsInvalidResult(t *testing.T) {
	// The unterminated header is not recognised, so the edit appends a
	// table and the result still fails to parse.
	original := "[features\nsteer = true\n"
	store, path := newTestStore(t, original)

	err := store.WriteFeature(FeatureSteer, true)
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, string(data), "invalid edits never reach disk")
}

func TestStore_WriteFeatureDottedKeys(t *testing.T) {
	store, path := newTestStore(t, "model = \"o3\"\nfeatures.steer = false\nfeatures.collab = true\n")

	require.NoError(t, store.WriteFeature(FeatureSteer, true))
	require.NoError(t, store.WriteFeature(FeatureApps, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model = \"o3\"\nfeatures.steer = true\nfeatures.collab = true\nfeatures.apps = true\n", string(data))

	for _, name := range []string{FeatureSteer, FeatureCollab, FeatureApps} {
		v, ok, err := store.ReadFeature(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
		assert.True(t, v, name)
	}
}

func TestStore_SeesExternalEdit(t *testing.T) {
	store, path := newTestStore(t, "[features]\nsteer = true\n")

	v, _, err := store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, os.WriteFile(path, []byte("[features]\nsteer = false\n"), 0o644))
	v, ok, err := store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, v)

	require.NoError(t, os.Remove(path))
	_, ok, err = store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	assert.False(t, ok, "deleted file reads as empty")
}

func TestStore_CacheReusedWhileUnchanged(t *testing.T) {
	store, path := newTestStore(t, "[features]\nsteer = true\n")

	_, _, err := store.ReadFeature(FeatureSteer)
	require.NoError(t, err)
	cached, found := store.cache.Get(path)
	require.True(t, found)

	_, _, err = store.ReadFeature(FeatureCollab)
	require.NoError(t, err)
	again, found := store.cache.Get(path)
	require.True(t, found)
	assert.Equal(t, cached, again)

	store.Invalidate()
	_, found = store.cache.Get(path)
	assert.False(t, found)
}

func TestStore_FollowsLookup(t *testing.T) {
	homeA := t.TempDir()
	homeB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(homeA, FileConfig), []byte("personality = \"pragmatic\"\n"), 0o644))

	current := homeA
	var mu sync.Mutex
	store := NewStore(WithLookup(func(key string) (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if key == EnvCodexHome {
			return current, true
		}
		return "", false
	}))

	p, ok, err := store.ReadPersonality()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pragmatic", p)

	mu.Lock()
	current = homeB
	mu.Unlock()

	_, ok, err = store.ReadPersonality()
	require.NoError(t, err)
	assert.False(t, ok, "new CODEX_HOME has no config yet")
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store, _ := newTestStore(t, "")

	var wg sync.WaitGroup
	for _, name := range ManagedFeatures() {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, store.WriteFeature(name, true))
		}(name)
	}
	wg.Wait()

	store.Invalidate()
	for _, name := range ManagedFeatures() {
		v, ok, err := store.ReadFeature(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
		assert.True(t, v, name)
	}
}

func TestCodexHome(t *testing.T) {
	lookup := func(v string) LookupFunc {
		return func(key string) (string, bool) {
			if key == EnvCodexHome {
				return v, true
			}
			return "", false
		}
	}

	home, err := CodexHome(lookup("  /srv/codex  "))
	require.NoError(t, err)
	assert.Equal(t, "/srv/codex", home)

	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	home, err = CodexHome(lookup("   "))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, DirCodex), home)

	path, err := ConfigPath(lookup("~/alt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, "alt", FileConfig), path)
}

func TestWatch_ReportsExternalWrite(t *testing.T) {
	_, path := newTestStore(t, "[features]\nsteer = true\n")
	store := NewStore(WithPath(path), WithCacheTTL(100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 4)
	require.NoError(t, store.WatchAndInvalidate(ctx, func(p string) {
		select {
		case changed <- p:
		default:
		}
	}))

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[features]\nsteer = false\n"), 0o644))

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	require.Eventually(t, func() bool {
		v, ok, err := store.ReadFeature(FeatureSteer)
		return err == nil && ok && !v
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	// Let the watcher goroutines observe cancellation before goleak runs.
	time.Sleep(50 * time.Millisecond)
}

func TestPollFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileConfig)
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		pollFile(ctx, path, ch, 10*time.Millisecond)
		close(done)
	}()

	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	select {
	case p := <-ch:
		assert.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not notice the new file")
	}

	cancel()
	<-done
}
