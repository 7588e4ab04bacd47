package thread

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), LockConfig{
		Timeout:  time.Second,
		Retry:    10 * time.Millisecond,
		MaxRetry: 100,
	})
	require.NoError(t, err)
	return s
}

func TestStoreCreateAndLoad(t *testing.T) {
	s := testStore(t)

	created, err := s.Create("Weather talk")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Weather talk", created.Title)
	assert.Empty(t, created.Messages)

	loaded, err := s.Load(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, created.Title, loaded.Title)
}

func TestStoreCreate_EmptyTitleGetsDefault(t *testing.T) {
	s := testStore(t)

	created, err := s.Create("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, created.Title)
}

func TestStoreSaveRoundTrip(t *testing.T) {
	s := testStore(t)

	th, err := s.Create("")
	require.NoError(t, err)

	th.Append(NewMessage(RoleUser, "hello"))
	th.Append(Message{
		Role:      RoleAssistant,
		Content:   "hi",
		Reasoning: "greeting back",
		Timestamp: time.Now(),
	})
	require.NoError(t, s.Save(th))

	loaded, err := s.Load(th.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, RoleUser, loaded.Messages[0].Role)
	assert.Equal(t, "hi", loaded.Messages[1].Content)
	assert.Equal(t, "greeting back", loaded.Messages[1].Reasoning)
}

func TestStoreSave_NoChangeIsIdempotent(t *testing.T) {
	s := testStore(t)

	th, err := s.Create("")
	require.NoError(t, err)
	th.Append(NewMessage(RoleUser, "hello"))
	require.NoError(t, s.Save(th))

	first, err := s.Load(th.ID)
	require.NoError(t, err)
	require.NoError(t, s.Save(first))

	second, err := s.Load(th.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Title, second.Title)
}

func TestStoreSave_RefreshesUpdatedAt(t *testing.T) {
	s := testStore(t)

	th, err := s.Create("")
	require.NoError(t, err)
	before := th.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Save(th))
	assert.True(t, th.UpdatedAt.After(before))
}

func TestStoreSave_MissingThread(t *testing.T) {
	s := testStore(t)

	err := s.Save(&Thread{ID: "01JUNKJUNKJUNKJUNKJUNKJUNK"})
	assert.True(t, errors.Is(err, altronErrors.ErrNotFound))
}

func TestStoreLoad_NotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Load("missing")
	assert.True(t, errors.Is(err, altronErrors.ErrNotFound))
}

func TestStoreLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, LockConfig{Retry: 10 * time.Millisecond, MaxRetry: 10})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644))

	_, err = s.Load("bad")
	assert.True(t, errors.Is(err, altronErrors.ErrCorrupt))
}

func TestStoreRemove(t *testing.T) {
	s := testStore(t)

	th, err := s.Create("")
	require.NoError(t, err)
	require.NoError(t, s.Remove(th.ID))

	_, err = s.Load(th.ID)
	assert.True(t, errors.Is(err, altronErrors.ErrNotFound))

	err = s.Remove(th.ID)
	assert.True(t, errors.Is(err, altronErrors.ErrNotFound))
}

func TestStoreList_SortedByCreation(t *testing.T) {
	s := testStore(t)

	first, err := s.Create("first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.Create("second")
	require.NoError(t, err)

	threads, err := s.List()
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, first.ID, threads[0].ID)
	assert.Equal(t, second.ID, threads[1].ID)
}

func TestStoreList_SkipsCorruptDocuments(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, LockConfig{Retry: 10 * time.Millisecond, MaxRetry: 10})
	require.NoError(t, err)

	_, err = s.Create("good")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644))

	threads, err := s.List()
	require.NoError(t, err)
	assert.Len(t, threads, 1)
}

func TestStoreGuard_SerializesPerID(t *testing.T) {
	s := testStore(t)

	unlock := s.Guard("t1")

	acquired := make(chan struct{})
	go func() {
		inner := s.Guard("t1")
		inner()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second guard acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second guard never acquired after release")
	}
}
