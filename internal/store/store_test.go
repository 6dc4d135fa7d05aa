package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/camwork/internal/motion"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "camwork.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTemp(t)

	for _, table := range []string{"clips", "keyframes", "_migrations"} {
		var name string
		err := s.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	var journalMode string
	require.NoError(t, s.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camwork.db")

	first, err := Open(path, nil)
	require.NoError(t, err)
	first.Close()

	second, err := Open(path, nil)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveAndListClip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	p := motion.TransformParams{StartScale: 1, EndScale: 1.25, PositionX: 0.4, PositionY: 0.5, Rotation: 1.5, Easing: motion.EasingEaseInOut}
	keyframes := p.Keyframes("clip-1", 3000)
	require.NoError(t, s.SaveClip(ctx, "tl", "clip-1", "emotion_excited_high", keyframes))

	got, rule, err := s.ListClip(ctx, "clip-1")
	require.NoError(t, err)
	assert.Equal(t, "emotion_excited_high", rule)
	assert.Equal(t, keyframes, got)
}

func TestSaveClipReplaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	withRotation := motion.TransformParams{StartScale: 1, EndScale: 1.1, PositionX: 0.5, PositionY: 0.5, Rotation: 2, Easing: motion.EasingLinear}
	require.NoError(t, s.SaveClip(ctx, "tl", "c", "first", withRotation.Keyframes("c", 1000)))

	plain := motion.TransformParams{StartScale: 1.08, EndScale: 1, PositionX: 0.5, PositionY: 0.5, Easing: motion.EasingEaseOut}
	require.NoError(t, s.SaveClip(ctx, "tl", "c", "second", plain.Keyframes("c", 2000)))

	got, rule, err := s.ListClip(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "second", rule)
	require.Len(t, got, 4)
	assert.Equal(t, 1.08, got[0].Value)
	assert.Equal(t, 2000, got[1].TimeMs)
}

func TestListClipMissing(t *testing.T) {
	s := openTemp(t)

	got, rule, err := s.ListClip(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rule)
}

func TestListTimeline(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	p := motion.TransformParams{StartScale: 1, EndScale: 1, PositionX: 0.5, PositionY: 0.5, Easing: motion.EasingHold}

	require.NoError(t, s.SaveClip(ctx, "tl-a", "b", "catch_all", p.Keyframes("b", 1000)))
	require.NoError(t, s.SaveClip(ctx, "tl-a", "a", "catch_all", p.Keyframes("a", 1000)))
	require.NoError(t, s.SaveClip(ctx, "tl-b", "z", "catch_all", p.Keyframes("z", 1000)))

	ids, err := s.ListTimeline(ctx, "tl-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSaveTimeline(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	p := motion.TransformParams{StartScale: 1, EndScale: 1.1, PositionX: 0.5, PositionY: 0.5, Easing: motion.EasingEaseOut}

	clips := []Clip{
		{ID: "s1", RuleApplied: "emotion_excited_high", Keyframes: p.Keyframes("s1", 1000)},
		{ID: "s2", RuleApplied: "catch_all", Keyframes: p.Keyframes("s2", 2000)},
	}
	require.NoError(t, s.SaveTimeline(ctx, "tl", clips))

	ids, err := s.ListTimeline(ctx, "tl")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	got, rule, err := s.ListClip(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "catch_all", rule)
	assert.Equal(t, clips[1].Keyframes, got)
}

func TestSaveTimelineFailureKeepsPreviousState(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	p := motion.TransformParams{StartScale: 1, EndScale: 1.1, PositionX: 0.5, PositionY: 0.5, Easing: motion.EasingLinear}

	require.NoError(t, s.SaveClip(ctx, "tl", "s1", "old", p.Keyframes("s1", 500)))

	broken := p.Keyframes("s2", 1000)
	broken[0].Value = make(chan int)
	err := s.SaveTimeline(ctx, "tl", []Clip{
		{ID: "s1", RuleApplied: "new", Keyframes: p.Keyframes("s1", 1000)},
		{ID: "s2", RuleApplied: "catch_all", Keyframes: broken},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s2")

	ids, err := s.ListTimeline(ctx, "tl")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	got, rule, err := s.ListClip(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "old", rule)
	require.NotEmpty(t, got)
	assert.Equal(t, 500, got[len(got)-1].TimeMs)
}

func TestSaveTimelineFailureOnEmptyStore(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	p := motion.TransformParams{StartScale: 1, EndScale: 1, PositionX: 0.5, PositionY: 0.5, Easing: motion.EasingHold}

	broken := p.Keyframes("b", 1000)
	broken[len(broken)-1].Value = make(chan int)
	err := s.SaveTimeline(ctx, "tl", []Clip{
		{ID: "a", RuleApplied: "catch_all", Keyframes: p.Keyframes("a", 1000)},
		{ID: "b", RuleApplied: "catch_all", Keyframes: broken},
	})
	require.Error(t, err)

	ids, err := s.ListTimeline(ctx, "tl")
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, _, err := s.ListClip(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}
