package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
)

func newSQLStore(t *testing.T) *sqlStore {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.MigrateSessions(db))
	return NewSQLStore(db)
}

func TestSession_flashes(t *testing.T) {
	s := New(time.Hour)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsAuthenticated())

	s.SetTokens("access", "refresh")
	s.SetTokens("access2", "")
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "refresh", s.Refresh)

	s.AddFlash(LevelSuccess, "Login realizado com sucesso!")
	s.Flush()
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Refresh)
	assert.Equal(t, []Flash{{Level: LevelSuccess, Message: "Login realizado com sucesso!"}}, s.PopFlashes())
	assert.Empty(t, s.PopFlashes())

	id := s.ID
	s.Renew(time.Hour)
	assert.NotEqual(t, id, s.ID)
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sql":    func(t *testing.T) Store { return newSQLStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t)

			_, err := st.Get(ctx, "unknown")
			assert.Equal(t, ErrNotFound, err)

			s := New(time.Hour)
			s.SetTokens("access", "refresh")
			s.AddFlash(LevelInfo, "Olá")
			require.NoError(t, st.Save(ctx, s))

			got, err := st.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, s.ID, got.ID)
			assert.Equal(t, "access", got.Access)
			assert.Equal(t, "refresh", got.Refresh)
			assert.Equal(t, []Flash{{Level: LevelInfo, Message: "Olá"}}, got.Flashes)
			assert.WithinDuration(t, s.Expires, got.Expires, time.Second)

			// saving again replaces the stored copy
			got.PopFlashes()
			got.Flush()
			require.NoError(t, st.Save(ctx, got))
			got, err = st.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Empty(t, got.Flashes)
			assert.False(t, got.IsAuthenticated())

			require.NoError(t, st.Delete(ctx, s.ID))
			_, err = st.Get(ctx, s.ID)
			assert.Equal(t, ErrNotFound, err)
		})
	}
}

func TestStores_expiry(t *testing.T) {
	defer func() { nowFunc = time.Now }()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }

	ctx := context.Background()
	mem := NewMemoryStore()
	sqlSt := newSQLStore(t)

	for _, st := range []Store{mem, sqlSt} {
		s := New(time.Minute)
		require.NoError(t, st.Save(ctx, s))
		_, err := st.Get(ctx, s.ID)
		require.NoError(t, err)
	}

	now = now.Add(2 * time.Minute)
	for _, st := range []Store{mem, sqlSt} {
		s := New(time.Minute)
		require.NoError(t, st.Save(ctx, s))
	}

	n, err := sqlSt.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mem.mu.Lock()
	assert.Len(t, mem.sessions, 2)
	mem.mu.Unlock()
}

func TestNewSQLStore_placeholders(t *testing.T) {
	// sql.Open does not connect
	sqlDB, err := sql.Open("postgres", "")
	require.NoError(t, err)
	defer sqlDB.Close()

	st := NewSQLStore(sqlx.NewDb(sqlDB, "postgres"))
	q, _, err := st.sq.Delete(sessionsTable).Where(sq.Eq{"id": "x"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM sessoes WHERE id = $1", q)
}
