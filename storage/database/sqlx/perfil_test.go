package sqlxrepos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/tests"
)

func TestPerfilRepository_NextCodigoSeq(t *testing.T) {
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewPerfilRepository(db)
	ctx := context.Background()

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs = make(map[int]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.NextCodigoSeq(ctx, 2025)
			assert.NoError(t, err)
			mu.Lock()
			seqs[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seqs, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seqs[i], "missing sequence %d", i)
	}

	seq, err := repo.NextCodigoSeq(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestPerfilRepository_CRUD(t *testing.T) {
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewPerfilRepository(db)
	ctx := context.Background()

	ana := testutil.CreatePerfil(t, repo, "Ana", perfil.TipoGerente, "ana@example.com", "Tr0ub4dor&3x", true)

	got, err := repo.GetPerfil(ctx, perfil.GetFilter{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)
	assert.Equal(t, ana.Codigo, got.Codigo)
	assert.True(t, got.Ativo)
	assert.True(t, got.LastLogin.IsZero())
	assert.NoError(t, got.CheckPassword("Tr0ub4dor&3x"))
	assert.WithinDuration(t, ana.DateJoined, got.DateJoined, time.Second)

	_, err = repo.GetPerfil(ctx, perfil.GetFilter{ID: core.NewID()})
	assert.Equal(t, perfil.ErrNotFound, err)

	got.Nome = "Ana Maria"
	got.LastLogin = time.Now().UTC()
	got.Ativo = false
	updated, err := repo.UpdatePerfil(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Nome)
	assert.False(t, updated.Ativo)
	assert.WithinDuration(t, got.LastLogin, updated.LastLogin, time.Second)

	exists, err := repo.EmailExists(ctx, "ana@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.EmailExists(ctx, "ana@example.com", ana.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.DeletePerfis(ctx, ana.ID))
	_, err = repo.GetPerfil(ctx, perfil.GetFilter{ID: ana.ID})
	assert.Equal(t, perfil.ErrNotFound, err)
}

func TestPerfilRepository_UniqueIndexes(t *testing.T) {
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewPerfilRepository(db)
	ctx := context.Background()

	ana := testutil.CreatePerfil(t, repo, "Ana", perfil.TipoGerente, "ana@example.com", "", true)

	dup := ana
	dup.ID = core.NewID()
	dup.Email = "outra@example.com"
	_, err := repo.CreatePerfil(ctx, dup)
	assert.Equal(t, perfil.ErrCodigoExists, err)

	// inactive perfis may share a code
	dup.Ativo = false
	_, err = repo.CreatePerfil(ctx, dup)
	require.NoError(t, err)
	exists, err := repo.CodigoExists(ctx, ana.Codigo, ana.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = repo.CodigoExists(ctx, ana.Codigo, "")
	require.NoError(t, err)
	assert.True(t, exists)

	// but only one of them may be active
	dup.Ativo = true
	_, err = repo.UpdatePerfil(ctx, dup)
	assert.Equal(t, perfil.ErrCodigoExists, err)

	other := ana
	other.ID = core.NewID()
	other.Codigo = "MAT.1999.1"
	_, err = repo.CreatePerfil(ctx, other)
	assert.Equal(t, perfil.ErrEmailExists, err)
}

func TestPerfilRepository_QueryPerfis(t *testing.T) {
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewPerfilRepository(db)
	ctx := context.Background()

	testutil.CreatePerfil(t, repo, "Carla", perfil.TipoProfessor, "carla@example.com", "", true)
	testutil.CreatePerfil(t, repo, "Ana", perfil.TipoGerente, "ana@example.com", "", true)
	testutil.CreatePerfil(t, repo, "Bruno", perfil.TipoProfessor, "bruno@unifip.edu", "", false)

	emails := func(perfis []perfil.Perfil) []string {
		list := make([]string, 0, len(perfis))
		for _, p := range perfis {
			list = append(list, p.Email)
		}
		return list
	}

	tests := []struct {
		name     string
		filter   perfil.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{
			name:     "all",
			ordering: perfil.DefaultOrdering,
			want:     []string{"ana@example.com", "bruno@unifip.edu", "carla@example.com"},
		},
		{
			name:     "search is case insensitive",
			filter:   perfil.QueryFilter{Search: "EXAMPLE"},
			ordering: perfil.DefaultOrdering,
			want:     []string{"ana@example.com", "carla@example.com"},
		},
		{
			name:     "tipo",
			filter:   perfil.QueryFilter{Tipo: perfil.TipoProfessor},
			ordering: core.ParseOrdering("-nome", perfil.OrderingFields...),
			want:     []string{"carla@example.com", "bruno@unifip.edu"},
		},
		{
			name:     "ativo",
			filter:   perfil.QueryFilter{Ativo: core.BoolPtr(false)},
			ordering: perfil.DefaultOrdering,
			want:     []string{"bruno@unifip.edu"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perfis, err := repo.QueryPerfis(ctx, tt.filter, tt.ordering...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, emails(perfis))
		})
	}
}
