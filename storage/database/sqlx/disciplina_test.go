package sqlxrepos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/tests"
)

func TestDisciplinaRepository(t *testing.T) {
	testutil.ResetDB(t, db)
	cursoRepo := sqlxrepos.NewCursoRepository(db)
	repo := sqlxrepos.NewDisciplinaRepository(db)
	ctx := context.Background()

	ads := testutil.CreateCurso(t, cursoRepo, "ADS", "Análise", 500, true)
	si := testutil.CreateCurso(t, cursoRepo, "SI", "Sistemas", 500, true)

	prog := testutil.CreateDisciplina(t, repo, ads.ID, "PROG101", "Programação", 80, true)
	testutil.CreateDisciplina(t, repo, ads.ID, "BD101", "Banco de Dados", 60, true)
	web := testutil.CreateDisciplina(t, repo, si.ID, "WEB101", "Web", 40, false)

	_, err := repo.CreateDisciplina(ctx, disciplina.Disciplina{
		ID: core.NewID(), Codigo: "PROG101", Nome: "Dup", CargaHoraria: 10, CursoID: si.ID, Ativo: true,
	})
	assert.Equal(t, disciplina.ErrCodigoExists, err)

	// the curso must exist
	_, err = repo.CreateDisciplina(ctx, disciplina.Disciplina{
		ID: core.NewID(), Codigo: "X", Nome: "X", CargaHoraria: 10, CursoID: core.NewID(), Ativo: true,
	})
	assert.Error(t, err)

	got, err := repo.GetDisciplina(ctx, prog.ID)
	require.NoError(t, err)
	assert.Equal(t, prog, got)

	web.Ativo = true
	web.CargaHoraria = 45
	_, err = repo.UpdateDisciplina(ctx, web)
	require.NoError(t, err)
	got, err = repo.GetDisciplina(ctx, web.ID)
	require.NoError(t, err)
	assert.Equal(t, web, got)

	exists, err := repo.CodigoExists(ctx, "WEB101", "")
	require.NoError(t, err)
	assert.True(t, exists)

	items, err := repo.QueryDisciplinas(ctx, disciplina.QueryFilter{CursoID: ads.ID}, disciplina.DefaultOrdering...)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BD101", items[0].Codigo)
	assert.Equal(t, "Análise", items[0].CursoNome)
	assert.Equal(t, "ADS", items[0].CursoCodigo)

	items, err = repo.QueryDisciplinas(ctx, disciplina.QueryFilter{Search: "DADOS"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BD101", items[0].Codigo)

	items, err = repo.QueryDisciplinas(ctx, disciplina.QueryFilter{Ativo: core.BoolPtr(true)},
		core.ParseOrdering("-carga_horaria", disciplina.OrderingFields...)...)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"PROG101", "BD101", "WEB101"}, []string{items[0].Codigo, items[1].Codigo, items[2].Codigo})

	require.NoError(t, repo.DeleteDisciplinas(ctx, prog.ID))
	_, err = repo.GetDisciplina(ctx, prog.ID)
	assert.Equal(t, disciplina.ErrNotFound, err)
}
