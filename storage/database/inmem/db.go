// Package inmemdb keeps the domain tables in memory. It backs the "memory" engine and the unit tests.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// DB guards every table with a single lock, so checks spanning tables see a consistent state.
type DB struct {
	mutex sync.RWMutex

	perfis      map[string]*perfil.Perfil
	sequencias  map[int]int
	cursos      map[string]*curso.Curso
	disciplinas map[string]*disciplina.Disciplina

	// cursoLocks survive Reset: a lock may be held while the tables are emptied.
	locksMu    sync.Mutex
	cursoLocks map[string]*cursoLock
}

type cursoLock struct {
	mu   sync.Mutex
	refs int // holders and waiters
}

func Open() *DB {
	return &DB{
		perfis:      make(map[string]*perfil.Perfil),
		sequencias:  make(map[int]int),
		cursos:      make(map[string]*curso.Curso),
		disciplinas: make(map[string]*disciplina.Disciplina),
		cursoLocks:  make(map[string]*cursoLock),
	}
}

// lockCurso blocks until the write lock of the Curso id is free and takes it.
func (db *DB) lockCurso(id string) (unlock func()) {
	db.locksMu.Lock()
	l, ok := db.cursoLocks[id]
	if !ok {
		l = new(cursoLock)
		db.cursoLocks[id] = l
	}
	l.refs++
	db.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		db.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(db.cursoLocks, id)
		}
		db.locksMu.Unlock()
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.perfis = make(map[string]*perfil.Perfil)
	db.sequencias = make(map[int]int)
	db.cursos = make(map[string]*curso.Curso)
	db.disciplinas = make(map[string]*disciplina.Disciplina)
}

func matches(search string, values ...string) bool {
	search = strings.ToLower(search)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

// compare returns -1, 0 or 1. Only string, int and bool values are expected.
func compare(a, b interface{}) int {
	switch a := a.(type) {
	case string:
		return strings.Compare(a, b.(string))
	case int:
		switch b := b.(int); {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	case bool:
		switch b := b.(bool); {
		case !a && b:
			return -1
		case a && !b:
			return 1
		}
	}
	return 0
}

// lessBy builds a sort.SliceStable less func from the orderings. field(i, name) gives the value of a field of element i.
func lessBy(ordering []core.DBOrdering, field func(i int, name string) interface{}) func(i, j int) bool {
	return func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(field(i, ord.Field), field(j, ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}
}
