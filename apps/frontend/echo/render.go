package echoweb

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	appfs "github.com/ViictorDantas/Prova-Tecnica-Unifip/fs"
)

const pagesDir = "templates/pages"

// pageData is what every page template receives.
type pageData struct {
	AppName   string
	Perfil    *echoapi.MeResponse
	Flashes   []session.Flash
	CSRFField string
	CSRFToken string
	Data      interface{}
}

func (p pageData) IsGerente() bool {
	return p.Perfil != nil && p.Perfil.Tipo == perfil.TipoGerente
}

// renderer executes the pages of templates/pages, each one parsed along with _base.gohtml.
type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	entries, err := fs.ReadDir(appfs.FS, pagesDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading pages dir")
	}

	r := &renderer{templates: make(map[string]*template.Template, len(entries))}
	base := path.Join(pagesDir, "_base.gohtml")
	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || strings.HasPrefix(fname, "_") || path.Ext(fname) != ".gohtml" {
			continue
		}
		tmpl, err := template.ParseFS(appfs.FS, base, path.Join(pagesDir, fname))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing page %s", fname)
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("page %q not found", name)
	}
	return tmpl.Execute(w, data)
}
