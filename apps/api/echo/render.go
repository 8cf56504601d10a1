package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core/student"
	appfs "github.com/csnedu/appointments/fs"
)

var webTemplatesDir = "assets/templates/web"

// page is the data every web template is executed with.
type page struct {
	Title    string
	Messages []string // error notices
	Success  string
	LoggedIn bool
	Student  student.Student
	Form     interface{} // submitted form, re-displayed on errors
	Data     interface{}
}

// templateRenderer renders the embedded web pages. Each page is parsed with the `_base` layout.
type templateRenderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer() (*templateRenderer, error) {
	fps, err := fs.Glob(appfs.FS, path.Join(webTemplatesDir, "*.gohtml"))
	if err != nil {
		return nil, err
	}

	base := path.Join(webTemplatesDir, "_base.gohtml")
	r := &templateRenderer{templates: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.ParseFS(appfs.FS, base, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.templates[strings.TrimSuffix(fname, path.Ext(fname))] = tmpl.Option("missingkey=error")
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// page renders the named template. Pending session notices are consumed.
func (r *templateRenderer) page(ctx echo.Context, code int, name string, p page) error {
	if sess, ok := getSession(ctx); ok {
		msgs, success := sess.PopNotices()
		p.Messages = append(msgs, p.Messages...)
		if p.Success == "" {
			p.Success = success
		}
		p.LoggedIn = sess.IsAuthenticated()
	}
	if st, ok := getContextStudent(ctx); ok {
		p.Student = st
	}
	return ctx.Render(code, name, p)
}

// static returns a handler rendering a page without data.
func (r *templateRenderer) static(name, title string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return r.page(ctx, http.StatusOK, name, page{Title: title})
	}
}
