package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/nopass/pkg/httpx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"login":      parsePage("templates/login.html"),
	"login_code": parsePage("templates/login_code.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/base.html", name))
}

const (
	msgRequired       = "This field is required."
	msgUnknownAccount = "Please enter a correct userid. Note that it is case-sensitive."
	msgInactive       = "This account is inactive."
	msgInvalidCode    = "Unable to log in with provided login code."
)

// form holds submitted values and their validation errors.
type form struct {
	Values         url.Values
	Bound          bool
	fieldErrors    map[string][]string
	NonFieldErrors []string
}

func newForm(values url.Values, bound bool) *form {
	if values == nil {
		values = url.Values{}
	}
	return &form{Values: values, Bound: bound, fieldErrors: map[string][]string{}}
}

func (f *form) Get(field string) string { return f.Values.Get(field) }

func (f *form) FieldErrors(field string) []string { return f.fieldErrors[field] }

func (f *form) AddError(field, msg string) {
	f.fieldErrors[field] = append(f.fieldErrors[field], msg)
}

func (f *form) AddNonFieldError(msg string) {
	f.NonFieldErrors = append(f.NonFieldErrors, msg)
}

// Required records an error for every empty field and reports whether all were set.
func (f *form) Required(fields ...string) bool {
	ok := true
	for _, field := range fields {
		if f.Get(field) == "" {
			f.AddError(field, msgRequired)
			ok = false
		}
	}
	return ok
}

func (f *form) Valid() bool {
	return len(f.fieldErrors) == 0 && len(f.NonFieldErrors) == 0
}

type pageData struct {
	Title    string
	SiteName string
	Form     *form
}

// render writes a page with status 200. Forms are re-rendered on validation
// errors rather than answered with 4xx.
func render(w http.ResponseWriter, page string, data pageData) error {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
