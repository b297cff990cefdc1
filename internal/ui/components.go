// Package ui renders goal records as full pages and as the fragments a
// datastar client swaps into an already loaded page. Elements carry stable
// ids (see RowID and TableID) so a patched fragment replaces its previous
// version in place.
package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

type renderer func(application.Fragment) (templ.Component, bool)

// templates maps "<kind>/<fragment>" names to the component that renders
// them. Every kind shares the same four renderers.
var templates = buildTemplates()

func buildTemplates() map[string]renderer {
	byFragment := map[application.FragmentKind]renderer{
		application.FragmentPage: func(f application.Fragment) (templ.Component, bool) {
			if f.Page == nil {
				return nil, false
			}
			return Page(*f.Page), true
		},
		application.FragmentTable: func(f application.Fragment) (templ.Component, bool) {
			if f.Table == nil {
				return nil, false
			}
			return Table(*f.Table), true
		},
		application.FragmentRow: func(f application.Fragment) (templ.Component, bool) {
			if f.Row == nil {
				return nil, false
			}
			return Row(*f.Row), true
		},
		application.FragmentForm: func(f application.Fragment) (templ.Component, bool) {
			if f.Form == nil {
				return nil, false
			}
			return Form(*f.Form), true
		},
	}
	out := make(map[string]renderer, len(domain.Kinds())*len(byFragment))
	for _, kind := range domain.Kinds() {
		for fragment, render := range byFragment {
			out[application.TemplateName(kind, fragment)] = render
		}
	}
	return out
}

// Fragment renders a resolved payload with the component registered under
// its template name. An unknown name or a payload that does not match it
// renders the error fragment.
func Fragment(frag application.Fragment) templ.Component {
	render, ok := templates[frag.Template]
	if !ok {
		return ErrorFragment(500, "Internal Server Error")
	}
	c, ok := render(frag)
	if !ok {
		return ErrorFragment(500, "Internal Server Error")
	}
	return c
}

func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		h.text(title)
		h.raw(` · tokip</title>`,
			`<link rel="icon" href="/favicon.ico">`,
			`<link rel="stylesheet" href="/static/app.css">`,
			`<script type="module" src="`, datastarScript, `"></script>`,
			`</head><body><header class="top"><a href="/">tokip</a></header><main id="page">`)
		h.component(body)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// IndexPage lists every theme with a form to start a new one.
func IndexPage(themes application.TablePayload) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<h1>Themes</h1>`)
		h.component(Table(themes))
		return h.err
	})
	return Layout("Themes", body)
}

func Page(p application.PagePayload) templ.Component {
	rec := p.Record
	spec := rec.Kind.Spec()
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<nav class="breadcrumb"><a href="/">Themes</a>`)
		if p.Parent != nil {
			h.raw(` / `, esc(p.Parent.Kind.Label()), `: <a href="`, esc(RecordURL(p.Parent.Kind, p.Parent.ID)), `">`)
			h.text(p.Parent.Title)
			h.raw(`</a>`)
		}
		h.raw(`</nav>`)

		h.raw(`<h1 id="`, esc(RowID(rec.Kind, rec.ID)), `-heading"><span class="kind">`, esc(spec.Label), `</span> `)
		h.text(rec.Title)
		if spec.HasStatus() {
			statusBadge(h, rec.Status)
		}
		h.raw(`</h1>`)

		for _, c := range p.Collections {
			h.raw(`<section class="collection"><h2>`, esc(pluralLabel(c.Kind)), `</h2>`)
			h.component(Table(c))
			h.raw(`</section>`)
		}
		return h.err
	})
	return Layout(spec.Label+": "+rec.Title, body)
}

// Table lists records of one kind. Scoped tables and the theme table end
// with a create form posting back to the kind's collection route.
func Table(t application.TablePayload) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		spec := t.Kind.Spec()
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="`, esc(TableID(t)), `" class="table">`)
		h.raw(`<table><thead><tr><th>`, esc(spec.TitleLabel), `</th>`)
		if spec.HasStatus() {
			h.raw(`<th>Status</th>`)
		}
		h.raw(`<th></th></tr></thead><tbody>`)
		if len(t.Items) == 0 {
			h.raw(`<tr><td class="empty" colspan="`, strconv.Itoa(columnCount(spec)), `">No `, esc(pluralLabel(t.Kind)), ` yet</td></tr>`)
		}
		for _, rec := range t.Items {
			h.component(Row(rec))
		}
		h.raw(`</tbody></table>`)
		if t.Scoped() || spec.IsRoot() {
			createForm(h, t)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func createForm(h *htmlWriter, t application.TablePayload) {
	spec := t.Kind.Spec()
	action := "/" + string(t.Kind)
	h.raw(`<form class="create" method="post" action="`, esc(action), `" `,
		`data-on:submit__prevent="@post('`, esc(action), `', {contentType: 'form'})">`)
	if t.Scoped() {
		h.raw(`<input type="hidden" name="`, esc(spec.ParentField), `" value="`, strconv.FormatUint(uint64(t.ParentID), 10), `">`)
	}
	h.raw(`<input type="text" name="title" required placeholder="New `, esc(spec.Label), `">`,
		`<button type="submit" class="primary">Add</button></form>`)
}

// Row is a single record as a table row.
func Row(rec domain.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		spec := rec.Kind.Spec()
		url := RecordURL(rec.Kind, rec.ID)
		h := newHTMLWriter(ctx, w)
		h.raw(`<tr id="`, esc(RowID(rec.Kind, rec.ID)), `"><td><a href="`, esc(url), `">`)
		h.text(rec.Title)
		h.raw(`</a></td>`)
		if spec.HasStatus() {
			h.raw(`<td>`)
			statusBadge(h, rec.Status)
			h.raw(`</td>`)
		}
		h.raw(`<td class="actions">`,
			`<button data-on:click="@get('`, esc(url), `/form')">Edit</button> `,
			`<button class="danger" data-on:click="confirm('Delete this `, esc(spec.Label), `?') &amp;&amp; @delete('`, esc(url), `')">Delete</button>`,
			`</td></tr>`)
		return h.err
	})
}

// Form is the inline editor that replaces a row. Status is only offered
// when the payload lists options.
func Form(f application.FormPayload) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rec := f.Record
		spec := rec.Kind.Spec()
		url := RecordURL(rec.Kind, rec.ID)
		h := newHTMLWriter(ctx, w)
		h.raw(`<tr id="`, esc(RowID(rec.Kind, rec.ID)), `"><td colspan="`, strconv.Itoa(columnCount(spec)), `">`,
			`<form class="edit" data-on:submit__prevent="@put('`, esc(url), `', {contentType: 'form'})">`,
			`<input type="text" name="title" required value="`, esc(rec.Title), `">`)
		if len(f.StatusOptions) > 0 {
			h.raw(`<select name="status">`)
			for _, s := range f.StatusOptions {
				selected := ""
				if s == rec.Status {
					selected = " selected"
				}
				h.raw(`<option value="`, esc(string(s)), `"`, selected, `>`, esc(s.Label()), `</option>`)
			}
			h.raw(`</select>`)
		}
		h.raw(` <button type="submit" class="primary">Save</button>`,
			` <button type="button" data-on:click="@get('`, esc(url), `/row')">Cancel</button>`,
			`</form></td></tr>`)
		return h.err
	})
}

// ErrorFragment is shown in place of a fragment that could not be produced.
func ErrorFragment(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="error" class="error" role="alert"><h2>`, strconv.Itoa(status), `</h2><p>`)
		h.text(message)
		h.raw(`</p></div>`)
		return h.err
	})
}

// ErrorPage wraps ErrorFragment for direct navigation.
func ErrorPage(status int, message string) templ.Component {
	return Layout(fmt.Sprintf("%d", status), ErrorFragment(status, message))
}

func statusBadge(h *htmlWriter, s domain.Status) {
	h.raw(` <span class="status status-`, esc(string(s)), `">`, esc(s.Label()), `</span>`)
}

func columnCount(spec domain.KindSpec) int {
	if spec.HasStatus() {
		return 3
	}
	return 2
}

func pluralLabel(kind domain.Kind) string {
	switch kind {
	case domain.KindKeyResult:
		return "Key Results"
	case domain.KindMeasurement:
		return "Measurements"
	}
	return kind.Label() + "s"
}
