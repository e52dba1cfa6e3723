// Package templates renders the dashboard HTML as templ components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const doctype = "<!DOCTYPE html>"

// Layout wraps body in the HTML document shell.
func Layout(title string, body templ.Component) templ.Component {
	doc := el("html", []attr{{"lang", "en"}},
		el("head", nil,
			void("meta", []attr{{"charset", "utf-8"}}),
			void("meta", []attr{{"name", "viewport"}, {"content", "width=device-width, initial-scale=1"}}),
			void("meta", []attr{{"http-equiv", "refresh"}, {"content", "30"}}),
			el("title", nil, text(title)),
			void("link", []attr{{"rel", "stylesheet"}, {"href", "/static/dashboard.css"}}),
		),
		el("body", nil, body),
	)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, doctype); err != nil {
			return err
		}
		return doc.Render(ctx, w)
	})
}
