package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// attr is one HTML attribute. Keys are literals in this package; values are
// escaped on render.
type attr struct {
	key, value string
}

// text renders s as escaped character data.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

func textf(format string, args ...any) templ.Component {
	return text(fmt.Sprintf(format, args...))
}

// fragment renders children in order with no wrapping element.
func fragment(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range children {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// el renders <tag attrs...>children</tag>.
func el(tag string, attrs []attr, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(w, tag, attrs); err != nil {
			return err
		}
		if err := fragment(children...).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// void renders an element that has no closing tag, such as <meta>.
func void(tag string, attrs []attr) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return openTag(w, tag, attrs)
	})
}

func openTag(w io.Writer, tag string, attrs []attr) error {
	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	for _, a := range attrs {
		if _, err := io.WriteString(w, " "+a.key+`="`+templ.EscapeString(a.value)+`"`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ">")
	return err
}

func class(name string) []attr {
	return []attr{{"class", name}}
}
