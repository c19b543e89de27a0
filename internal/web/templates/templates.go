// Package templates renders the HTML pages of the web UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// ErrorAlert renders an error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage wraps ErrorAlert in a full document.
func ErrorPage(title, message, action, code string) templ.Component {
	return page(title, ErrorAlert(message, action, code))
}

// PreviewData is everything the listing preview shows.
type PreviewData struct {
	PlatformName string
	Language     string
	SKU          string
	Title        string
	Description  string
	Price        string
	Currency     string
	Stock        int
	Images       []string
	Fields       map[string]string
	Warnings     []string
	Errors       []string
	Fees         string
}

// Preview renders how a transformed listing will appear on a marketplace.
func Preview(d PreviewData) templ.Component {
	return page(d.PlatformName+" preview: "+d.SKU, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		status, class := "Ready to export", "status-ok"
		if len(d.Errors) > 0 {
			status, class = "Blocked", "status-blocked"
		}
		fmt.Fprintf(&b, `<header><h1>%s</h1><span class="badge %s">%s</span></header>`,
			templ.EscapeString(d.PlatformName), class, status)

		fmt.Fprintf(&b, `<section class="listing" lang="%s">`, templ.EscapeString(d.Language))
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(d.Title))
		fmt.Fprintf(&b, `<p class="price">%s %s</p>`, templ.EscapeString(d.Price), templ.EscapeString(d.Currency))
		fmt.Fprintf(&b, `<p class="stock">Stock: %d</p>`, d.Stock)
		if d.Fees != "" {
			fmt.Fprintf(&b, `<p class="fees">Estimated fees: %s</p>`, templ.EscapeString(d.Fees))
		}
		fmt.Fprintf(&b, `<pre class="description">%s</pre>`, templ.EscapeString(d.Description))

		if len(d.Images) > 0 {
			b.WriteString(`<div class="gallery">`)
			for i, src := range d.Images {
				fmt.Fprintf(&b, `<img src="%s" alt="%s image %d" loading="lazy">`,
					templ.EscapeString(string(templ.URL(src))), templ.EscapeString(d.SKU), i+1)
			}
			b.WriteString(`</div>`)
		}
		b.WriteString(`</section>`)

		writeList(&b, "Errors", "errors", d.Errors)
		writeList(&b, "Warnings", "warnings", d.Warnings)

		if len(d.Fields) > 0 {
			keys := make([]string, 0, len(d.Fields))
			for k := range d.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			b.WriteString(`<table class="fields"><tbody>`)
			for _, k := range keys {
				fmt.Fprintf(&b, `<tr><th>%s</th><td>%s</td></tr>`,
					templ.EscapeString(k), templ.EscapeString(d.Fields[k]))
			}
			b.WriteString(`</tbody></table>`)
		}

		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func writeList(b *strings.Builder, title, class string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, `<section class="%s"><h3>%s</h3><ul>`, class, title)
	for _, item := range items {
		fmt.Fprintf(b, `<li>%s</li>`, templ.EscapeString(item))
	}
	b.WriteString(`</ul></section>`)
}

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head><body><main>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
