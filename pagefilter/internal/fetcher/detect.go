package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Minimums for static HTML to be filtered without a browser.
const (
	minBody      = 256
	minTextRatio = 0.10
	minText      = 200
)

var shellMarkers = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	"<noscript>you need to enable javascript",
	"<noscript>enable javascript",
}

// IsSufficient reports whether static HTML has enough visible text to be
// the page a reader sees, rather than a script-rendered shell.
func IsSufficient(body []byte) bool {
	if len(body) < minBody {
		return false
	}

	text, markup := textMarkupRatio(body)
	if text+markup == 0 || text < minText {
		return false
	}
	if float64(text)/float64(text+markup) < minTextRatio {
		return false
	}

	lower := bytes.ToLower(body)
	for _, m := range shellMarkers {
		if bytes.Contains(lower, []byte(m)) {
			return false
		}
	}
	return true
}

// textMarkupRatio counts non-whitespace visible text bytes against the
// bytes of everything else (tags, comments, script and style bodies).
func textMarkupRatio(body []byte) (text, markup int) {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return text, markup
		case html.TextToken:
			raw := z.Raw()
			if skip > 0 {
				markup += len(raw)
				continue
			}
			text += len(strings.Join(strings.Fields(string(raw)), ""))
		case html.StartTagToken:
			markup += len(z.Raw())
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			markup += len(z.Raw())
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		default:
			markup += len(z.Raw())
		}
	}
}

func isRawText(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style"
}
