package htmldom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// declarations is an ordered inline style. Property names are lowercased;
// values are kept as the CSS tokenizer produced them.
type declarations []*css.Declaration

// parseStyle parses the content of a style attribute. A declaration list
// the tokenizer rejects yields ok == false and no declarations.
func parseStyle(s string) (declarations, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	decls, err := parser.ParseDeclarations(s)
	if err != nil {
		return nil, false
	}
	var out declarations
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if prop == "" {
			continue
		}
		out.set(prop, strings.TrimSpace(d.Value), d.Important)
	}
	return out, true
}

// get returns the value of prop without its !important flag.
func (d declarations) get(prop string) string {
	for _, decl := range d {
		if decl.Property == prop {
			return decl.Value
		}
	}
	return ""
}

// set overwrites the declaration of prop in place, or appends it.
func (d *declarations) set(prop, val string, important bool) {
	for _, decl := range *d {
		if decl.Property == prop {
			decl.Value = val
			decl.Important = important
			return
		}
	}
	*d = append(*d, &css.Declaration{Property: prop, Value: val, Important: important})
}

func (d declarations) String() string {
	parts := make([]string, len(d))
	for i, decl := range d {
		parts[i] = decl.Property + ":" + decl.Value
		if decl.Important {
			parts[i] += " !important"
		}
	}
	return strings.Join(parts, ";")
}

// hideStyle returns raw with display forced to none. Unparseable input
// keeps its text and gets the override appended.
func hideStyle(raw string) string {
	style, ok := parseStyle(raw)
	if !ok {
		raw = strings.TrimRight(strings.TrimSpace(raw), ";")
		if raw == "" {
			return "display:none !important"
		}
		return raw + ";display:none !important"
	}
	style.set("display", "none", false)
	return style.String()
}
