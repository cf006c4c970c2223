// Package assets holds the stylesheets and client script served with every
// form, and loads stylesheets for inline injection.
package assets

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed *.css *.js
var FS embed.FS

// DefaultStylesheets are injected with every displayed form, in order.
var DefaultStylesheets = []string{"widgets.css", "formkit.css"}

// Stylesheet is a loaded stylesheet ready for a <style> element.
type Stylesheet struct {
	Name string
	CSS  template.CSS
}

// Load reads the named stylesheets from fsys.  A missing or unreadable
// sheet is logged and skipped.
func Load(logger interface{ Printf(string, ...interface{}) }, fsys fs.FS, names ...string) []Stylesheet {
	sheets := make([]Stylesheet, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			logger.Printf("Warning: %s not found. Custom styles will not be applied.", name)
			continue
		}
		sheets = append(sheets, Stylesheet{Name: name, CSS: template.CSS(data)})
	}
	return sheets
}
