// Package ui embeds the dashboard page templates and stylesheet.
package ui

import (
	"embed"
	"fmt"
	"html/template"
)

// FS holds the templates and static assets.
//
//go:embed templates static
var FS embed.FS

// Page templates rendered inside templates/layout.html
const (
	PageDeviceList    = "device-list.html"
	PageDeviceDetails = "device-details.html"
	PageCompare       = "compare.html"
	PageAnalytics     = "analytics.html"
	PageUpload        = "upload.html"
	PageArchive       = "archive.html"
)

// Pages lists every page template
var Pages = []string{
	PageDeviceList,
	PageDeviceDetails,
	PageCompare,
	PageAnalytics,
	PageUpload,
	PageArchive,
}

// Parse builds one template set per page, each combining the layout with the
// page's "content" block
func Parse(funcs template.FuncMap) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(FS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		pages[page] = t
	}
	return pages, nil
}
