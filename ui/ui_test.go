package ui

import (
	"html/template"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFuncs() template.FuncMap {
	return template.FuncMap{
		"notAvailable": func() string { return "Not Available" },
		"notFound":     func() string { return "Not Found" },
		"packageLabel": func(any) string { return "" },
		"locator":      func(any) string { return "" },
	}
}

func TestParse_AllPages(t *testing.T) {
	pages, err := Parse(stubFuncs())
	require.NoError(t, err)
	require.Len(t, pages, len(Pages))

	for _, page := range Pages {
		tmpl := pages[page]
		require.NotNil(t, tmpl, page)
		assert.NotNil(t, tmpl.Lookup("layout"), page)
		assert.NotNil(t, tmpl.Lookup("content"), page)
	}
}

func TestFS_Stylesheet(t *testing.T) {
	b, err := fs.ReadFile(FS, "static/style.css")
	require.NoError(t, err)
	assert.Contains(t, string(b), ".vuln-tag")
}
