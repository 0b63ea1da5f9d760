package upload

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	err      error
	endpoint backend.UploadEndpoint
	fields   map[string]string
	part     backend.FilePart
	content  string
	repo     *backend.RepoRequest
	calls    int
}

func (f *fakeSubmitter) UploadMultipart(_ context.Context, endpoint backend.UploadEndpoint, fields []backend.FormField, file backend.FilePart) (string, error) {
	f.calls++
	f.endpoint = endpoint
	f.fields = map[string]string{}
	for _, fld := range fields {
		f.fields[fld.Name] = fld.Value
	}
	f.part = file
	b, _ := io.ReadAll(file.Content)
	f.content = string(b)
	if f.err != nil {
		return "", f.err
	}
	return "SBOM uploaded successfully", nil
}

func (f *fakeSubmitter) GenerateFromRepo(_ context.Context, body backend.RepoRequest) (string, error) {
	f.calls++
	f.repo = &body
	if f.err != nil {
		return "", f.err
	}
	return "SBOM generated from repository", nil
}

type countingGuard struct {
	acquired, released int
}

func (g *countingGuard) Acquire() { g.acquired++ }
func (g *countingGuard) Release() { g.released++ }

type invalidator struct{ n int }

func (i *invalidator) Invalidate() { i.n++ }

func sourceForm() *Form {
	return &Form{
		Kind:       KindSource,
		Category:   "Smart Home",
		DeviceName: "Nest Hub",
		FileName:   "firmware.tar.gz",
		File:       strings.NewReader("archive"),
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(f *Form)
		field  string
	}{
		{name: "missing device name", modify: func(f *Form) { f.DeviceName = "  " }, field: "DeviceName"},
		{name: "missing category", modify: func(f *Form) { f.Category = "" }, field: "Category"},
		{name: "missing file", modify: func(f *Form) { f.FileName = ""; f.File = nil }, field: "FileName"},
		{name: "wrong archive", modify: func(f *Form) { f.FileName = "firmware.rar" }, field: "FileName"},
		{name: "sbom must be json", modify: func(f *Form) { f.Kind = KindSBOM; f.FileName = "bom.xml" }, field: "FileName"},
		{name: "repo needs url", modify: func(f *Form) { f.Kind = KindRepo; f.FileName = "" }, field: "RepoURL"},
		{name: "repo url invalid", modify: func(f *Form) { f.Kind = KindRepo; f.RepoURL = "not a url" }, field: "RepoURL"},
		{name: "unknown kind", modify: func(f *Form) { f.Kind = "floppy" }, field: "Kind"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := sourceForm()
			tc.modify(f)
			err := f.Validate()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.NotEmpty(t, ve.Message)
		})
	}

	assert.NoError(t, sourceForm().Validate())
}

func TestSubmit_MissingDeviceNameSendsNothing(t *testing.T) {
	src := &fakeSubmitter{}
	guard := &countingGuard{}
	c := NewCoordinator(src, nil, nil)

	f := sourceForm()
	f.DeviceName = ""
	_, err := c.Submit(context.Background(), f, guard)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please enter a device name.", ve.Message)
	assert.Zero(t, src.calls)
	assert.Zero(t, guard.acquired)
}

func TestSubmit_SourceSuccess(t *testing.T) {
	src := &fakeSubmitter{}
	guard := &countingGuard{}
	cat := &invalidator{}
	c := NewCoordinator(src, cat, nil)

	f := sourceForm()
	res, err := c.Submit(context.Background(), f, guard)
	require.NoError(t, err)

	assert.Equal(t, SuccessRedirect, res.Redirect)
	assert.Equal(t, backend.UploadSource, src.endpoint)
	assert.Equal(t, "file", src.part.Field)
	assert.Equal(t, "archive", src.content)
	assert.Equal(t, map[string]string{
		"category":        "Smart Home",
		"deviceName":      "Nest Hub",
		"manufacturer":    UnknownManufacturer,
		"operatingSystem": UnknownOS,
		"osVersion":       UnknownVersion,
		"kernelVersion":   UnknownKernel,
	}, src.fields)

	assert.Equal(t, 1, guard.acquired)
	assert.Equal(t, 1, guard.released)
	assert.Equal(t, 1, cat.n)
	assert.Equal(t, Form{Kind: KindSource}, *f, "form is cleared")
	assert.False(t, c.InFlight())
}

func TestSubmit_FailurePreservesForm(t *testing.T) {
	src := &fakeSubmitter{err: &backend.ServerError{StatusCode: 400, Body: "Unsupported archive layout"}}
	guard := &countingGuard{}
	cat := &invalidator{}
	c := NewCoordinator(src, cat, nil)

	f := sourceForm()
	f.Manufacturer = "Google"
	_, err := c.Submit(context.Background(), f, guard)
	require.Error(t, err)

	assert.Equal(t, "Unsupported archive layout", backend.UserMessage(err))
	assert.Equal(t, "Nest Hub", f.DeviceName)
	assert.Equal(t, "Google", f.Manufacturer)
	assert.Equal(t, 1, guard.released, "guard released on failure")
	assert.Zero(t, cat.n)
}

func TestSubmit_SBOMDocument(t *testing.T) {
	src := &fakeSubmitter{}
	c := NewCoordinator(src, nil, nil)

	doc := `{"bomFormat":"CycloneDX","specVersion":"1.5","version":1,"components":[{"type":"library","name":"openssl","version":"3.0.1"}]}`
	f := &Form{Kind: KindSBOM, Category: "Fitness Wearables", DeviceName: "Charge 6",
		FileName: "charge6.json", File: strings.NewReader(doc)}
	_, err := c.Submit(context.Background(), f, nil)
	require.NoError(t, err)

	assert.Equal(t, backend.UploadSBOM, src.endpoint)
	assert.Equal(t, "sbomFile", src.part.Field)
	assert.Equal(t, doc, src.content)
}

func TestSubmit_Repo(t *testing.T) {
	src := &fakeSubmitter{}
	c := NewCoordinator(src, nil, nil)

	f := &Form{Kind: KindRepo, Category: "Smart Home", DeviceName: "Hub", RepoURL: "https://github.com/example/hub",
		OperatingSystem: "Android 15"}
	_, err := c.Submit(context.Background(), f, nil)
	require.NoError(t, err)
	require.NotNil(t, src.repo)
	assert.Equal(t, "https://github.com/example/hub", src.repo.RepoURL)
	assert.Equal(t, "Android 15", src.repo.OperatingSystem)
	assert.Equal(t, UnknownKernel, src.repo.KernelVersion)
}

func TestCheckSBOM(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "spdx", doc: `{"spdxVersion":"SPDX-2.3","name":"x"}`},
		{name: "cyclonedx", doc: `{"bomFormat":"CycloneDX","specVersion":"1.4"}`},
		{name: "not json", doc: `<bom/>`, wantErr: true},
		{name: "other json", doc: `{"hello":"world"}`, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CheckSBOM(strings.NewReader(tc.doc))
			if tc.wantErr {
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindSource, k)

	k, err = ParseKind("repo")
	require.NoError(t, err)
	assert.Equal(t, KindRepo, k)

	_, err = ParseKind("ftp")
	assert.Error(t, err)
}

func TestHasArchiveExtension(t *testing.T) {
	for _, name := range []string{"a.zip", "a.TAR", "a.tar.gz", "a.tgz"} {
		assert.True(t, HasArchiveExtension(name), name)
	}
	assert.False(t, HasArchiveExtension("a.gz"))
}
