package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient_SearchDevices_SendsAllParameters(t *testing.T) {
	var got map[string][]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/devices/search", r.URL.Path)
		got = r.URL.Query()
		_ = json.NewEncoder(w).Encode([]model.Device{{DeviceID: 1, Manufacturer: "Fitbit"}})
	}))

	devices, err := c.SearchDevices(context.Background(), model.SearchFilter{Manufacturer: "Fitbit"})
	require.NoError(t, err)
	require.Len(t, devices, 1)

	assert.Equal(t, []string{"Fitbit"}, got["manufacturer"])
	assert.Equal(t, []string{""}, got["query"])
	assert.Equal(t, []string{""}, got["operatingSystem"])
	assert.Equal(t, []string{""}, got["category"])
}

func TestClient_CompareDevices(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/devices/compare", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("device1Id"))
		assert.Equal(t, "2", r.URL.Query().Get("device2Id"))
		_, _ = io.WriteString(w, `{"device1":{"name":"A"},"device2":{"name":"B"}}`)
	}))

	cmp, err := c.CompareDevices(context.Background(), "1", "2")
	require.NoError(t, err)
	assert.Equal(t, "A", cmp.Device1.Name)
	assert.Equal(t, "B", cmp.Device2.Name)
}

func TestClient_ServerErrorKeepsBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "One or both devices not found", http.StatusNotFound)
	}))

	_, err := c.CompareDevices(context.Background(), "1", "99")
	require.Error(t, err)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "One or both devices not found", UserMessage(err))
	assert.True(t, IsNotFound(err))
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))

	_, err := c.ListDevices(context.Background())
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestClient_DeleteDevice(t *testing.T) {
	var method, path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.DeleteDevice(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/sboms/42", path)
}

func TestClient_UploadMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sboms/upload-source", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Smart Home", r.FormValue("category"))
		assert.Equal(t, "Unknown OS", r.FormValue("operatingSystem"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "fw.zip", hdr.Filename)
		assert.Equal(t, "PK", string(b))
		_, _ = io.WriteString(w, "SBOM generated")
	}))

	text, err := c.UploadMultipart(context.Background(), UploadSource,
		[]FormField{{Name: "category", Value: "Smart Home"}, {Name: "operatingSystem", Value: "Unknown OS"}},
		FilePart{Field: "file", Filename: "fw.zip", Content: strings.NewReader("PK")})
	require.NoError(t, err)
	assert.Equal(t, "SBOM generated", text)
}

func TestClient_GenerateFromRepo(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body RepoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://github.com/example/fw", body.RepoURL)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "No supported dependency file found in repository.")
	}))

	_, err := c.GenerateFromRepo(context.Background(), RepoRequest{RepoURL: "https://github.com/example/fw"})
	require.Error(t, err)
	assert.Equal(t, "No supported dependency file found in repository.", UserMessage(err))
}

func TestClient_DownloadURLs(t *testing.T) {
	c := NewClient("https://api.example.com/")
	assert.Equal(t, "https://api.example.com/api/devices/download/7?format=spdx", c.DownloadURL("7", model.FormatSPDX))
	assert.Equal(t, "https://api.example.com/api/devices/download/archive/3?format=cyclonedx",
		c.ArchiveDownloadURL("3", model.FormatCycloneDX))
}

func TestClient_Fetch_UsesContentDisposition(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="pixel-watch-cyclonedx.json"`)
		_, _ = io.WriteString(w, `{"bomFormat":"CycloneDX"}`)
	}))

	dl, err := c.Fetch(context.Background(), c.DownloadURL("1", model.FormatCycloneDX))
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, "pixel-watch-cyclonedx.json", dl.Filename)
}

func TestClient_WaitUntilReady(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, `[]`)
	}))

	require.NoError(t, c.WaitUntilReady(context.Background(), time.Second))
	assert.Equal(t, 1, calls)
}

func TestClient_WaitUntilReady_GivesUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient("http://127.0.0.1:1")
	assert.Error(t, c.WaitUntilReady(ctx, time.Second))
}
