package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/config"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
)

// fakeBackend answers the REST routes the dashboard uses and records calls
type fakeBackend struct {
	mu            sync.Mutex
	devices       []model.Device
	deletes       []string
	compareCalls  int
	repoUploads   int
	failAnalytics bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/devices/all", r.URL.Path == "/api/devices/search":
		_ = json.NewEncoder(w).Encode(f.devices)
	case r.URL.Path == "/api/devices/list":
		opts := make([]model.DeviceOption, 0, len(f.devices))
		for _, d := range f.devices {
			opts = append(opts, model.DeviceOption{ID: d.DeviceID, Name: d.Name})
		}
		_ = json.NewEncoder(w).Encode(opts)
	case r.URL.Path == "/api/devices/compare":
		f.compareCalls++
		if r.URL.Query().Get("device2Id") == "404" {
			http.Error(w, "One or both devices not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(model.DeviceComparison{Device1: &f.devices[0], Device2: &f.devices[1]})
	case r.URL.Path == "/api/devices/archives/all":
		_ = json.NewEncoder(w).Encode([]model.ArchiveGroup{{
			DeviceName: "Sense 2",
			Archives: []model.ArchiveEntry{
				{ArchiveID: 7, Name: "sense2-v1.json"},
				{ArchiveID: 8, Name: "sense2-v2.json", IsLatest: true},
			},
		}})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/sboms/"):
		f.deletes = append(f.deletes, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/sboms/from-repo":
		f.repoUploads++
		_, _ = io.WriteString(w, "SBOM generated from repository")
	case strings.HasPrefix(r.URL.Path, "/api/analytics/"):
		if f.failAnalytics {
			http.Error(w, "analytics offline", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "[]")
	case strings.HasSuffix(r.URL.Path, "/details"):
		_ = json.NewEncoder(w).Encode(f.devices[0])
	default:
		http.NotFound(w, r)
	}
}

func testDevices() []model.Device {
	return []model.Device{
		{
			DeviceID: 1, SbomID: 10, Name: "Sense 2", Manufacturer: "Fitbit", Category: "Fitness Wearables",
			SoftwarePackages: []model.SoftwarePackage{{
				Name: "zlib", Version: "1.2.13", SupplierName: "zlib project",
				Vulnerabilities: []model.Vulnerability{{CveID: "CVE-2023-45853", SeverityLevel: model.SeverityCritical}},
			}},
		},
		{
			DeviceID: 2, SbomID: 20, Name: "Pixel Watch", Manufacturer: "Google", Category: "Fitness Wearables",
			SoftwarePackages: []model.SoftwarePackage{{Name: "zlib", Version: "1.3"}},
		},
	}
}

type harness struct {
	t      *testing.T
	app    *fiber.App
	fake   *fakeBackend
	cookie *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := &fakeBackend{devices: testDevices()}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.SessionTTL = time.Minute
	app, err := newApp(backend.NewClient(srv.URL), cfg, zap.NewNop())
	require.NoError(t, err)
	return &harness{t: t, app: app, fake: fake}
}

// do sends req with the session cookie and keeps any cookie the app sets
func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			h.cookie = c
		}
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (h *harness) get(target string) (*http.Response, string) {
	return h.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (h *harness) post(target string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func TestRoot_RedirectsToDeviceList(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.get("/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/device-list", resp.Header.Get("Location"))
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
}

func TestDeviceList_NewestFirstAndSessionCookie(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/device-list")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, h.cookie)

	newer, older := strings.Index(body, "Pixel Watch"), strings.Index(body, "Sense 2")
	require.NotEqual(t, -1, newer)
	require.NotEqual(t, -1, older)
	assert.Less(t, newer, older)
}

func TestDeviceList_ServesStylesheet(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".vuln-tag")
}

func TestDeviceDelete_DeclinedSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.get("/device-list")

	resp, _ := h.post("/device-list/delete/1", url.Values{"confirm": {"no"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, h.fake.deletes)

	_, body := h.get("/device-list")
	assert.Contains(t, body, "Sense 2")
}

func TestDeviceDelete_ConfirmedRemovesRow(t *testing.T) {
	h := newHarness(t)
	h.get("/device-list")

	resp, _ := h.post("/device-list/delete/1", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, []string{"/api/sboms/1"}, h.fake.deletes)

	_, body := h.get("/device-list")
	assert.Contains(t, body, "SBOM deleted.")
	assert.NotContains(t, body, "Sense 2")
}

func TestDeviceDetails_ToggleKeepsDevice(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/device-details?device_id=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Fitbit")

	resp, body = h.post("/device-details/toggle/info", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<strong>Manufacturer:</strong> Fitbit")
	assert.Contains(t, body, "Device Information")

	resp, _ = h.post("/device-details/toggle/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompare_ToggleRendersWithoutRefetch(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post("/compare-sboms", url.Values{"device1Id": {"1"}, "device2Id": {"2"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Show Vulnerabilities")
	assert.NotContains(t, body, "CVE-2023-45853")
	assert.Contains(t, body, "1 version changes")

	resp, body = h.post("/compare-sboms/toggle", url.Values{
		"side": {"1"}, "index": {"0"}, "which": {"vulnerabilities"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hide Vulnerabilities")
	assert.Contains(t, body, "CVE-2023-45853")
	assert.Equal(t, 1, h.fake.compareCalls)
}

func TestCompare_ToggleWithoutOfferRejected(t *testing.T) {
	h := newHarness(t)
	h.post("/compare-sboms", url.Values{"device1Id": {"1"}, "device2Id": {"2"}})

	// the right-hand zlib has no supplier
	resp, body := h.post("/compare-sboms/toggle", url.Values{
		"side": {"2"}, "index": {"0"}, "which": {"supplier"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotContains(t, body, "Hide Supplier")
}

func TestCompare_RequiresBothDevices(t *testing.T) {
	h := newHarness(t)
	resp, body := h.post("/compare-sboms", url.Values{"device1Id": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Select two devices to compare")
	assert.Zero(t, h.fake.compareCalls)
}

func TestCompareJSON(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/api/compare?device1Id=1&device2Id=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Success bool              `json:"success"`
		Rows    []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Rows)

	resp, _ = h.get("/api/compare?device1Id=1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = h.get("/api/compare?device1Id=1&device2Id=404")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "One or both devices not found")
}

func TestAnalytics_FailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.fake.failAnalytics = true

	resp, body := h.get("/analytics?tab=supplier")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Analytics data is unavailable right now.")
}

func TestUpload_MissingDeviceNameSendsNothing(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post("/upload", url.Values{
		"kind":     {"repo"},
		"category": {"Smart Home"},
		"repoUrl":  {"https://github.com/org/repo"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Please enter a device name.")
	assert.Contains(t, body, "https://github.com/org/repo")
	assert.Zero(t, h.fake.repoUploads)
}

func TestUpload_FailedFormSurvivesOtherRequests(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post("/upload", url.Values{
		"kind":         {"repo"},
		"category":     {"Smart Home"},
		"manufacturer": {"AcmeCorpMfg"},
		"repoUrl":      {"https://github.com/org/repo"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// another visitor searching must not rewrite the kept form
	other := &harness{t: t, app: h.app, fake: h.fake}
	for i := 0; i < 5; i++ {
		other.post("/device-list/search", url.Values{"query": {"OVERWRITTEN!"}})
	}
	h.post("/device-list/search", url.Values{"query": {"SECOND PASS"}})

	_, body := h.get("/upload")
	assert.Contains(t, body, `name="manufacturer" value="AcmeCorpMfg"`)
	assert.Contains(t, body, `<option value="Smart Home" selected>`)
	assert.NotContains(t, body, "OVERWRITTEN!")
	assert.NotContains(t, body, "SECOND PASS")

	_, body = h.get("/device-list")
	assert.Contains(t, body, `value="SECOND PASS"`)
}

func TestUpload_RepoSuccessRedirectsAndHighlights(t *testing.T) {
	h := newHarness(t)
	h.get("/device-list")

	resp, _ := h.post("/upload", url.Values{
		"kind":       {"repo"},
		"category":   {"Smart Home"},
		"deviceName": {"Hub"},
		"repoUrl":    {"https://github.com/org/repo"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/device-list?highlight=latest", resp.Header.Get("Location"))
	assert.Equal(t, 1, h.fake.repoUploads)

	_, body := h.get("/device-list?highlight=latest")
	assert.Contains(t, body, "Success: SBOM generated from repository")
	assert.Contains(t, body, `class="highlight"`)

	// the form is cleared after a successful upload
	_, body = h.get("/upload?kind=repo")
	assert.NotContains(t, body, "https://github.com/org/repo")
}

func TestArchive_LatestFirst(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/device-sbom-archive")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, strings.Index(body, "sense2-v2.json"), strings.Index(body, "sense2-v1.json"))
}

func TestDownload(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/download/1?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.get("/download/1?format=spdx")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/api/devices/download/1?format=spdx")

	resp, _ = h.get("/download/archive/8")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/api/devices/download/archive/8?format=cyclonedx")
}
