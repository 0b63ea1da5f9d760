package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ortelius/sbom-finder-dashboard/analytics"
	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/catalog"
	"github.com/ortelius/sbom-finder-dashboard/compare"
	"github.com/ortelius/sbom-finder-dashboard/detail"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/ortelius/sbom-finder-dashboard/ui"
	"github.com/ortelius/sbom-finder-dashboard/upload"
)

// CompareResponse is the JSON body of GET /api/compare
type CompareResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Rows    []compare.Row   `json:"rows,omitempty"`
	Summary compare.Summary `json:"summary"`
}

func (s *server) render(c *fiber.Ctx, sess *session, status int, page string, data pageData) error {
	tmpl, ok := s.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}

	data.Flash = sess.popFlash()
	data.Uploading = sess.isUploading()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Sugar().Errorf("Failed to render %s: %v", page, err)
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// ============================================================================
// Device list
// ============================================================================

// GetDeviceList renders the cached device list, loading it on first visit or after an upload
func (s *server) GetDeviceList(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	devices, err := sess.catalog.Devices(c.UserContext())
	errMsg := ""
	if err != nil {
		errMsg = "Failed to load devices: " + backend.UserMessage(err)
	}

	page := deviceListPage{
		Devices:          devices,
		Filter:           sess.catalog.Filter(),
		Manufacturers:    manufacturerOptions,
		OperatingSystems: operatingSystemOptions,
		Categories:       upload.Categories,
		DeletePrompt:     catalog.DeletePrompt,
	}
	if c.Query("highlight") == "latest" {
		if newest, ok := sess.catalog.Newest(); ok {
			page.HighlightID = newest.DeviceID
		}
	}

	return s.render(c, sess, fiber.StatusOK, ui.PageDeviceList, pageData{
		Title: "Devices", Nav: "devices", Error: errMsg, Content: page,
	})
}

// PostDeviceSearch runs a server-side search and shows the result list
func (s *server) PostDeviceSearch(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	f := model.SearchFilter{
		Query:           c.FormValue("query"),
		Manufacturer:    c.FormValue("manufacturer"),
		OperatingSystem: c.FormValue("operatingSystem"),
		Category:        c.FormValue("category"),
	}
	if _, err := sess.catalog.Search(c.UserContext(), f); err != nil && !errors.Is(err, catalog.ErrStale) {
		sess.setFlash("Search failed: " + backend.UserMessage(err))
	}
	return c.Redirect("/device-list", fiber.StatusSeeOther)
}

// PostDeviceReset clears the search and reloads the full list
func (s *server) PostDeviceReset(c *fiber.Ctx) error {
	sess := s.sessions.get(c)
	if _, err := sess.catalog.Reset(c.UserContext()); err != nil && !errors.Is(err, catalog.ErrStale) {
		sess.setFlash("Failed to load devices: " + backend.UserMessage(err))
	}
	return c.Redirect("/device-list", fiber.StatusSeeOther)
}

// PostDeviceDelete deletes a device once the browser confirmed it
func (s *server) PostDeviceDelete(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		sess.setFlash("Invalid device id")
		return c.Redirect("/device-list", fiber.StatusSeeOther)
	}

	confirmed := catalog.ConfirmFunc(func(string) bool {
		return c.FormValue("confirm") == "yes"
	})
	deleted, err := sess.catalog.Delete(c.UserContext(), id, confirmed)
	switch {
	case err != nil:
		sess.setFlash("Failed to delete SBOM: " + backend.UserMessage(err))
	case deleted:
		sess.setFlash("SBOM deleted.")
	}
	return c.Redirect("/device-list", fiber.StatusSeeOther)
}

// ============================================================================
// Device details
// ============================================================================

// GetDeviceDetails loads one device and renders its sections
func (s *server) GetDeviceDetails(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	id := c.Query("device_id")
	errMsg := ""
	if _, err := sess.detail.Load(c.UserContext(), id); err != nil {
		errMsg = "Failed to load device: " + backend.UserMessage(err)
	}

	v := sess.detail.View()
	if v.DeviceID != strings.TrimSpace(id) {
		// never show a different device than the one asked for
		v = detail.View{Sections: detail.DefaultSections()}
	}
	return s.render(c, sess, fiber.StatusOK, ui.PageDeviceDetails, pageData{
		Title: "Device Details", Nav: "devices", Error: errMsg, Content: newDeviceDetailsPage(v),
	})
}

// PostDetailToggle flips a section of the loaded device without refetching it
func (s *server) PostDetailToggle(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	status, errMsg := fiber.StatusOK, ""
	if err := sess.detail.Toggle(detail.Section(c.Params("section"))); err != nil {
		status, errMsg = fiber.StatusBadRequest, err.Error()
	}
	return s.render(c, sess, status, ui.PageDeviceDetails, pageData{
		Title: "Device Details", Nav: "devices", Error: errMsg, Content: newDeviceDetailsPage(sess.detail.View()),
	})
}

// ============================================================================
// Compare
// ============================================================================

func (s *server) renderCompare(c *fiber.Ctx, sess *session, status int, errMsg string) error {
	options, err := sess.catalog.Options(c.UserContext())
	if err != nil && errMsg == "" {
		errMsg = "Failed to load devices: " + backend.UserMessage(err)
	}
	return s.render(c, sess, status, ui.PageCompare, pageData{
		Title: "Compare SBOMs", Nav: "compare", Error: errMsg, Content: newComparePage(sess.engine, options),
	})
}

// GetCompare renders the selection form and the last comparison
func (s *server) GetCompare(c *fiber.Ctx) error {
	return s.renderCompare(c, s.sessions.get(c), fiber.StatusOK, "")
}

// PostCompare compares the two selected devices
func (s *server) PostCompare(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	_, err := sess.engine.Compare(c.UserContext(), c.FormValue("device1Id"), c.FormValue("device2Id"))
	var ve *compare.ValidationError
	switch {
	case err == nil, errors.Is(err, compare.ErrStale):
		return s.renderCompare(c, sess, fiber.StatusOK, "")
	case errors.As(err, &ve):
		return s.renderCompare(c, sess, fiber.StatusBadRequest, ve.Message)
	default:
		return s.renderCompare(c, sess, fiber.StatusOK, "Error comparing SBOMs: "+backend.UserMessage(err))
	}
}

// PostCompareToggle shows or hides one package's supplier or vulnerabilities
func (s *server) PostCompareToggle(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	side, err := compare.ParseSide(c.FormValue("side"))
	if err != nil {
		return s.renderCompare(c, sess, fiber.StatusBadRequest, err.Error())
	}
	index, err := strconv.Atoi(c.FormValue("index"))
	if err != nil {
		return s.renderCompare(c, sess, fiber.StatusBadRequest, "invalid package index")
	}
	which := compare.Detail(c.FormValue("which"))

	if err := sess.engine.ToggleDetail(compare.FieldPackages, side, index, which); err != nil {
		return s.renderCompare(c, sess, fiber.StatusBadRequest, err.Error())
	}
	return s.renderCompare(c, sess, fiber.StatusOK, "")
}

// GetCompareJSON returns the comparison rows and package delta as JSON
func (s *server) GetCompareJSON(c *fiber.Ctx) error {
	engine := compare.NewEngine(s.api, s.logger)
	rows, err := engine.Compare(c.UserContext(), c.Query("device1Id"), c.Query("device2Id"))
	if err != nil {
		var ve *compare.ValidationError
		status := fiber.StatusBadGateway
		switch {
		case errors.As(err, &ve):
			status = fiber.StatusBadRequest
		case backend.IsNotFound(err):
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(CompareResponse{Success: false, Message: backend.UserMessage(err)})
	}

	return c.JSON(CompareResponse{Success: true, Rows: rows, Summary: compare.Summarize(rows)})
}

// ============================================================================
// Analytics
// ============================================================================

// GetAnalytics loads every series and renders the selected tab
func (s *server) GetAnalytics(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	d, _ := s.analytics.Load(c.UserContext())
	tab := analytics.ParseTab(c.Query("tab"))
	return s.render(c, sess, fiber.StatusOK, ui.PageAnalytics, pageData{
		Title: "Analytics", Nav: "analytics", Content: newAnalyticsPage(tab, d),
	})
}

// ============================================================================
// Upload
// ============================================================================

// GetUpload renders the upload form, keeping values of a failed attempt
func (s *server) GetUpload(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	sess.mu.Lock()
	if k := c.Query("kind"); k != "" {
		if kind, err := upload.ParseKind(k); err == nil {
			sess.form.Kind = kind
		}
	}
	form := sess.form
	sess.mu.Unlock()

	return s.render(c, sess, fiber.StatusOK, ui.PageUpload, pageData{
		Title: "Upload", Nav: "upload", Content: newUploadPage(form),
	})
}

// PostUpload validates and submits the upload form
func (s *server) PostUpload(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	kind, err := upload.ParseKind(c.FormValue("kind"))
	if err != nil {
		return s.renderUpload(c, sess, fiber.StatusBadRequest, err.Error())
	}

	form := upload.Form{
		Kind:            kind,
		Category:        c.FormValue("category"),
		DeviceName:      c.FormValue("deviceName"),
		Manufacturer:    c.FormValue("manufacturer"),
		OperatingSystem: c.FormValue("operatingSystem"),
		OsVersion:       c.FormValue("osVersion"),
		KernelVersion:   c.FormValue("kernelVersion"),
		RepoURL:         c.FormValue("repoUrl"),
	}

	if kind != upload.KindRepo {
		field := "file"
		if kind == upload.KindSBOM {
			field = "sbomFile"
		}
		if fh, err := c.FormFile(field); err == nil {
			f, err := fh.Open()
			if err != nil {
				return s.renderUpload(c, sess, fiber.StatusBadRequest, "Upload failed.")
			}
			defer f.Close()
			form.FileName = fh.Filename
			form.File = f
		}
	}

	res, err := sess.uploads.Submit(c.UserContext(), &form, sess)

	sess.mu.Lock()
	form.File = nil
	sess.form = form
	sess.mu.Unlock()

	var ve *upload.ValidationError
	switch {
	case err == nil:
		if res.Message != "" {
			sess.setFlash("Success: " + res.Message)
		}
		return c.Redirect(res.Redirect, fiber.StatusSeeOther)
	case errors.As(err, &ve):
		return s.renderUpload(c, sess, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, upload.ErrInProgress):
		return s.renderUpload(c, sess, fiber.StatusConflict, "Upload is already in progress.")
	default:
		return s.renderUpload(c, sess, fiber.StatusOK, backend.UserMessage(err))
	}
}

func (s *server) renderUpload(c *fiber.Ctx, sess *session, status int, errMsg string) error {
	sess.mu.Lock()
	form := sess.form
	sess.mu.Unlock()

	return s.render(c, sess, status, ui.PageUpload, pageData{
		Title: "Upload", Nav: "upload", Error: errMsg, Content: newUploadPage(form),
	})
}

// ============================================================================
// Archive and downloads
// ============================================================================

// GetArchive lists archived SBOM versions per device
func (s *server) GetArchive(c *fiber.Ctx) error {
	sess := s.sessions.get(c)

	groups, err := s.api.Archives(c.UserContext())
	errMsg := ""
	if err != nil {
		s.logger.Sugar().Errorf("Failed to fetch archives: %v", err)
		errMsg = "Failed to load archives: " + backend.UserMessage(err)
	}
	return s.render(c, sess, fiber.StatusOK, ui.PageArchive, pageData{
		Title: "Archive", Nav: "archive", Error: errMsg, Content: archivePage{Groups: groups},
	})
}

// GetDownload redirects to the backend's SBOM download for a device
func (s *server) GetDownload(c *fiber.Ctx) error {
	format, err := model.ParseSBOMFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	return c.Redirect(s.api.DownloadURL(c.Params("id"), format), fiber.StatusFound)
}

// GetArchiveDownload redirects to the backend's download of an archived SBOM
func (s *server) GetArchiveDownload(c *fiber.Ctx) error {
	format, err := model.ParseSBOMFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	return c.Redirect(s.api.ArchiveDownloadURL(c.Params("id"), format), fiber.StatusFound)
}
