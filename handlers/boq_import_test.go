package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renovasi/config"
	"renovasi/services"
	"renovasi/testhelpers"
)

func newCSVUploadRequest(t *testing.T, target, csvData string, actor services.Actor) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "boq.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(csvData)); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	setActorHeaders(req, actor)
	return req
}

func TestHandleBOQImport_Valid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Import Project")
	handler := HandleBOQImport(app, config.Config{MaxImportRows: 2000})

	csvData := "Phase,Work Type,Description,Spec,Volume,Unit,Reference Price\n" +
		"Persiapan,Pembersihan,Pembersihan lahan,Bongkar dinding,10,m2,45000\n" +
		"Struktur,Pondasi,Galian,Galian tanah,20,m3,60000\n"
	req := newCSVUploadRequest(t, fmt.Sprintf("/api/renovasi/projects/%s/boq/import", proj.Id), csvData, ownerActor)
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	saved, err := app.FindRecordById("projects", proj.Id)
	if err != nil {
		t.Fatal(err)
	}
	tree := services.DecodeBOQ(saved.GetString("boq"))
	if tree.LeafCount() != 2 {
		t.Errorf("imported tree should have 2 specs, got %d", tree.LeafCount())
	}
}

func TestHandleBOQImport_RowErrorsNothingImported(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Import Errors Project")
	handler := HandleBOQImport(app, config.Config{MaxImportRows: 2000})

	csvData := "Phase,Work Type,Description,Spec,Volume,Unit,Reference Price\n" +
		",Pembersihan,Pembersihan lahan,Bongkar dinding,abc,m2,45000\n"
	req := newCSVUploadRequest(t, fmt.Sprintf("/api/renovasi/projects/%s/boq/import", proj.Id), csvData, ownerActor)
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	// The project's original BOQ must be untouched.
	saved, err := app.FindRecordById("projects", proj.Id)
	if err != nil {
		t.Fatal(err)
	}
	if services.DecodeBOQ(saved.GetString("boq")).LeafCount() != 4 {
		t.Error("failed import must not modify the stored BOQ")
	}
}

func TestHandleBOQImport_RowLimit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Oversized Import Project")
	handler := HandleBOQImport(app, config.Config{MaxImportRows: 1})

	csvData := "Phase,Work Type,Description,Spec,Volume,Unit,Reference Price\n" +
		"Persiapan,Pembersihan,Pembersihan lahan,Bongkar dinding,10,m2,45000\n" +
		"Struktur,Pondasi,Galian,Galian tanah,20,m3,60000\n"
	req := newCSVUploadRequest(t, fmt.Sprintf("/api/renovasi/projects/%s/boq/import", proj.Id), csvData, ownerActor)
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a file over the row cap, got %d", rec.Code)
	}

	// The project's original BOQ must be untouched.
	saved, err := app.FindRecordById("projects", proj.Id)
	if err != nil {
		t.Fatal(err)
	}
	if services.DecodeBOQ(saved.GetString("boq")).LeafCount() != 4 {
		t.Error("rejected import must not modify the stored BOQ")
	}
}

func TestHandleBOQImport_BlockedAfterProposals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Locked Import Project")
	testhelpers.AttachProposal(t, app, proj, testhelpers.SampleProposal("vendor-1", "Test Vendor"))
	handler := HandleBOQImport(app, config.Config{MaxImportRows: 2000})

	csvData := "Phase,Work Type,Description,Spec,Volume,Unit,Reference Price\n" +
		"A,B,C,D,1,m,1\n"
	req := newCSVUploadRequest(t, fmt.Sprintf("/api/renovasi/projects/%s/boq/import", proj.Id), csvData, ownerActor)
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 once proposals exist, got %d", rec.Code)
	}
}

func TestHandleBOQImport_NonOwnerForbidden(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Import Forbidden Project")
	handler := HandleBOQImport(app, config.Config{MaxImportRows: 2000})

	req := newCSVUploadRequest(t, fmt.Sprintf("/api/renovasi/projects/%s/boq/import", proj.Id), "x", vendorActor)
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleBOQTemplate(t *testing.T) {
	handler := HandleBOQTemplate()

	req := httptest.NewRequest(http.MethodGet, "/api/renovasi/boq/template", nil)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "Phase,Work Type") {
		t.Errorf("template body: %q", rec.Body.String()[:30])
	}
}
