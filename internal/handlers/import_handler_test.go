package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImporter is a mock implementation of Importer
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Import(ctx context.Context, data []byte) *models.ImportResult {
	args := m.Called(ctx, data)
	return args.Get(0).(*models.ImportResult)
}

// MockExporter is a mock implementation of Exporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, format models.FileFormat) (*models.ExportResult, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExportResult), args.Error(1)
}

func (m *MockExporter) Template(ctx context.Context, format models.FileFormat) (*models.ExportResult, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExportResult), args.Error(1)
}

func (m *MockExporter) ResolveDownload(filename string) (string, bool) {
	args := m.Called(filename)
	return args.String(0), args.Bool(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupImportRouter(importer Importer, exporter Exporter, maxSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewImportHandler(importer, exporter, maxSize, testLogger())

	router := gin.New()
	router.POST("/products/import", h.ImportProducts)
	router.POST("/products/export", h.ExportProducts)
	router.GET("/products/import/template", h.GetImportTemplate)
	router.GET("/products/export/:filename", h.DownloadExport)
	return router
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImportProducts(t *testing.T) {
	content := []byte("Réf produit,Désignation\nREF1,Widget\n")
	importer := new(MockImporter)
	importer.On("Import", mock.Anything, content).Return(&models.ImportResult{
		Success:   true,
		TotalRows: 1,
		Imported:  1,
		Errors:    []models.ImportRowError{},
		Message:   "1 ligne(s) traitée(s): 1 importée(s), 0 erreur(s)",
	})
	router := setupImportRouter(importer, new(MockExporter), 1<<20)

	body, contentType := multipartUpload(t, "file", "produits.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/products/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var result models.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Imported)
	importer.AssertExpectations(t)
}

func TestImportProducts_FatalResultIsStillOK(t *testing.T) {
	importer := new(MockImporter)
	importer.On("Import", mock.Anything, mock.Anything).Return(&models.ImportResult{
		Success: false,
		Errors:  []models.ImportRowError{},
		Message: "Colonnes obligatoires manquantes: Réf produit",
	})
	router := setupImportRouter(importer, new(MockExporter), 1<<20)

	body, contentType := multipartUpload(t, "file", "produits.csv", []byte("Désignation\nWidget\n"))
	req := httptest.NewRequest(http.MethodPost, "/products/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), `"errors":[]`)
}

func TestImportProducts_MissingFile(t *testing.T) {
	importer := new(MockImporter)
	router := setupImportRouter(importer, new(MockExporter), 1<<20)

	body, contentType := multipartUpload(t, "document", "produits.csv", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/products/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_REQUIRED")
	importer.AssertNotCalled(t, "Import", mock.Anything, mock.Anything)
}

func TestImportProducts_TooLarge(t *testing.T) {
	importer := new(MockImporter)
	router := setupImportRouter(importer, new(MockExporter), 8)

	body, contentType := multipartUpload(t, "file", "produits.csv", bytes.Repeat([]byte("a"), 64))
	req := httptest.NewRequest(http.MethodPost, "/products/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_TOO_LARGE")
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestImportProducts_OversizedBodyIsNotFullyRead(t *testing.T) {
	importer := new(MockImporter)
	router := setupImportRouter(importer, new(MockExporter), 8)

	content := bytes.Repeat([]byte("a"), 4*multipartOverhead)
	body, contentType := multipartUpload(t, "file", "produits.csv", content)
	reader := &countingReader{r: body}
	req := httptest.NewRequest(http.MethodPost, "/products/import", reader)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_TOO_LARGE")
	assert.Less(t, reader.n, len(content))
	importer.AssertNotCalled(t, "Import", mock.Anything, mock.Anything)
}

func TestExportProducts(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, models.FormatXLSX).Return(&models.ExportResult{
		Success:  true,
		Filename: "produits_export_20240510_143000_abcd1234.xlsx",
		Count:    3,
	}, nil)
	exporter.On("Export", mock.Anything, models.FormatDelimited).Return(nil, errors.New("disk full"))
	router := setupImportRouter(new(MockImporter), exporter, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/products/export?format=xlsx", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":3`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/products/export", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "EXPORT_FAILED")
}

func TestGetImportTemplate(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("Template", mock.Anything, models.FormatDelimited).Return(&models.ExportResult{
		Success:  true,
		Filename: "produits_modele_20240510_143000_abcd1234.csv",
		Count:    2,
	}, nil)
	router := setupImportRouter(new(MockImporter), exporter, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/import/template", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "produits_modele_")
	exporter.AssertExpectations(t)
}

func TestDownloadExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "produits_export_x.csv")
	require.NoError(t, os.WriteFile(path, []byte("Réf produit,Désignation\n"), 0o644))

	exporter := new(MockExporter)
	exporter.On("ResolveDownload", "produits_export_x.csv").Return(path, true)
	exporter.On("ResolveDownload", "gone.csv").Return("", false)
	router := setupImportRouter(new(MockImporter), exporter, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/export/produits_export_x.csv", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "produits_export_x.csv")
	assert.Equal(t, "Réf produit,Désignation\n", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/export/gone.csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
