package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestExportService(t *testing.T, store ProductStore, publisher EventPublisher) *ExportService {
	t.Helper()
	svc := NewExportService(store, filepath.Join(t.TempDir(), "uploads"), publisher, nil, quietLogger())
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 14, 30, 0, 0, time.Local) }
	return svc
}

func TestExport_CSV(t *testing.T) {
	store := newMemoryStore(
		models.Product{CodeBarre: "111", RefProduit: "REF1", Produit: "Widget", Pv1Ht: 19.99, Tva: 19},
		models.Product{CodeBarre: "222", RefProduit: "REF2", Produit: "Gadget", Pv1Ht: 5, Tva: 19},
	)
	publisher := &recordingPublisher{}
	svc := newTestExportService(t, store, publisher)

	result, err := svc.Export(context.Background(), models.FormatDelimited)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.True(t, strings.HasPrefix(result.Filename, "produits_export_20240510_143000_"), result.Filename)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))
	assert.Equal(t, []string{ExportKindExport}, publisher.exports)

	data, err := os.ReadFile(filepath.Join(svc.uploadsDir, result.Filename))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(bytes.TrimPrefix(data, utf8BOM))), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Code barre,Réf produit,Désignation,PA TTC,PAMP TTC,Stock ( Unité ),prix vente TTC,Prix sup TTC,Prix gros TTC,DDDD TTC,Prix Promo TTC,Famille,"))
	assert.True(t, strings.HasPrefix(lines[1], "111,REF1,Widget,0,0,0,19.99,0,0,0,0,,"))
}

func TestExport_FilenamesDoNotCollide(t *testing.T) {
	svc := newTestExportService(t, newMemoryStore(), nil)

	first, err := svc.Export(context.Background(), models.FormatDelimited)
	require.NoError(t, err)
	second, err := svc.Export(context.Background(), models.FormatDelimited)
	require.NoError(t, err)

	assert.NotEqual(t, first.Filename, second.Filename)
	assert.Equal(t, 0, first.Count)
}

func TestExport_XLSX(t *testing.T) {
	store := newMemoryStore(models.Product{CodeBarre: "0613000000001", RefProduit: "REF1", Produit: "Widget", Pv1Ht: 10, Tva: 19})
	svc := newTestExportService(t, store, nil)

	result, err := svc.Export(context.Background(), models.FormatXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Filename, ".xlsx"))

	f, err := excelize.OpenFile(filepath.Join(svc.uploadsDir, result.Filename))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Réf produit", rows[0][1])
	assert.Equal(t, "0613000000001", rows[1][0])
}

func TestTemplate(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := newTestExportService(t, newMemoryStore(), publisher)

	result, err := svc.Template(context.Background(), models.FormatDelimited)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.True(t, strings.HasPrefix(result.Filename, "produits_modele_"))
	assert.Equal(t, []string{ExportKindTemplate}, publisher.exports)

	// The sample file must itself be a valid import.
	data, err := os.ReadFile(filepath.Join(svc.uploadsDir, result.Filename))
	require.NoError(t, err)
	store := newMemoryStore()
	imported := newTestImportService(store, nil).Import(context.Background(), data)
	assert.True(t, imported.Success, imported.Message)
	assert.Equal(t, 2, imported.Created)
	assert.Empty(t, imported.Errors)
}

func TestResolveDownload(t *testing.T) {
	svc := newTestExportService(t, newMemoryStore(), nil)
	result, err := svc.Export(context.Background(), models.FormatDelimited)
	require.NoError(t, err)

	path, ok := svc.ResolveDownload(result.Filename)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(svc.uploadsDir, result.Filename), path)

	for _, name := range []string{"", "missing.csv", "../etc/passwd", "sub/file.csv", ".env"} {
		path, ok := svc.ResolveDownload(name)
		assert.False(t, ok, name)
		assert.Empty(t, path, name)
	}
}
