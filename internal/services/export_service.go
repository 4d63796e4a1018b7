package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	ExportKindExport   = "export"
	ExportKindTemplate = "template"

	exportSheetName = "Produits"
)

// ExportService writes the product catalog, or a sample of it, to the
// uploads directory.
type ExportService struct {
	store      ProductStore
	uploadsDir string
	publisher  EventPublisher
	recorder   Recorder
	logger     *logrus.Entry
	now        func() time.Time
}

func NewExportService(store ProductStore, uploadsDir string, publisher EventPublisher, recorder Recorder, logger *logrus.Logger) *ExportService {
	return &ExportService{
		store:      store,
		uploadsDir: uploadsDir,
		publisher:  publisher,
		recorder:   recorder,
		logger:     logger.WithField("component", "product-export"),
		now:        time.Now,
	}
}

// Export writes every stored product, in store order, using the external
// column labels. format is either csv (default) or xlsx.
func (s *ExportService) Export(ctx context.Context, format models.FileFormat) (*models.ExportResult, error) {
	products, err := s.store.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture des produits: %w", err)
	}

	filename, err := s.write("produits_export", format, products)
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		Success:  true,
		Filename: filename,
		Count:    len(products),
		Message:  fmt.Sprintf("%d produit(s) exporté(s)", len(products)),
	}
	s.completed(ctx, ExportKindExport, result)
	return result, nil
}

// Template writes the column layout with two illustrative rows.
func (s *ExportService) Template(ctx context.Context, format models.FileFormat) (*models.ExportResult, error) {
	samples := templateSamples(s.now())

	filename, err := s.write("produits_modele", format, samples)
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		Success:  true,
		Filename: filename,
		Count:    len(samples),
		Message:  "Modèle d'import généré",
	}
	s.completed(ctx, ExportKindTemplate, result)
	return result, nil
}

// ResolveDownload maps a generated filename to its path on disk. Only bare
// file names are accepted; anything else, or a file that no longer exists,
// yields ok=false.
func (s *ExportService) ResolveDownload(filename string) (string, bool) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", false
	}
	path := filepath.Join(s.uploadsDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (s *ExportService) completed(ctx context.Context, kind string, result *models.ExportResult) {
	log := s.logger.WithFields(logrus.Fields{
		"kind":     kind,
		"filename": result.Filename,
		"count":    result.Count,
	})
	log.Info("Product file generated")

	if s.recorder != nil {
		s.recorder.ObserveExport(kind, result)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishExportCompleted(ctx, kind, result); err != nil {
			log.WithError(err).Warn("Failed to publish export event")
		}
	}
}

func (s *ExportService) write(prefix string, format models.FileFormat, products []models.Product) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("création du dossier d'export: %w", err)
	}

	ext := "csv"
	if format == models.FormatXLSX {
		ext = "xlsx"
	}
	// The random suffix keeps two exports started in the same second apart.
	filename := fmt.Sprintf("%s_%s_%s.%s", prefix, s.now().Format("20060102_150405"), uuid.NewString()[:8], ext)
	path := filepath.Join(s.uploadsDir, filename)

	header, records := exportRecords(products)

	var err error
	if format == models.FormatXLSX {
		err = writeXLSX(path, header, records)
	} else {
		err = writeCSV(path, header, records)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("écriture de %s: %w", filename, err)
	}
	return filename, nil
}

// exportRecords applies the inverse of the column dictionary, in dictionary
// order, so that the output can be imported back unchanged.
func exportRecords(products []models.Product) ([]string, [][]string) {
	columns := models.ProductImportColumns()
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Label
	}

	records := make([][]string, 0, len(products))
	for i := range products {
		record := make([]string, len(columns))
		for j, col := range columns {
			record[j] = fieldGetters[col.Field](&products[i])
		}
		records = append(records, record)
	}
	return header, records
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return f.Sync()
}

func writeXLSX(path string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	required := make(map[string]bool)
	for _, label := range models.RequiredImportLabels() {
		required[label] = true
	}

	for i, label := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cell, label)
		if required[label] {
			f.SetCellStyle(exportSheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(exportSheetName, cell, cell, headerStyle)
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheetName, colName, colName, 18)
	}

	// Cells are written as text so that barcodes keep their leading zeros.
	for r, record := range records {
		for c, value := range record {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(exportSheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

func templateSamples(now time.Time) []models.Product {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)
	return []models.Product{
		{
			CodeBarre:   "6130000000017",
			RefProduit:  "REF-001",
			Produit:     "Robe été coton",
			PaHt:        1200,
			PampHt:      1250,
			Stock:       25,
			Pv1Ht:       2500,
			Pv2Ht:       2400,
			Pv3Ht:       2300,
			Pv4Ht:       2200,
			Tva:         models.DefaultTVA,
			Famille:     "Vêtements",
			SousFamille: "Robes",
			Description: "Robe légère en coton",
		},
		{
			CodeBarre:   "6130000000024",
			RefProduit:  "REF-002",
			Produit:     "Sac à main cuir",
			PaHt:        3000,
			PampHt:      3000,
			Stock:       8,
			Pv1Ht:       5500,
			Pv2Ht:       5300,
			Pv3Ht:       5100,
			Pv4Ht:       5000,
			Pp1Ht:       4900,
			Tva:         models.DefaultTVA,
			Famille:     "Accessoires",
			SousFamille: "Sacs",
			Promo:       1,
			D1:          &start,
			D2:          &end,
			QtePromo:    5,
		},
	}
}
