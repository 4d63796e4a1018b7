package services

import (
	"context"
	"errors"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImportService runs bulk product imports from CSV or Excel uploads.
type ImportService struct {
	validator  *ProductValidator
	reconciler *Reconciler
	defaultTVA float64
	publisher  EventPublisher
	recorder   Recorder
	logger     *logrus.Entry
}

func NewImportService(store ProductStore, defaultTVA float64, publisher EventPublisher, recorder Recorder, logger *logrus.Logger) *ImportService {
	return &ImportService{
		validator:  NewProductValidator(),
		reconciler: NewReconciler(store),
		defaultTVA: defaultTVA,
		publisher:  publisher,
		recorder:   recorder,
		logger:     logger.WithField("component", "product-import"),
	}
}

// Import processes an uploaded file and always returns a result. Batch-level
// problems (unreadable container, no data, missing required columns) stop
// before any row is written and report success=false with no row errors.
// Otherwise rows are reconciled one at a time in file order; a failing row
// is recorded and the next one proceeds. There is no enclosing transaction.
func (s *ImportService) Import(ctx context.Context, data []byte) *models.ImportResult {
	start := time.Now()
	summary := newImportSummary(uuid.NewString())
	log := s.logger.WithField("importId", summary.result.ImportID)

	result := s.run(ctx, data, summary, log)

	if s.recorder != nil {
		s.recorder.ObserveImport(result, time.Since(start).Seconds())
	}
	if s.publisher != nil {
		if err := s.publisher.PublishImportCompleted(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to publish import event")
		}
	}

	log.WithFields(logrus.Fields{
		"success":  result.Success,
		"total":    result.TotalRows,
		"imported": result.Imported,
		"created":  result.Created,
		"updated":  result.Updated,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
		"duration": time.Since(start).String(),
	}).Info("Product import finished")

	return result
}

func (s *ImportService) run(ctx context.Context, data []byte, summary *importSummary, log *logrus.Entry) *models.ImportResult {
	table, err := ParseTable(data)
	if err != nil {
		log.WithError(err).Error("Import file could not be parsed")
		if errors.Is(err, ErrUnreadableFile) {
			return summary.fail(0, "Fichier illisible: "+err.Error())
		}
		return summary.fail(0, err.Error())
	}
	log = log.WithField("format", table.Format)

	if len(table.Rows) == 0 {
		log.Warn("Import file contains no data rows")
		return summary.fail(0, "Fichier vide: "+ErrNoData.Error())
	}

	mapper := NewColumnMapper(table.Headers, s.defaultTVA)
	if err := s.validator.ValidateHeader(mapper); err != nil {
		log.WithError(err).Error("Import file header rejected")
		return summary.fail(len(table.Rows), err.Error())
	}

	for _, row := range table.Rows {
		s.importRow(ctx, row, mapper, summary, log)
	}

	return summary.finish(len(table.Rows))
}

func (s *ImportService) importRow(ctx context.Context, row Row, mapper *ColumnMapper, summary *importSummary, log *logrus.Entry) {
	product := mapper.Map(row)

	if err := s.validator.ValidateProduct(product); err != nil {
		log.WithField("row", row.Index).WithError(err).Warn("Import row failed validation")
		summary.recordError(row, err)
		return
	}

	rec, err := s.reconciler.Reconcile(ctx, product)
	if err != nil {
		log.WithField("row", row.Index).WithError(err).Warn("Import row could not be saved")
		summary.recordError(row, err)
		return
	}

	summary.recordImported(row, product, rec)
}
