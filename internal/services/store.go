package services

import (
	"context"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
)

// ProductStore is the persistence the import/export core relies on. Lookups
// return repository.ErrProductNotFound when nothing matches.
type ProductStore interface {
	FindByRef(ctx context.Context, ref string) (*models.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListAllProducts(ctx context.Context) ([]models.Product, error)
}

// EventPublisher announces finished imports and exports. It may be nil.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, result *models.ImportResult) error
	PublishExportCompleted(ctx context.Context, kind string, result *models.ExportResult) error
}

// Recorder receives import/export measurements. It may be nil.
type Recorder interface {
	ObserveImport(result *models.ImportResult, seconds float64)
	ObserveExport(kind string, result *models.ExportResult)
}
