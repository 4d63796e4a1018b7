package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

// memoryStore is an in-memory ProductStore with optional failure injection.
type memoryStore struct {
	products map[uint]models.Product
	nextID   uint
	failRefs map[string]error
}

var _ ProductStore = (*memoryStore)(nil)

func newMemoryStore(seed ...models.Product) *memoryStore {
	s := &memoryStore{
		products: make(map[uint]models.Product),
		failRefs: make(map[string]error),
	}
	for i := range seed {
		_ = s.CreateProduct(context.Background(), &seed[i])
	}
	return s
}

func (s *memoryStore) find(match func(p models.Product) bool) (*models.Product, error) {
	for _, id := range s.ids() {
		if p := s.products[id]; match(p) {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *memoryStore) FindByRef(ctx context.Context, ref string) (*models.Product, error) {
	return s.find(func(p models.Product) bool { return p.RefProduit == ref })
}

func (s *memoryStore) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return s.find(func(p models.Product) bool { return p.CodeBarre == barcode })
}

func (s *memoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.failRefs[product.RefProduit]; err != nil {
		return err
	}
	s.nextID++
	product.RecordID = s.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	s.products[product.RecordID] = *product
	return nil
}

func (s *memoryStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.failRefs[product.RefProduit]; err != nil {
		return err
	}
	if _, ok := s.products[product.RecordID]; !ok {
		return repository.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	s.products[product.RecordID] = *product
	return nil
}

func (s *memoryStore) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(s.products))
	for _, id := range s.ids() {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *memoryStore) ids() []uint {
	ids := make([]uint, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var errStoreDown = errors.New("connection refused")

// recordingPublisher captures published events.
type recordingPublisher struct {
	imports []*models.ImportResult
	exports []string
}

func (p *recordingPublisher) PublishImportCompleted(ctx context.Context, result *models.ImportResult) error {
	p.imports = append(p.imports, result)
	return nil
}

func (p *recordingPublisher) PublishExportCompleted(ctx context.Context, kind string, result *models.ExportResult) error {
	p.exports = append(p.exports, kind)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
