package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/repository"
)

// ReconcileAction says whether a row created or updated a stored product.
type ReconcileAction string

const (
	ActionCreated ReconcileAction = "created"
	ActionUpdated ReconcileAction = "updated"
)

// Reconciliation is the outcome of matching one row against the store.
// BarcodeConflict is set when the barcode designates a different stored
// product than the reference code; the reference match was used.
type Reconciliation struct {
	Action          ReconcileAction
	RecordID        uint
	BarcodeConflict *models.Product
}

// Reconciler decides insert-vs-update for transformed rows by natural key.
type Reconciler struct {
	store ProductStore
}

func NewReconciler(store ProductStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile writes p to the store. A stored product with the same reference
// code takes precedence over one with the same barcode; an empty barcode
// never matches. Matched products keep their surrogate id.
func (r *Reconciler) Reconcile(ctx context.Context, p *models.Product) (*Reconciliation, error) {
	byRef, err := r.lookup(ctx, p.RefProduit, r.store.FindByRef)
	if err != nil {
		return nil, fmt.Errorf("recherche par référence: %w", err)
	}
	byBarcode, err := r.lookup(ctx, p.CodeBarre, r.store.FindByBarcode)
	if err != nil {
		return nil, fmt.Errorf("recherche par code barre: %w", err)
	}

	rec := &Reconciliation{}
	target := byRef
	if target == nil {
		target = byBarcode
	} else if byBarcode != nil && byBarcode.RecordID != byRef.RecordID {
		rec.BarcodeConflict = byBarcode
	}

	if target == nil {
		if err := r.store.CreateProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("création: %w", err)
		}
		rec.Action = ActionCreated
		rec.RecordID = p.RecordID
		return rec, nil
	}

	p.RecordID = target.RecordID
	p.CreatedAt = target.CreatedAt
	if err := r.store.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("mise à jour: %w", err)
	}
	rec.Action = ActionUpdated
	rec.RecordID = p.RecordID
	return rec, nil
}

func (r *Reconciler) lookup(ctx context.Context, key string, find func(context.Context, string) (*models.Product, error)) (*models.Product, error) {
	if key == "" {
		return nil, nil
	}
	product, err := find(ctx, key)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}
