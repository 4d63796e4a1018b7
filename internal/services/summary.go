package services

import (
	"fmt"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
)

// importSummary accumulates per-row outcomes of one import run.
type importSummary struct {
	result      *models.ImportResult
	refRows     map[string]int
	barcodeRows map[string]int
}

func newImportSummary(importID string) *importSummary {
	return &importSummary{
		result: &models.ImportResult{
			ImportID: importID,
			Errors:   make([]models.ImportRowError, 0),
		},
		refRows:     make(map[string]int),
		barcodeRows: make(map[string]int),
	}
}

// fail turns the run into a batch-level failure: nothing imported, no row errors.
func (s *importSummary) fail(totalRows int, message string) *models.ImportResult {
	s.result.Success = false
	s.result.TotalRows = totalRows
	s.result.Message = message
	return s.result
}

func (s *importSummary) recordError(row Row, err error) {
	s.result.Errors = append(s.result.Errors, models.ImportRowError{
		Row:     row.Index,
		Product: row.Values,
		Error:   err.Error(),
	})
}

func (s *importSummary) recordImported(row Row, p *models.Product, rec *Reconciliation) {
	s.result.Imported++
	switch rec.Action {
	case ActionCreated:
		s.result.Created++
	case ActionUpdated:
		s.result.Updated++
	}

	if rec.BarcodeConflict != nil {
		s.warn(row.Index, models.WarningNaturalKeyConflict, fmt.Sprintf(
			"Code barre %s appartient au produit %s; le produit de référence %s a été mis à jour",
			p.CodeBarre, rec.BarcodeConflict.RefProduit, p.RefProduit))
	}

	// Rows are written in file order, so a repeated natural key means the
	// later row overwrote the earlier one.
	if first, seen := s.refRows[p.RefProduit]; seen {
		s.warn(row.Index, models.WarningDuplicateInFile, fmt.Sprintf(
			"Réf produit %s déjà présente ligne %d; cette ligne la remplace", p.RefProduit, first))
	} else if first, seen := s.barcodeRows[p.CodeBarre]; seen && p.CodeBarre != "" {
		s.warn(row.Index, models.WarningDuplicateInFile, fmt.Sprintf(
			"Code barre %s déjà présent ligne %d; cette ligne le remplace", p.CodeBarre, first))
	}

	if _, seen := s.refRows[p.RefProduit]; !seen {
		s.refRows[p.RefProduit] = row.Index
	}
	if _, seen := s.barcodeRows[p.CodeBarre]; !seen && p.CodeBarre != "" {
		s.barcodeRows[p.CodeBarre] = row.Index
	}
}

func (s *importSummary) warn(row int, code, message string) {
	s.result.Warnings = append(s.result.Warnings, models.ImportWarning{
		Row:     row,
		Code:    code,
		Message: message,
	})
}

// finish computes the overall flag: success means at least one row made it.
func (s *importSummary) finish(totalRows int) *models.ImportResult {
	s.result.TotalRows = totalRows
	s.result.Success = len(s.result.Errors) < totalRows
	s.result.Message = fmt.Sprintf("%d ligne(s) traitée(s): %d importée(s), %d erreur(s)",
		totalRows, s.result.Imported, len(s.result.Errors))
	return s.result
}
