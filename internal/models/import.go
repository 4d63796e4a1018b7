package models

import "time"

// FileFormat is the container format of an uploaded import file
type FileFormat string

const (
	FormatDelimited FileFormat = "csv"
	FormatXLSX      FileFormat = "xlsx"
	FormatXLS       FileFormat = "xls"
)

// ColumnType describes how a raw cell value is coerced on import
type ColumnType string

const (
	ColumnText   ColumnType = "string"
	ColumnNumber ColumnType = "number"
	ColumnFlag   ColumnType = "flag"
	ColumnDate   ColumnType = "date"
)

// ImportColumn maps an external, operator-facing column label to an internal
// product field.
type ImportColumn struct {
	Label       string     `json:"label"`
	Field       string     `json:"field"`
	Type        ColumnType `json:"type"`
	Required    bool       `json:"required"`
	Description string     `json:"description"`
}

// ProductImportColumns returns the column dictionary in export order. The
// first twelve entries are the historical layout of the back office export;
// the rest are optional extensions understood on import.
func ProductImportColumns() []ImportColumn {
	return []ImportColumn{
		{Label: "Code barre", Field: "codeBarre", Type: ColumnText, Description: "Code-barres EAN"},
		{Label: "Réf produit", Field: "refProduit", Type: ColumnText, Required: true, Description: "Référence unique du produit"},
		{Label: "Désignation", Field: "produit", Type: ColumnText, Required: true, Description: "Nom du produit"},
		{Label: "PA TTC", Field: "paHt", Type: ColumnNumber, Description: "Prix d'achat"},
		{Label: "PAMP TTC", Field: "pampHt", Type: ColumnNumber, Description: "Prix d'achat moyen pondéré"},
		{Label: "Stock ( Unité )", Field: "stock", Type: ColumnNumber, Description: "Quantité en stock"},
		{Label: "prix vente TTC", Field: "pv1Ht", Type: ColumnNumber, Description: "Prix de vente public"},
		{Label: "Prix sup TTC", Field: "pv2Ht", Type: ColumnNumber, Description: "Prix de vente supérieur"},
		{Label: "Prix gros TTC", Field: "pv3Ht", Type: ColumnNumber, Description: "Prix de vente en gros"},
		{Label: "DDDD TTC", Field: "pv4Ht", Type: ColumnNumber, Description: "Prix de vente palier 4"},
		{Label: "Prix Promo TTC", Field: "pp1Ht", Type: ColumnNumber, Description: "Prix promotionnel (0 = pas de promotion)"},
		{Label: "Famille", Field: "famille", Type: ColumnText, Description: "Famille (catégorie)"},
		{Label: "Sous famille", Field: "sousFamille", Type: ColumnText, Description: "Sous-famille"},
		{Label: "TVA", Field: "tva", Type: ColumnNumber, Description: "Taux de TVA en %"},
		{Label: "Prix 5 TTC", Field: "pv5Ht", Type: ColumnNumber, Description: "Prix de vente palier 5"},
		{Label: "Prix 6 TTC", Field: "pv6Ht", Type: ColumnNumber, Description: "Prix de vente palier 6"},
		{Label: "Promo", Field: "promo", Type: ColumnFlag, Description: "1 si le produit est en promotion"},
		{Label: "Date début promo", Field: "d1", Type: ColumnDate, Description: "Début de la promotion"},
		{Label: "Date fin promo", Field: "d2", Type: ColumnDate, Description: "Fin de la promotion"},
		{Label: "Qté promo", Field: "qtePromo", Type: ColumnNumber, Description: "Quantité maximale au prix promotionnel"},
		{Label: "Description", Field: "description", Type: ColumnText, Description: "Description longue"},
	}
}

// RequiredImportLabels returns the labels a file header must contain.
func RequiredImportLabels() []string {
	var labels []string
	for _, col := range ProductImportColumns() {
		if col.Required {
			labels = append(labels, col.Label)
		}
	}
	return labels
}

// ImportRowError is a per-row failure: the 1-indexed data row, the raw row
// as read from the file, and the reason.
type ImportRowError struct {
	Row     int               `json:"row"`
	Product map[string]string `json:"product"`
	Error   string            `json:"error"`
}

// Warning codes attached to rows that were imported but deserve a look.
const (
	WarningNaturalKeyConflict = "NATURAL_KEY_CONFLICT"
	WarningDuplicateInFile    = "DUPLICATE_IN_FILE"
)

// ImportWarning flags an imported row whose reconciliation was ambiguous.
type ImportWarning struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult is returned by every import, fatal or not.
type ImportResult struct {
	ImportID  string           `json:"importId"`
	Success   bool             `json:"success"`
	TotalRows int              `json:"totalRows"`
	Imported  int              `json:"imported"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Errors    []ImportRowError `json:"errors"`
	Warnings  []ImportWarning  `json:"warnings,omitempty"`
	Message   string           `json:"message"`
}

// ExportResult describes a generated export or template file.
type ExportResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Count    int    `json:"count"`
	Message  string `json:"message"`
}

// GeneratedFile is an export or template file found in the uploads directory.
type GeneratedFile struct {
	Name    string
	Path    string
	ModTime time.Time
}
