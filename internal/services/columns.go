package services

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const exportDateLayout = "2006-01-02 15:04:05"

var importDateLayouts = []string{
	exportDateLayout,
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	time.RFC3339,
}

type fieldSetter func(p *models.Product, raw string)

type fieldGetter func(p *models.Product) string

var fieldSetters = map[string]fieldSetter{
	"codeBarre":   func(p *models.Product, v string) { p.CodeBarre = v },
	"refProduit":  func(p *models.Product, v string) { p.RefProduit = v },
	"produit":     func(p *models.Product, v string) { p.Produit = v },
	"famille":     func(p *models.Product, v string) { p.Famille = v },
	"sousFamille": func(p *models.Product, v string) { p.SousFamille = v },
	"description": func(p *models.Product, v string) { p.Description = v },
	"paHt":        func(p *models.Product, v string) { p.PaHt = parseNumber(v) },
	"pampHt":      func(p *models.Product, v string) { p.PampHt = parseNumber(v) },
	"stock":       func(p *models.Product, v string) { p.Stock = parseNumber(v) },
	"pv1Ht":       func(p *models.Product, v string) { p.Pv1Ht = parseNumber(v) },
	"pv2Ht":       func(p *models.Product, v string) { p.Pv2Ht = parseNumber(v) },
	"pv3Ht":       func(p *models.Product, v string) { p.Pv3Ht = parseNumber(v) },
	"pv4Ht":       func(p *models.Product, v string) { p.Pv4Ht = parseNumber(v) },
	"pv5Ht":       func(p *models.Product, v string) { p.Pv5Ht = parseNumber(v) },
	"pv6Ht":       func(p *models.Product, v string) { p.Pv6Ht = parseNumber(v) },
	"pp1Ht":       func(p *models.Product, v string) { p.Pp1Ht = parseNumber(v) },
	"tva":         func(p *models.Product, v string) { p.Tva = parseNumber(v) },
	"qtePromo":    func(p *models.Product, v string) { p.QtePromo = parseNumber(v) },
	"promo":       func(p *models.Product, v string) { p.Promo = parseFlag(v) },
	"d1":          func(p *models.Product, v string) { p.D1 = parseDate(v) },
	"d2":          func(p *models.Product, v string) { p.D2 = parseDate(v) },
}

var fieldGetters = map[string]fieldGetter{
	"codeBarre":   func(p *models.Product) string { return p.CodeBarre },
	"refProduit":  func(p *models.Product) string { return p.RefProduit },
	"produit":     func(p *models.Product) string { return p.Produit },
	"famille":     func(p *models.Product) string { return p.Famille },
	"sousFamille": func(p *models.Product) string { return p.SousFamille },
	"description": func(p *models.Product) string { return p.Description },
	"paHt":        func(p *models.Product) string { return formatNumber(p.PaHt) },
	"pampHt":      func(p *models.Product) string { return formatNumber(p.PampHt) },
	"stock":       func(p *models.Product) string { return formatNumber(p.Stock) },
	"pv1Ht":       func(p *models.Product) string { return formatNumber(p.Pv1Ht) },
	"pv2Ht":       func(p *models.Product) string { return formatNumber(p.Pv2Ht) },
	"pv3Ht":       func(p *models.Product) string { return formatNumber(p.Pv3Ht) },
	"pv4Ht":       func(p *models.Product) string { return formatNumber(p.Pv4Ht) },
	"pv5Ht":       func(p *models.Product) string { return formatNumber(p.Pv5Ht) },
	"pv6Ht":       func(p *models.Product) string { return formatNumber(p.Pv6Ht) },
	"pp1Ht":       func(p *models.Product) string { return formatNumber(p.Pp1Ht) },
	"tva":         func(p *models.Product) string { return formatNumber(p.Tva) },
	"qtePromo":    func(p *models.Product) string { return formatNumber(p.QtePromo) },
	"promo":       func(p *models.Product) string { return strconv.Itoa(p.Promo) },
	"d1":          func(p *models.Product) string { return formatDate(p.D1) },
	"d2":          func(p *models.Product) string { return formatDate(p.D2) },
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeLabel folds case, accents and whitespace so that "Ref Produit",
// "réf produit *" and "Réf produit" all designate the same column.
func normalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, "*")
	folded, _, err := transform.String(accentStripper, label)
	if err == nil {
		label = folded
	}
	label = strings.ToLower(label)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, label)
}

var columnsByLabel = func() map[string]models.ImportColumn {
	index := make(map[string]models.ImportColumn)
	for _, col := range models.ProductImportColumns() {
		index[normalizeLabel(col.Label)] = col
	}
	return index
}()

// ColumnMapper turns raw rows into product records for one file header.
type ColumnMapper struct {
	headerByField map[string]string
	defaultTVA    float64
}

// NewColumnMapper resolves the file header against the column dictionary.
// Unknown columns are ignored.
func NewColumnMapper(headers []string, defaultTVA float64) *ColumnMapper {
	m := &ColumnMapper{
		headerByField: make(map[string]string),
		defaultTVA:    defaultTVA,
	}
	for _, h := range headers {
		col, ok := columnsByLabel[normalizeLabel(h)]
		if !ok {
			continue
		}
		if _, seen := m.headerByField[col.Field]; !seen {
			m.headerByField[col.Field] = h
		}
	}
	return m
}

// MissingRequired lists, in dictionary order, the required labels the
// header does not provide.
func (m *ColumnMapper) MissingRequired() []string {
	var missing []string
	for _, col := range models.ProductImportColumns() {
		if !col.Required {
			continue
		}
		if _, ok := m.headerByField[col.Field]; !ok {
			missing = append(missing, col.Label)
		}
	}
	return missing
}

// Map builds a fully populated product from a raw row. Absent text is "",
// absent or unparseable numbers are 0, an absent TVA takes the default rate,
// and a positive promotional price always sets the promotion flag.
func (m *ColumnMapper) Map(row Row) *models.Product {
	p := &models.Product{Tva: m.defaultTVA}

	for field, header := range m.headerByField {
		raw, ok := row.Values[header]
		if !ok {
			continue
		}
		if field == "tva" && raw == "" {
			continue
		}
		fieldSetters[field](p, raw)
	}

	if p.Pp1Ht > 0 {
		p.Promo = 1
	}
	return p
}

// parseNumber accepts both "1234.5" and the French "1 234,5"; anything
// unparseable yields 0.
func parseNumber(raw string) float64 {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseFlag(raw string) int {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "oui", "o", "yes", "y", "true", "vrai", "x":
		return 1
	}
	if parseNumber(raw) > 0 {
		return 1
	}
	return 0
}

// parseDate accepts the export layout, common French layouts and Excel
// serial day numbers. Unparseable input yields nil.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
			return &local
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(time.Local).Format(exportDateLayout)
}
