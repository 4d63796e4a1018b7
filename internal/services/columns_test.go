package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "refproduit", normalizeLabel("Réf produit"))
	assert.Equal(t, "refproduit", normalizeLabel("  REF PRODUIT * "))
	assert.Equal(t, "stock(unite)", normalizeLabel("Stock ( Unité )"))
	assert.Equal(t, "qtepromo", normalizeLabel("Qté promo"))
}

func TestColumnMapper_Map(t *testing.T) {
	headers := []string{"Code barre", "Réf produit", "Désignation", "PA TTC", "Stock ( Unité )", "prix vente TTC", "Famille", "Colonne inconnue"}
	mapper := NewColumnMapper(headers, 19)

	p := mapper.Map(Row{Index: 1, Values: map[string]string{
		"Code barre":       "0613000000001",
		"Réf produit":      "REF1",
		"Désignation":      "Widget",
		"PA TTC":           "abc",
		"Stock ( Unité )":  "12",
		"prix vente TTC":   "1 299,90",
		"Famille":          "Maison",
		"Colonne inconnue": "ignored",
	}})

	assert.Equal(t, "0613000000001", p.CodeBarre)
	assert.Equal(t, "REF1", p.RefProduit)
	assert.Equal(t, "Widget", p.Produit)
	assert.Equal(t, 0.0, p.PaHt)
	assert.Equal(t, 12.0, p.Stock)
	assert.Equal(t, 1299.9, p.Pv1Ht)
	assert.Equal(t, "Maison", p.Famille)
	assert.Equal(t, "", p.SousFamille)
	assert.Equal(t, 0.0, p.Pv2Ht)
	assert.Equal(t, 19.0, p.Tva)
	assert.Equal(t, 0, p.Promo)
	assert.Nil(t, p.D1)
}

func TestColumnMapper_HeaderVariants(t *testing.T) {
	mapper := NewColumnMapper([]string{"ref produit", "DESIGNATION *"}, 19)
	assert.Empty(t, mapper.MissingRequired())

	p := mapper.Map(Row{Values: map[string]string{"ref produit": "R", "DESIGNATION *": "D"}})
	assert.Equal(t, "R", p.RefProduit)
	assert.Equal(t, "D", p.Produit)
}

func TestColumnMapper_MissingRequired(t *testing.T) {
	mapper := NewColumnMapper([]string{"Code barre", "prix vente TTC"}, 19)
	assert.Equal(t, []string{"Réf produit", "Désignation"}, mapper.MissingRequired())

	mapper = NewColumnMapper([]string{"Désignation"}, 19)
	assert.Equal(t, []string{"Réf produit"}, mapper.MissingRequired())
}

func TestColumnMapper_PromoFlagFollowsPromoPrice(t *testing.T) {
	mapper := NewColumnMapper([]string{"Réf produit", "Désignation", "Prix Promo TTC", "Promo"}, 19)

	withPrice := mapper.Map(Row{Values: map[string]string{"Réf produit": "R", "Désignation": "D", "Prix Promo TTC": "15", "Promo": "0"}})
	assert.Equal(t, 1, withPrice.Promo)

	withoutPrice := mapper.Map(Row{Values: map[string]string{"Réf produit": "R", "Désignation": "D", "Prix Promo TTC": "", "Promo": "oui"}})
	assert.Equal(t, 0.0, withoutPrice.Pp1Ht)
	assert.Equal(t, 1, withoutPrice.Promo)
}

func TestColumnMapper_ExplicitTVA(t *testing.T) {
	mapper := NewColumnMapper([]string{"Réf produit", "Désignation", "TVA"}, 19)

	assert.Equal(t, 9.0, mapper.Map(Row{Values: map[string]string{"TVA": "9%"}}).Tva)
	assert.Equal(t, 19.0, mapper.Map(Row{Values: map[string]string{"TVA": ""}}).Tva)
	assert.Equal(t, 0.0, mapper.Map(Row{Values: map[string]string{"TVA": "0"}}).Tva)
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"19.99":   19.99,
		"19,99":   19.99,
		"1 234,5": 1234.5,
		"1.234,5": 1234.5,
		"1,234.5": 1234.5,
		" 250 ":   250,
		"":        0,
		"n/a":     0,
		"NaN":     0,
		"Inf":     0,
		"-3":      -3,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseNumber(raw), "input %q", raw)
	}
}

func TestParseFlag(t *testing.T) {
	for _, raw := range []string{"1", "Oui", "yes", "x", "TRUE"} {
		assert.Equal(t, 1, parseFlag(raw), raw)
	}
	for _, raw := range []string{"", "0", "non", "false"} {
		assert.Equal(t, 0, parseFlag(raw), raw)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	for _, raw := range []string{"2024-03-15", "15/03/2024", "2024-03-15 00:00:00", "45366"} {
		got := parseDate(raw)
		require.NotNil(t, got, raw)
		assert.True(t, want.Equal(*got), "%s parsed as %s", raw, got)
	}

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("bientôt"))
}

func TestFormatDateRoundTrip(t *testing.T) {
	ts := time.Date(2024, 12, 1, 8, 30, 0, 0, time.Local)
	got := parseDate(formatDate(&ts))
	require.NotNil(t, got)
	assert.True(t, ts.Equal(*got))
	assert.Equal(t, "", formatDate(nil))
}
