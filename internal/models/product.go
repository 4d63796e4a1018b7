package models

import (
	"strings"
	"time"
)

// DefaultTVA is the VAT rate applied when an import file omits the TVA column.
const DefaultTVA = 19.0

// Product is the catalog record imported, exported and browsed on the
// storefront. RecordID is the surrogate key and never leaves the service
// through an import or export file; RefProduit and CodeBarre are the natural
// keys used to recognise the same product across imports.
type Product struct {
	RecordID    uint       `json:"recordid" gorm:"column:recordid;primaryKey;autoIncrement"`
	CodeBarre   string     `json:"codeBarre" gorm:"column:code_barre;size:50;index" validate:"max=50" label:"Code barre"`
	RefProduit  string     `json:"refProduit" gorm:"column:ref_produit;size:50;index" validate:"required,max=50" label:"Réf produit"`
	Produit     string     `json:"produit" gorm:"column:produit;size:255;not null" validate:"required,max=255" label:"Désignation"`
	PaHt        float64    `json:"paHt" gorm:"column:pa_ht;not null;default:0" validate:"gte=0" label:"PA TTC"`
	PampHt      float64    `json:"pampHt" gorm:"column:pamp_ht;not null;default:0" validate:"gte=0" label:"PAMP TTC"`
	Stock       float64    `json:"stock" gorm:"column:stock;not null;default:0" label:"Stock ( Unité )"`
	Pv1Ht       float64    `json:"pv1Ht" gorm:"column:pv1_ht;not null;default:0" validate:"gte=0" label:"prix vente TTC"`
	Pv2Ht       float64    `json:"pv2Ht" gorm:"column:pv2_ht;not null;default:0" validate:"gte=0" label:"Prix sup TTC"`
	Pv3Ht       float64    `json:"pv3Ht" gorm:"column:pv3_ht;not null;default:0" validate:"gte=0" label:"Prix gros TTC"`
	Pv4Ht       float64    `json:"pv4Ht" gorm:"column:pv4_ht;not null;default:0" validate:"gte=0" label:"DDDD TTC"`
	Pv5Ht       float64    `json:"pv5Ht" gorm:"column:pv5_ht;not null;default:0" validate:"gte=0" label:"Prix 5 TTC"`
	Pv6Ht       float64    `json:"pv6Ht" gorm:"column:pv6_ht;not null;default:0" validate:"gte=0" label:"Prix 6 TTC"`
	Pp1Ht       float64    `json:"pp1Ht" gorm:"column:pp1_ht;not null;default:0" validate:"gte=0" label:"Prix Promo TTC"`
	Tva         float64    `json:"tva" gorm:"column:tva;not null;default:19" validate:"gte=0,lte=100" label:"TVA"`
	Famille     string     `json:"famille" gorm:"column:famille;size:100;index" validate:"max=100" label:"Famille"`
	SousFamille string     `json:"sousFamille" gorm:"column:sous_famille;size:100" validate:"max=100" label:"Sous famille"`
	Description string     `json:"description" gorm:"column:description;type:text" label:"Description"`
	Promo       int        `json:"promo" gorm:"column:promo;not null;default:0" validate:"oneof=0 1" label:"Promo"`
	D1          *time.Time `json:"d1,omitempty" gorm:"column:d1" label:"Date début promo"`
	D2          *time.Time `json:"d2,omitempty" gorm:"column:d2" label:"Date fin promo"`
	QtePromo    float64    `json:"qtePromo" gorm:"column:qte_promo;not null;default:0" validate:"gte=0" label:"Qté promo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "produits"
}

// UpdateProductRequest carries the admin-editable fields of a product.
// Nil fields are left untouched.
type UpdateProductRequest struct {
	CodeBarre   *string    `json:"codeBarre,omitempty"`
	RefProduit  *string    `json:"refProduit,omitempty"`
	Produit     *string    `json:"produit,omitempty"`
	PaHt        *float64   `json:"paHt,omitempty"`
	PampHt      *float64   `json:"pampHt,omitempty"`
	Stock       *float64   `json:"stock,omitempty"`
	Pv1Ht       *float64   `json:"pv1Ht,omitempty"`
	Pv2Ht       *float64   `json:"pv2Ht,omitempty"`
	Pv3Ht       *float64   `json:"pv3Ht,omitempty"`
	Pv4Ht       *float64   `json:"pv4Ht,omitempty"`
	Pv5Ht       *float64   `json:"pv5Ht,omitempty"`
	Pv6Ht       *float64   `json:"pv6Ht,omitempty"`
	Pp1Ht       *float64   `json:"pp1Ht,omitempty"`
	Tva         *float64   `json:"tva,omitempty"`
	Famille     *string    `json:"famille,omitempty"`
	SousFamille *string    `json:"sousFamille,omitempty"`
	Description *string    `json:"description,omitempty"`
	Promo       *int       `json:"promo,omitempty"`
	D1          *time.Time `json:"d1,omitempty"`
	D2          *time.Time `json:"d2,omitempty"`
	QtePromo    *float64   `json:"qtePromo,omitempty"`
}

// Apply copies the non-nil fields of the request onto p and keeps the
// promotion flag consistent with the promotional price. Text is trimmed the
// same way import cells are, so natural keys still match on re-import.
func (r *UpdateProductRequest) Apply(p *Product) {
	setString(&p.CodeBarre, r.CodeBarre)
	setString(&p.RefProduit, r.RefProduit)
	setString(&p.Produit, r.Produit)
	setString(&p.Famille, r.Famille)
	setString(&p.SousFamille, r.SousFamille)
	setString(&p.Description, r.Description)
	setFloat(&p.PaHt, r.PaHt)
	setFloat(&p.PampHt, r.PampHt)
	setFloat(&p.Stock, r.Stock)
	setFloat(&p.Pv1Ht, r.Pv1Ht)
	setFloat(&p.Pv2Ht, r.Pv2Ht)
	setFloat(&p.Pv3Ht, r.Pv3Ht)
	setFloat(&p.Pv4Ht, r.Pv4Ht)
	setFloat(&p.Pv5Ht, r.Pv5Ht)
	setFloat(&p.Pv6Ht, r.Pv6Ht)
	setFloat(&p.Pp1Ht, r.Pp1Ht)
	setFloat(&p.Tva, r.Tva)
	setFloat(&p.QtePromo, r.QtePromo)
	if r.Promo != nil {
		p.Promo = *r.Promo
	}
	if r.D1 != nil {
		p.D1 = r.D1
	}
	if r.D2 != nil {
		p.D2 = r.D2
	}
	if p.Pp1Ht > 0 {
		p.Promo = 1
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// ListProductsRequest filters the product listing.
type ListProductsRequest struct {
	Famille string
	Search  string
	Page    int
	Limit   int
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
