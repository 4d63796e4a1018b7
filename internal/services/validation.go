package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/go-playground/validator/v10"
)

// MissingColumnsError is returned when the header lacks required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Colonnes obligatoires manquantes: " + strings.Join(e.Columns, ", ")
}

// ProductValidator checks headers before an import starts and every
// transformed row during it.
type ProductValidator struct {
	validate *validator.Validate
}

func NewProductValidator() *ProductValidator {
	v := validator.New()
	// Report fields under the label operators see in their spreadsheet.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return &ProductValidator{validate: v}
}

// ValidateHeader fails with a *MissingColumnsError listing every required
// label the file does not provide.
func (v *ProductValidator) ValidateHeader(mapper *ColumnMapper) error {
	if missing := mapper.MissingRequired(); len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// ValidateProduct applies the product schema to a transformed row.
func (v *ProductValidator) ValidateProduct(p *models.Product) error {
	err := v.validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s est obligatoire", fe.Field())
	case "max":
		return fmt.Sprintf("%s dépasse %s caractères", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s doit être supérieur ou égal à %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s doit être inférieur ou égal à %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s doit valoir %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", " ou "))
	default:
		return fmt.Sprintf("%s invalide (%s)", fe.Field(), fe.Tag())
	}
}
