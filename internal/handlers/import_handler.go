package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Importer runs a bulk product import.
type Importer interface {
	Import(ctx context.Context, data []byte) *models.ImportResult
}

// Exporter generates export and template files and serves them back.
type Exporter interface {
	Export(ctx context.Context, format models.FileFormat) (*models.ExportResult, error)
	Template(ctx context.Context, format models.FileFormat) (*models.ExportResult, error)
	ResolveDownload(filename string) (string, bool)
}

// multipartOverhead is the room left for boundaries and part headers on top
// of the file size limit.
const multipartOverhead = 64 << 10

type ImportHandler struct {
	importer      Importer
	exporter      Exporter
	maxUploadSize int64
	logger        *logrus.Entry
}

func NewImportHandler(importer Importer, exporter Exporter, maxUploadSize int64, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importer:      importer,
		exporter:      exporter,
		maxUploadSize: maxUploadSize,
		logger:        logger.WithField("component", "import-handler"),
	}
}

// ImportProducts imports products from a CSV or Excel upload
// @Summary Import products
// @Description Upserts products by reference code or barcode. Rows are processed in file order; failing rows are reported and skipped.
// @Tags import-export
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV, XLSX or XLS file"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Router /products/import [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	}

	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.fileTooLarge(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Veuillez joindre un fichier CSV ou Excel",
				Field:   "file",
			},
		})
		return
	}

	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.fileTooLarge(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_UNREADABLE",
				Message: err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_UNREADABLE",
				Message: err.Error(),
			},
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"filename": header.Filename,
		"size":     header.Size,
	}).Info("Product import requested")

	// The import runs to completion even if the client goes away.
	result := h.importer.Import(context.WithoutCancel(c.Request.Context()), data)

	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) fileTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("Le fichier dépasse la taille maximale de %d Mo", h.maxUploadSize/(1024*1024)),
		},
	})
}

// ExportProducts writes the whole catalog to a file in the uploads directory
// @Summary Export products
// @Tags import-export
// @Produce json
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {object} models.ExportResult
// @Failure 500 {object} models.ErrorResponse
// @Router /products/export [post]
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context(), requestedFormat(c))
	if err != nil {
		h.logger.WithError(err).Error("Product export failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "L'export des produits a échoué",
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetImportTemplate generates a sample import file
// @Summary Generate import template
// @Tags import-export
// @Produce json
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {object} models.ExportResult
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	result, err := h.exporter.Template(c.Request.Context(), requestedFormat(c))
	if err != nil {
		h.logger.WithError(err).Error("Template generation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TEMPLATE_FAILED",
				Message: "La génération du modèle a échoué",
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadExport streams a previously generated file
// GET /api/v1/products/export/:filename
func (h *ImportHandler) DownloadExport(c *gin.Context) {
	filename := c.Param("filename")

	path, ok := h.exporter.ResolveDownload(filename)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Fichier introuvable ou expiré",
			},
		})
		return
	}

	c.FileAttachment(path, filename)
}

func requestedFormat(c *gin.Context) models.FileFormat {
	if c.DefaultQuery("format", "csv") == string(models.FormatXLSX) {
		return models.FormatXLSX
	}
	return models.FormatDelimited
}
