package services

import (
	"bytes"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
)

var (
	// Legacy Excel workbooks are OLE2 compound documents.
	compoundDocumentSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// Office Open XML workbooks are ZIP archives: local file header, empty
	// archive and spanned archive markers.
	zipSignatures = [][]byte{
		{0x50, 0x4B, 0x03, 0x04},
		{0x50, 0x4B, 0x05, 0x06},
		{0x50, 0x4B, 0x07, 0x08},
	}
)

// DetectFormat classifies a file from its leading bytes. Anything that is
// not a known spreadsheet container is treated as delimited text.
func DetectFormat(head []byte) models.FileFormat {
	if bytes.HasPrefix(head, compoundDocumentSignature) {
		return models.FormatXLS
	}
	for _, sig := range zipSignatures {
		if bytes.HasPrefix(head, sig) {
			return models.FormatXLSX
		}
	}
	return models.FormatDelimited
}

// IsSpreadsheet reports whether the format is a spreadsheet container.
func IsSpreadsheet(format models.FileFormat) bool {
	return format == models.FormatXLSX || format == models.FormatXLS
}
