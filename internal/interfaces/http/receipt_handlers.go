package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedReceiptExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// ScanReceipt handles POST /api/receipts/scan. The uploaded file is
// stored and, for PDFs, its text layer is run through the scanner to
// pre-fill the expense form. Image receipts are stored without
// extraction; their fields stay empty for the employee to fill in.
func (h *Handlers) ScanReceipt(c *gin.Context) {
	file, err := c.FormFile("receipt")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no file uploaded")
		return
	}
	if file.Size > h.deps.Upload.MaxSizeBytes {
		respondError(c, http.StatusBadRequest, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedReceiptExts[ext] {
		respondError(c, http.StatusBadRequest, "only JPEG, PNG and PDF receipts are allowed")
		return
	}

	if err := os.MkdirAll(h.deps.Upload.Dir, 0755); err != nil {
		h.logger.Error("Failed to create upload dir", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to store receipt")
		return
	}

	filename := uuid.NewString() + ext
	dst := filepath.Join(h.deps.Upload.Dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.logger.Error("Failed to save receipt", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to store receipt")
		return
	}

	var rawText string
	if ext == ".pdf" {
		rawText, err = h.deps.PDFReader.Text(dst)
		if err != nil {
			h.logger.Error("Failed to read receipt PDF", "error", err)
			rawText = ""
		}
	}

	fields, err := h.deps.Scanner.Scan(c.Request.Context(), rawText)
	if err != nil {
		// Extraction is best-effort; the upload itself succeeded.
		h.logger.Error("Receipt scan failed", "error", err)
		fields = nil
	}

	respondOK(c, gin.H{
		"receipt_url":    fmt.Sprintf("/uploads/%s", filename),
		"extracted_data": fields,
		"raw_text":       rawText,
	})
}
