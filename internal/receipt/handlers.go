package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-extractor/internal/ocr"
)

const (
	maxFormSize  = int64(ocr.MaxImageBytes)
	maxBatchSize = 500
)

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// acquisitionStatus maps OCR failures to HTTP status codes
func acquisitionStatus(err error) int {
	var downloadErr *ocr.DownloadError
	var recognitionErr *ocr.RecognitionError
	switch {
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ocr.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ocr.ErrRedirectRefused):
		return http.StatusBadRequest
	case errors.As(err, &downloadErr), errors.As(err, &recognitionErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcessEmail classifies one email and extracts it when it is a receipt
func (s *Server) handleProcessEmail(w http.ResponseWriter, r *http.Request) {
	var email Email
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.ProcessEmail(r.Context(), email)
	if err != nil {
		slog.Error("Error processing email", "email_id", email.ID, "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleProcessBatch processes a list of emails
func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []Email `json:"emails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Emails) > maxBatchSize {
		writeError(w, "Too many emails in one batch", http.StatusRequestEntityTooLarge)
		return
	}

	results, err := s.service.ProcessBatch(r.Context(), req.Emails)
	if err != nil {
		slog.Error("Error processing batch", "size", len(req.Emails), "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleScanImage runs OCR on an image that is already reachable by URL
func (s *Server) handleScanImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}
	if strings.HasPrefix(strings.ToLower(req.ImageURL), "file:") {
		writeError(w, "file URLs are not accepted", http.StatusBadRequest)
		return
	}

	record, err := s.service.ScanImage(r.Context(), req.ImageURL)
	if err != nil {
		writeError(w, err.Error(), acquisitionStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleUploadReceipt stores an uploaded image and scans it
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		writeError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}

	record, err := s.service.UploadReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, err.Error(), acquisitionStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListRecords returns all stored records
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetRecord returns a single record
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetRecord(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, "Receipt not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting record", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetRecordFile returns the uploaded image for a record
func (s *Server) handleGetRecordFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetRecordFile(r.PathValue("id"))
	if err != nil {
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteRecord deletes a record
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecord(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, "Receipt not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting record", "error", err)
		writeError(w, "Error deleting receipt", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
