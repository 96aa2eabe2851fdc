package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultBatchWorkers = 4

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// TextExtractor turns an image URL into raw text
type TextExtractor interface {
	ExtractTextFromImage(ctx context.Context, imageURL string) (string, error)
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service processes receipts and persists the results
type Service struct {
	db           DB
	processor    *Processor
	ocr          TextExtractor
	storage      Storage
	idGenerator  IDGenerator
	timeSource   TimeSource
	batchWorkers int
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, processor *Processor, ocr TextExtractor, storage Storage) *Service {
	return NewServiceWithDeps(db, processor, ocr, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, processor *Processor, ocr TextExtractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:           db,
		processor:    processor,
		ocr:          ocr,
		storage:      storage,
		idGenerator:  idGen,
		timeSource:   timeSrc,
		batchWorkers: defaultBatchWorkers,
	}
}

// SetBatchWorkers bounds how many emails ProcessBatch handles at once
func (s *Service) SetBatchWorkers(n int) {
	if n > 0 {
		s.batchWorkers = n
	}
}

// ProcessEmail classifies and extracts an email, saving the record when it
// is a receipt. Reprocessing an email with the same ID replaces its record.
func (s *Service) ProcessEmail(ctx context.Context, email Email) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := s.processor.Process(email)
	if !result.IsReceipt {
		slog.Debug("Email is not a receipt", "email_id", email.ID)
		return result, nil
	}

	if err := s.save(result.Data); err != nil {
		return Result{}, err
	}
	slog.Info("Processed receipt email",
		"email_id", email.ID,
		"record_id", result.Data.ID,
		"confidence", result.Data.Confidence,
	)
	return result, nil
}

// ProcessBatch processes emails concurrently. Results line up with emails.
func (s *Service) ProcessBatch(ctx context.Context, emails []Email) ([]Result, error) {
	results := make([]Result, len(emails))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)
	for i, email := range emails {
		g.Go(func() error {
			result, err := s.ProcessEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("processing email %s: %w", email.ID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScanImage runs OCR on the image at imageURL and saves the extracted record
func (s *Service) ScanImage(ctx context.Context, imageURL string) (*Record, error) {
	text, err := s.ocr.ExtractTextFromImage(ctx, imageURL)
	if err != nil {
		slog.Error("Failed to extract text from image", "url", imageURL, "error", err)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	record := s.processor.ProcessText(imageURL, text)
	if err := s.save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// UploadReceipt stores an uploaded image, scans it, and saves the record
func (s *Service) UploadReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Record, error) {
	id := s.idGenerator.Generate()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	imageURL, err := s.storage.URL(savedPath)
	if err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("locating file: %w", err)
	}

	text, err := s.ocr.ExtractTextFromImage(ctx, imageURL)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	record := s.processor.ProcessText(savedPath, text)
	record.ID = id
	record.Filename = savedPath
	record.ContentType = contentType
	if err := s.save(record); err != nil {
		s.storage.Delete(savedPath)
		return nil, err
	}
	return record, nil
}

// save assigns identity and timestamps, reusing the record already stored
// for the same source
func (s *Service) save(record *Record) error {
	now := s.timeSource.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if record.SourceID != "" {
		existing, err := s.db.FindBySource(record.SourceID)
		switch {
		case err == nil:
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("looking up source %s: %w", record.SourceID, err)
		}
	}
	if record.ID == "" {
		record.ID = s.idGenerator.Generate()
	}

	if err := s.db.SaveRecord(record); err != nil {
		return fmt.Errorf("saving record to database: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID
func (s *Service) GetRecord(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// ListRecords returns all records
func (s *Service) ListRecords() ([]*Record, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record and any uploaded image
func (s *Service) DeleteRecord(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for deletion: %w", err)
	}

	if record.Filename != "" {
		if err := s.storage.Delete(record.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
		}
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record from database: %w", err)
	}
	return nil
}

// GetRecordFile retrieves the uploaded image behind an OCR record
func (s *Service) GetRecordFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}
	if record.Filename == "" {
		return nil, "", fmt.Errorf("%w: record %s has no file", ErrNotFound, id)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting record file: %w", err)
	}
	return data, record.ContentType, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	unsafeExtChars      = regexp.MustCompile(`[^a-zA-Z0-9.]`)
	filenameSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(filenameSpaces.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + unsafeExtChars.ReplaceAllString(ext, "")
}
