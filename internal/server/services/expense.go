package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	sc "github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExpenseService owns the server half of reconciliation plus ledger export.
type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewExpenseService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ExpenseService {
	return &ExpenseService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "expense_service"),
		now:         time.Now,
	}
}

// List returns the newest non-deleted rows of userID, capped by
// ExpensesFetchLimit.
func (s *ExpenseService) List(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.repomanager.Expenses(s.db).ListByUser(ctx, userID, s.config.ExpensesFetchLimit)
}

// Submit upserts every item for userID. Rows are written one by one outside
// a transaction: a failing row is recorded and logged and the rest of the
// batch still goes through.
func (s *ExpenseService) Submit(ctx context.Context, userID string, items []*models.Expense) *models.SubmitSummary {
	repo := s.repomanager.Expenses(s.db)
	summary := &models.SubmitSummary{Results: make([]models.UpsertResult, 0, len(items))}

	for _, e := range items {
		res := models.UpsertResult{ID: e.ID}

		if err := s.prepare(userID, e); err != nil {
			res.Status, res.Err = models.UpsertFailed, err
		} else if inserted, err := repo.Upsert(ctx, e); err != nil {
			res.Status, res.Err = models.UpsertFailed, err
		} else if inserted {
			res.Status = models.UpsertInserted
		} else {
			res.Status = models.UpsertUpdated
		}

		switch res.Status {
		case models.UpsertInserted:
			summary.Inserted++
		case models.UpsertUpdated:
			summary.Updated++
		default:
			summary.Failed++
			s.logger.Warn(ctx, "expense upsert failed", "user_id", userID, "id", e.ID, "error", res.Err)
		}
		summary.Results = append(summary.Results, res)
	}

	s.logger.Info(ctx, "expenses submitted", "user_id", userID,
		"inserted", summary.Inserted, "updated", summary.Updated, "failed", summary.Failed)

	return summary
}

// prepare stamps ownership and fills server-side defaults.
func (s *ExpenseService) prepare(userID string, e *models.Expense) error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", common.ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", common.ErrValidation)
	}
	// NUMERIC(14, 2) would round silently
	if !dto.AmountFits(e.Amount) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", common.ErrValidation, e.Amount, dto.AmountScale)
	}

	e.UserID = userID
	now := s.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	return nil
}

// Delete soft-deletes one of userID's rows.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", common.ErrValidation)
	}
	return s.repomanager.Expenses(s.db).SoftDelete(ctx, userID, id)
}

// Ping reports whether the database answers.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ExportStorageKey builds the object key of a new export for userID.
func ExportStorageKey(userID string, now time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%d/%d/%v.csv", userID, now.Year(), now.Month(), now.Day(), uuid.New())
}

func (s *ExpenseService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export renders all non-deleted rows of userID as CSV, uploads the file and
// returns a presigned download link.
func (s *ExpenseService) Export(ctx context.Context, userID string) (*models.Export, error) {
	rows, err := s.repomanager.Expenses(s.db).ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	body, err := renderCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	bucket := s.config.S3Bucket
	key := ExportStorageKey(userID, s.now().UTC())

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	validity := s.config.ExportURLValidity
	req, err := presignGetObject(s3.NewPresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info(ctx, "ledger exported", "user_id", userID, "key", key, "rows", len(rows))

	return &models.Export{Key: key, URL: req.URL, Rows: len(rows), ExpiresAt: s.now().Add(validity)}, nil
}

var csvHeader = []string{"id", "date", "description", "amount", "main_category", "sub_category", "created_at", "updated_at"}

func renderCSV(rows []*models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range rows {
		if err := w.Write([]string{
			e.ID,
			e.Date.String(),
			e.Description,
			e.Amount.StringFixed(2),
			e.MainCategory,
			e.SubCategory,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
