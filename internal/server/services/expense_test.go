package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpenseService(t *testing.T) (*ExpenseService, *fakeExpensesRepo) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	repo := newFakeExpensesRepo()
	cfg := &config.Config{
		ExpensesFetchLimit: 2,
		S3Bucket:           "exports",
		S3Region:           "us-east-1",
		S3BaseEndpoint:     "http://localhost:9000",
		S3RootUser:         "minio",
		S3RootPassword:     "minio123",
		ExportURLValidity:  15 * time.Minute,
	}
	s := NewExpenseService(db, &fakeRepoManager{u: newFakeUsersRepo(), e: repo}, cfg, logging.Nop())
	s.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return s, repo
}

func expense(id string, amount string) *models.Expense {
	return &models.Expense{
		ID:           id,
		Date:         timex.DateOf(2025, 1, 1),
		Description:  "coffee, large",
		Amount:       decimal.RequireFromString(amount),
		MainCategory: "Food",
		SubCategory:  "Cafe",
	}
}

func TestSubmit_MixedResults(t *testing.T) {
	s, repo := newExpenseService(t)
	ctx := context.Background()

	require.Equal(t, 1, s.Submit(ctx, "u1", []*models.Expense{expense("a", "-5")}).Inserted)

	repo.failIDs["c"] = errors.New("constraint")
	noDate := expense("d", "1")
	noDate.Date = timex.Date{}

	sum := s.Submit(ctx, "u1", []*models.Expense{
		expense("a", "-6"),
		expense("b", "-7.25"),
		expense("c", "1"),
		noDate,
		expense("", "1"),
	})

	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 3, sum.Failed)
	require.Len(t, sum.Results, 5)

	assert.Equal(t, models.UpsertUpdated, sum.Results[0].Status)
	assert.Equal(t, models.UpsertInserted, sum.Results[1].Status)
	assert.Equal(t, models.UpsertFailed, sum.Results[2].Status)
	assert.ErrorIs(t, sum.Results[3].Err, common.ErrValidation)
	assert.ErrorIs(t, sum.Results[4].Err, common.ErrValidation)

	stored := repo.rows[key("u1", "b")]
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.UserID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("-7.25")))
}

func TestSubmit_RejectsAmountsTheSchemaWouldRound(t *testing.T) {
	s, repo := newExpenseService(t)

	sum := s.Submit(context.Background(), "u1", []*models.Expense{
		expense("cents", "-50.12"),
		expense("trailing-zero", "-50.100"),
		expense("mills", "-50.125"),
	})

	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, models.UpsertFailed, sum.Results[2].Status)
	assert.ErrorIs(t, sum.Results[2].Err, common.ErrValidation)
	assert.NotContains(t, repo.rows, key("u1", "mills"))
}

func TestSubmit_StampsOwner(t *testing.T) {
	s, repo := newExpenseService(t)

	e := expense("x", "3")
	e.UserID = "someone-else"
	s.Submit(context.Background(), "u1", []*models.Expense{e})

	_, foreign := repo.rows[key("someone-else", "x")]
	assert.False(t, foreign)
	assert.Contains(t, repo.rows, key("u1", "x"))
}

func TestList_UsesFetchLimit(t *testing.T) {
	s, _ := newExpenseService(t)
	ctx := context.Background()
	s.Submit(ctx, "u1", []*models.Expense{expense("a", "1"), expense("b", "2"), expense("c", "3")})
	s.Submit(ctx, "u2", []*models.Expense{expense("z", "1")})

	got, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, "u1", e.UserID)
	}
}

func TestDelete(t *testing.T) {
	s, repo := newExpenseService(t)
	ctx := context.Background()
	s.Submit(ctx, "u1", []*models.Expense{expense("a", "1")})

	require.NoError(t, s.Delete(ctx, "u1", "a"))
	assert.True(t, repo.rows[key("u1", "a")].Deleted)

	assert.ErrorIs(t, s.Delete(ctx, "u2", "a"), common.ErrorNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "u1", ""), common.ErrValidation)
}

func TestExportStorageKey(t *testing.T) {
	k := ExportStorageKey("u1", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(k, "exports/u1/2025/3/4/"))
	assert.True(t, strings.HasSuffix(k, ".csv"))
}

func TestExport(t *testing.T) {
	s, _ := newExpenseService(t)
	ctx := context.Background()
	s.Submit(ctx, "u1", []*models.Expense{expense("a", "-50")})

	origPut, origPresign := putObject, presignGetObject
	t.Cleanup(func() { putObject, presignGetObject = origPut, origPresign })

	var uploaded string
	var uploadedKey string
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		uploaded = string(b)
		uploadedKey = aws.ToString(in.Key)
		assert.Equal(t, "exports", aws.ToString(in.Bucket))
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://example.test/" + aws.ToString(in.Key)}, nil
	}

	exp, err := s.Export(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, exp.Rows)
	assert.Equal(t, uploadedKey, exp.Key)
	assert.Equal(t, "https://example.test/"+uploadedKey, exp.URL)
	assert.Equal(t, s.now().Add(15*time.Minute), exp.ExpiresAt)

	lines := strings.Split(strings.TrimSpace(uploaded), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `a,2025-01-01,"coffee, large",-50.00,Food,Cafe,`))
}

func TestExport_UploadError(t *testing.T) {
	s, _ := newExpenseService(t)

	origPut := putObject
	t.Cleanup(func() { putObject = origPut })
	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket missing")
	}

	_, err := s.Export(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload export")
}

func TestExport_ListError(t *testing.T) {
	s, repo := newExpenseService(t)
	repo.listErr = errors.New("db down")

	_, err := s.Export(context.Background(), "u1")
	assert.EqualError(t, err, "db down")
}
