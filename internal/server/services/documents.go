package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	sc "github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry bounds how long an upload or download URL stays usable.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// UploadTicket tells the client where to PUT a document.
type UploadTicket struct {
	DocumentID string
	StorageKey string
	URL        string
	ExpiresAt  time.Time
}

// DocumentService hands out presigned S3 URLs for company onboarding
// documents. The server never proxies document bytes.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "documents"),
		now:         time.Now,
	}
}

// StorageKey lays documents out per company and kind.
func StorageKey(companyID string, kind models.DocumentKind) string {
	return fmt.Sprintf("companies/%s/%s/%v", companyID, kind, uuid.New())
}

func (s *DocumentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
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

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// ownedVerifiedCompany returns common.ErrorNotFound for companies of other
// owners and common.ErrAccountNotVerified while the contact email is
// unconfirmed.
func (s *DocumentService) ownedVerifiedCompany(ctx context.Context, ownerID, companyID string) (*models.Company, error) {
	company, err := s.repomanager.Companies(s.db).FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	if !company.Verified {
		return nil, common.ErrAccountNotVerified
	}
	return company, nil
}

// PresignUpload records a new document and returns a presigned PUT URL for it.
func (s *DocumentService) PresignUpload(ctx context.Context, ownerID, companyID string, kind models.DocumentKind) (*UploadTicket, error) {
	if !kind.Valid() {
		return nil, common.NewValidationError(map[string]string{"kind": "must be one of: pitch_deck cap_table incorporation"})
	}

	company, err := s.ownedVerifiedCompany(ctx, ownerID, companyID)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		s.logger.Error(ctx, "s3 client setup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}

	bucket := s.config.S3Bucket
	key := StorageKey(company.ID, kind)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		s.logger.Error(ctx, "presign put failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}

	doc := &models.CompanyDocument{CompanyID: company.ID, Kind: kind, StorageKey: key}
	if err := s.repomanager.Documents(s.db).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("error creating document: %w", err)
	}

	s.logger.Info(ctx, "document upload presigned", "company_id", company.ID, "document_id", doc.ID, "kind", kind)
	return &UploadTicket{DocumentID: doc.ID, StorageKey: key, URL: req.URL, ExpiresAt: s.now().Add(PresignExpiry)}, nil
}

// PresignDownload returns a presigned GET URL for a document of a company
// owned by ownerID.
func (s *DocumentService) PresignDownload(ctx context.Context, ownerID, documentID string) (string, error) {
	doc, err := s.repomanager.Documents(s.db).FindByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if _, err := s.ownedVerifiedCompany(ctx, ownerID, doc.CompanyID); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &doc.StorageKey,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}

	return req.URL, nil
}

// ListDocuments returns the documents of a company owned by ownerID.
func (s *DocumentService) ListDocuments(ctx context.Context, ownerID, companyID string) ([]*models.CompanyDocument, error) {
	if _, err := s.ownedVerifiedCompany(ctx, ownerID, companyID); err != nil {
		return nil, err
	}
	return s.repomanager.Documents(s.db).ListByCompany(ctx, companyID)
}
