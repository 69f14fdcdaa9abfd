package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/email"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/companies"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/documents"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/resettokens"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// --- limiter / sender ---

type fakeLimiter struct {
	calls []string
	deny  map[string]bool
	err   error
}

func (f *fakeLimiter) Guard(ctx context.Context, action, subject string, p config.RateLimitPolicy) error {
	key := rateKey(action, subject)
	f.calls = append(f.calls, key)
	if f.err != nil {
		return f.err
	}
	if f.deny[action] {
		return &common.RateLimitError{Limit: p.MaxAttempts, ResetAt: testNow.Add(p.Window)}
	}
	return nil
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, m email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

// --- credentials ---

type fakeCredRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Credential
	nextID int

	findErr   error
	createErr error
	setOTPErr error
	markErr   error

	updatePendingCalls int
	clearCalls         int
	markCalls          int
	staleBefore        time.Time
	passwordUpdates    map[string]string
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{byID: map[string]*models.Credential{}, passwordUpdates: map[string]string{}}
}

func (f *fakeCredRepo) put(c *models.Credential) *models.Credential {
	if c.ID == "" {
		f.nextID++
		c.ID = fmt.Sprintf("cred-%d", f.nextID)
	}
	f.byID[c.ID] = c
	return c
}

func (f *fakeCredRepo) byEmail(email string) *models.Credential {
	for _, c := range f.byID {
		if c.Email == email {
			return c
		}
	}
	return nil
}

func (f *fakeCredRepo) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	c := f.byEmail(email)
	if c == nil {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCredRepo) FindByEmailForUpdate(ctx context.Context, email string) (*models.Credential, error) {
	return f.FindByEmail(ctx, email)
}

func (f *fakeCredRepo) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCredRepo) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.byEmail(c.Email) != nil {
		return nil, common.ErrAlreadyExists
	}
	cp := *c
	cp.ID = ""
	cp.CreatedAt = testNow
	stored := f.put(&cp)
	out := *stored
	return &out, nil
}

func (f *fakeCredRepo) UpdatePending(ctx context.Context, c *models.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatePendingCalls++
	cur, ok := f.byID[c.ID]
	if !ok || cur.Verified() {
		return common.ErrorNotFound
	}
	cur.PasswordHash = c.PasswordHash
	cur.FirstName = c.FirstName
	cur.LastName = c.LastName
	cur.Role = c.Role
	cur.PendingProfile = c.PendingProfile
	return nil
}

func (f *fakeCredRepo) SetOTP(ctx context.Context, id, hash string, expiresAt, issuedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setOTPErr != nil {
		return f.setOTPErr
	}
	c, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.OTPHash = &hash
	c.OTPExpiresAt = &expiresAt
	c.OTPIssuedAt = &issuedAt
	c.OTPIssueCount++
	return nil
}

func (f *fakeCredRepo) ClearOTP(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	c, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.OTPHash, c.OTPExpiresAt, c.OTPIssuedAt = nil, nil, nil
	return nil
}

func (f *fakeCredRepo) MarkVerified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	c, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.State = models.StateVerified
	c.OTPHash, c.OTPExpiresAt, c.OTPIssuedAt = nil, nil, nil
	c.PendingProfile = nil
	return nil
}

func (f *fakeCredRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.PasswordHash = hash
	f.passwordUpdates[id] = hash
	return nil
}

func (f *fakeCredRepo) PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error) {
	return 2, nil
}

func (f *fakeCredRepo) DeleteStalePending(ctx context.Context, before time.Time) (int64, error) {
	f.staleBefore = before
	return 1, nil
}

// --- rate limits ---

type fakeRateRepo struct {
	counters   map[string]*models.RateLimitCounter
	acquireErr error
	writes     int
	lastBefore time.Time
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{counters: map[string]*models.RateLimitCounter{}}
}

func (f *fakeRateRepo) Acquire(ctx context.Context, key string, now time.Time) (*models.RateLimitCounter, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	c, ok := f.counters[key]
	if !ok {
		c = &models.RateLimitCounter{Key: key, WindowStart: now}
		f.counters[key] = c
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRateRepo) Reset(ctx context.Context, key string, count int, windowStart time.Time) error {
	f.writes++
	f.counters[key] = &models.RateLimitCounter{Key: key, Count: count, WindowStart: windowStart}
	return nil
}

func (f *fakeRateRepo) Increment(ctx context.Context, key string) (int, error) {
	f.writes++
	f.counters[key].Count++
	return f.counters[key].Count, nil
}

func (f *fakeRateRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	f.lastBefore = before
	return 4, nil
}

// --- companies / profiles ---

type fakeCompaniesRepo struct {
	byID     map[string]*models.Company
	nextID   int
	purgeErr error
}

func newFakeCompaniesRepo() *fakeCompaniesRepo {
	return &fakeCompaniesRepo{byID: map[string]*models.Company{}}
}

func (f *fakeCompaniesRepo) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	f.nextID++
	cp := *c
	cp.ID = fmt.Sprintf("co-%d", f.nextID)
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCompaniesRepo) FindByID(ctx context.Context, id string) (*models.Company, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCompaniesRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Company, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeCompaniesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Company, error) {
	var out []*models.Company
	for _, c := range f.byID {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCompaniesRepo) SetOTP(ctx context.Context, id, hash string, expiresAt time.Time) error {
	c := f.byID[id]
	c.OTPHash = &hash
	c.OTPExpiresAt = &expiresAt
	return nil
}

func (f *fakeCompaniesRepo) ClearOTP(ctx context.Context, id string) error {
	c := f.byID[id]
	c.OTPHash, c.OTPExpiresAt = nil, nil
	return nil
}

func (f *fakeCompaniesRepo) MarkVerified(ctx context.Context, id string) error {
	c := f.byID[id]
	c.Verified = true
	c.OTPHash, c.OTPExpiresAt = nil, nil
	return nil
}

func (f *fakeCompaniesRepo) PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	return 3, nil
}

type fakeProfilesRepo struct {
	investors    map[string]*models.Investor
	shareholders map[string]*models.Shareholder
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{investors: map[string]*models.Investor{}, shareholders: map[string]*models.Shareholder{}}
}

func (f *fakeProfilesRepo) CreateInvestor(ctx context.Context, p *models.Investor) error {
	if _, ok := f.investors[p.CredentialID]; ok {
		return common.ErrAlreadyExists
	}
	f.investors[p.CredentialID] = p
	return nil
}

func (f *fakeProfilesRepo) CreateShareholder(ctx context.Context, p *models.Shareholder) error {
	if _, ok := f.shareholders[p.CredentialID]; ok {
		return common.ErrAlreadyExists
	}
	f.shareholders[p.CredentialID] = p
	return nil
}

func (f *fakeProfilesRepo) FindInvestor(ctx context.Context, id string) (*models.Investor, error) {
	if p, ok := f.investors[id]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProfilesRepo) FindShareholder(ctx context.Context, id string) (*models.Shareholder, error) {
	if p, ok := f.shareholders[id]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

// --- reset tokens / documents ---

type fakeResetRepo struct {
	tokens        map[string]*models.ResetToken
	deletedForIDs []string
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*models.ResetToken{}}
}

func (f *fakeResetRepo) Create(ctx context.Context, t *models.ResetToken) error {
	t.CreatedAt = testNow
	f.tokens[t.TokenHash] = t
	return nil
}

func (f *fakeResetRepo) FindForUpdate(ctx context.Context, hash string) (*models.ResetToken, error) {
	t, ok := f.tokens[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeResetRepo) Delete(ctx context.Context, hash string) error {
	delete(f.tokens, hash)
	return nil
}

func (f *fakeResetRepo) DeleteByCredential(ctx context.Context, credentialID string) error {
	f.deletedForIDs = append(f.deletedForIDs, credentialID)
	for h, t := range f.tokens {
		if t.CredentialID == credentialID {
			delete(f.tokens, h)
		}
	}
	return nil
}

func (f *fakeResetRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 5, nil
}

type fakeDocsRepo struct {
	docs   map[string]*models.CompanyDocument
	nextID int
}

func newFakeDocsRepo() *fakeDocsRepo {
	return &fakeDocsRepo{docs: map[string]*models.CompanyDocument{}}
}

func (f *fakeDocsRepo) Create(ctx context.Context, d *models.CompanyDocument) error {
	f.nextID++
	d.ID = fmt.Sprintf("doc-%d", f.nextID)
	d.CreatedAt = testNow
	f.docs[d.ID] = d
	return nil
}

func (f *fakeDocsRepo) FindByID(ctx context.Context, id string) (*models.CompanyDocument, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocsRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.CompanyDocument, error) {
	var out []*models.CompanyDocument
	for _, d := range f.docs {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- manager ---

type fakeRepoManager struct {
	creds     *fakeCredRepo
	rates     *fakeRateRepo
	companies *fakeCompaniesRepo
	profiles  *fakeProfilesRepo
	resets    *fakeResetRepo
	docs      *fakeDocsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		creds:     newFakeCredRepo(),
		rates:     newFakeRateRepo(),
		companies: newFakeCompaniesRepo(),
		profiles:  newFakeProfilesRepo(),
		resets:    newFakeResetRepo(),
		docs:      newFakeDocsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentials.Repository { return m.creds }
func (m *fakeRepoManager) RateLimits(db dbx.DBTX) ratelimits.Repository { return m.rates }
func (m *fakeRepoManager) Companies(db dbx.DBTX) companies.Repository { return m.companies }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profiles.Repository { return m.profiles }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokens.Repository { return m.resets }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository { return m.docs }
