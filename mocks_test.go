package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/rxgate/go-auth"
)

// userStoreAdapter narrows the variadic repository lookup to the
// non-variadic auth.UserStore signature.
type userStoreAdapter struct{ users auth.Users }

func (a userStoreAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockActivitySink implements auth.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// captureDispatcher collects enqueued mail for assertions.
type captureDispatcher struct {
	mu       sync.Mutex
	messages []auth.MailMessage
}

func (d *captureDispatcher) Enqueue(msg auth.MailMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

func (d *captureDispatcher) Messages() []auth.MailMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]auth.MailMessage, len(d.messages))
	copy(out, d.messages)
	return out
}

// recordingMailer implements auth.Mailer and signals each delivery.
type recordingMailer struct {
	mu        sync.Mutex
	delivered []auth.MailMessage
	notify    chan struct{}
	err       error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{notify: make(chan struct{}, 16)}
}

func (m *recordingMailer) Send(ctx context.Context, msg auth.MailMessage) error {
	m.mu.Lock()
	m.delivered = append(m.delivered, msg)
	err := m.err
	m.mu.Unlock()
	m.notify <- struct{}{}
	return err
}

func (m *recordingMailer) Delivered() []auth.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.MailMessage, len(m.delivered))
	copy(out, m.delivered)
	return out
}

const (
	sqliteCreateUsers = `CREATE TABLE users (
	id TEXT NOT NULL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	phone_number TEXT,
	password_hash TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	practice_id TEXT,
	converted_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	deleted_at TIMESTAMP
);`

	sqliteCreatePractices = `CREATE TABLE medical_practices (
	id TEXT NOT NULL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	address_line_1 TEXT NOT NULL,
	address_line_2 TEXT,
	city TEXT NOT NULL,
	state TEXT,
	postcode TEXT NOT NULL,
	master_user_id TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreateRegistrationTokens = `CREATE TABLE registration_tokens (
	id TEXT NOT NULL PRIMARY KEY,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	consumed_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreatePermissionGrants = `CREATE TABLE permission_grants (
	id TEXT NOT NULL PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, name)
);`
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	for _, stmt := range []string{
		sqliteCreateUsers,
		sqliteCreatePractices,
		sqliteCreateRegistrationTokens,
		sqliteCreatePermissionGrants,
	} {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	return bunDB
}

func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	return auth.NewRepositoryManager(newTestDB(t))
}

// testConfig implements auth.Config
type testConfig struct {
	signingKey string
	ttl        string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }

func (c testConfig) GetContextKey() string { return "user" }

func (c testConfig) GetTokenExpiration() int { return 24 }

func (c testConfig) GetTokenLookup() string { return "header:Authorization" }

func (c testConfig) GetAuthScheme() string { return "Bearer" }

func (c testConfig) GetIssuer() string { return "test-issuer" }

func (c testConfig) GetAudience() []string { return []string{"test-audience"} }

func (c testConfig) GetRegistrationTokenTTL() string {
	if c.ttl == "" {
		return "72h"
	}
	return c.ttl
}

func (c testConfig) GetSignupBaseURL() string { return "https://app.example.com" }

func seedActiveUser(t *testing.T, repo auth.RepositoryManager, username, email, password string, perms ...string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &auth.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Status:       auth.UserStatusActive,
	})
	require.NoError(t, err)

	if len(perms) > 0 {
		require.NoError(t, repo.PermissionGrants().Grant(context.Background(), user.ID, perms...))
	}

	return user
}

func seedPendingUser(t *testing.T, repo auth.RepositoryManager, username, email string) (*auth.User, *auth.RegistrationToken) {
	t.Helper()

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Username: username,
		Email:    email,
		Status:   auth.UserStatusPending,
	})
	require.NoError(t, err)

	token, err := repo.RegistrationTokens().Create(
		context.Background(),
		auth.IssueRegistrationToken(user.ID, auth.KindPracticeAdmin),
	)
	require.NoError(t, err)

	return user, token
}
