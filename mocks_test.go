package accounts_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
)

func testConfig() *accounts.SimpleConfig {
	return &accounts.SimpleConfig{
		SigningKey:          "test-signing-key",
		TokenTTL:            time.Hour,
		Issuer:              "accounts-test",
		ContextKey:          "account",
		AuthScheme:          "Bearer",
		VerificationBaseURL: "http://localhost:3000/api/auth/verify",
		MailFrom:            "no-reply@test.local",
	}
}

// memoryStore is an in-memory Accounts implementation. It mirrors the
// persisted-store contract: duplicate emails conflict, lookups on missing
// records report not found, and spent verification tokens never match again.
type memoryStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]accounts.Account
}

var _ accounts.Accounts = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: map[uuid.UUID]accounts.Account{}}
}

func (s *memoryStore) snapshot(id uuid.UUID) (accounts.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[id]
	return record, ok
}

func (s *memoryStore) Register(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	return s.RegisterTx(ctx, nil, account)
}

func (s *memoryStore) RegisterTx(ctx context.Context, tx bun.IDB, account *accounts.Account) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Email == account.Email {
			return nil, accounts.ErrEmailInUse
		}
	}

	record := *account
	record.EnsureTier()
	if record.AvatarURL == "" {
		record.AvatarURL = accounts.DefaultAvatarURL(record.Email)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.byID[record.ID] = record

	out := record
	return &out, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[parsed]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	out := record
	return &out, nil
}

func (s *memoryStore) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return s.GetByEmailTx(ctx, nil, email)
}

func (s *memoryStore) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.byID {
		if record.Email == email {
			out := record
			return &out, nil
		}
	}

	return nil, repository.NewRecordNotFound()
}

func (s *memoryStore) GetByVerificationToken(ctx context.Context, token string) (*accounts.Account, error) {
	return s.GetByVerificationTokenTx(ctx, nil, token)
}

func (s *memoryStore) GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*accounts.Account, error) {
	if token == "" {
		return nil, repository.NewRecordNotFound()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.byID {
		if record.VerificationToken == token {
			out := record
			return &out, nil
		}
	}

	return nil, repository.NewRecordNotFound()
}

func (s *memoryStore) MarkVerified(ctx context.Context, token string) error {
	return s.MarkVerifiedTx(ctx, nil, token)
}

func (s *memoryStore) MarkVerifiedTx(ctx context.Context, tx bun.IDB, token string) error {
	if token == "" {
		return accounts.ErrVerificationNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.byID {
		if record.VerificationToken == token {
			record.IsVerified = true
			record.VerificationToken = ""
			s.byID[id] = record
			return nil
		}
	}

	return accounts.ErrVerificationNotFound
}

func (s *memoryStore) SetSessionToken(ctx context.Context, id uuid.UUID, token string) error {
	return s.SetSessionTokenTx(ctx, nil, id, token)
}

func (s *memoryStore) SetSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.byID[id]; ok {
		record.SessionToken = token
		s.byID[id] = record
	}

	return nil
}

func (s *memoryStore) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	return s.ClearSessionTokenTx(ctx, nil, id)
}

func (s *memoryStore) ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return s.SetSessionTokenTx(ctx, tx, id, "")
}

func (s *memoryStore) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return s.SetAvatarURLTx(ctx, nil, id, avatarURL)
}

func (s *memoryStore) SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.byID[id]; ok {
		record.AvatarURL = avatarURL
		s.byID[id] = record
	}

	return nil
}

// memoryRepoManager satisfies RepositoryManager for tests. RunInTx has no
// transaction to offer, so it invokes the callback with a zero bun.Tx; the
// memoryStore ignores the tx handle entirely.
type memoryRepoManager struct {
	store *memoryStore
}

var _ accounts.RepositoryManager = (*memoryRepoManager)(nil)

func newMemoryRepoManager() *memoryRepoManager {
	return &memoryRepoManager{store: newMemoryStore()}
}

func (m *memoryRepoManager) Validate() error { return nil }

func (m *memoryRepoManager) MustValidate() {}

func (m *memoryRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (m *memoryRepoManager) Accounts() accounts.Accounts {
	return m.store
}

// recordingMailer captures outbound messages and optionally fails delivery
type recordingMailer struct {
	mu   sync.Mutex
	sent []accounts.Message
	fail error
}

var _ accounts.Mailer = (*recordingMailer)(nil)

func (m *recordingMailer) Send(ctx context.Context, msg accounts.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}

	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []accounts.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]accounts.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// stubMinter returns tokens from a fixed sequence
type stubMinter struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

var _ accounts.VerificationTokens = (*stubMinter)(nil)

func (s *stubMinter) Mint() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.tokens) {
		return "token-overflow"
	}

	token := s.tokens[s.next]
	s.next++
	return token
}

// stubAvatarStore records Put calls and returns a canned URL or error
type stubAvatarStore struct {
	url    string
	fail   error
	puts   int
	lastID uuid.UUID
	last   accounts.Asset
}

var _ accounts.AvatarStore = (*stubAvatarStore)(nil)

func (s *stubAvatarStore) Put(ctx context.Context, accountID uuid.UUID, asset accounts.Asset) (string, error) {
	s.puts++
	s.lastID = accountID
	s.last = asset

	if s.fail != nil {
		return "", s.fail
	}

	return s.url, nil
}
