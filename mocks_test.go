package accounts

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// stubIdentityStore keeps identities in memory and enforces the same unique
// columns the real schema does, surfacing sqlite-shaped violation errors.
type stubIdentityStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Identity

	createCalls int
	linkCalls   int

	failCreate error
	failGet    error
}

func newStubIdentityStore() *stubIdentityStore {
	return &stubIdentityStore{records: map[uuid.UUID]*Identity{}}
}

func (s *stubIdentityStore) add(record *Identity) *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records[record.ID] = record
	return record
}

func (s *stubIdentityStore) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, ErrIdentityNotFound
}

func (s *stubIdentityStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Email == email {
			clone := *record
			return &clone, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (s *stubIdentityStore) GetBySubject(ctx context.Context, provider, subjectID string) (*Identity, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Provider == provider && record.ExternalSubjectID == subjectID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (s *stubIdentityStore) HandleExists(ctx context.Context, handle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.LoginHandle == handle {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubIdentityStore) Create(ctx context.Context, record *Identity) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.failCreate != nil {
		return nil, s.failCreate
	}

	for _, existing := range s.records {
		if existing.Email == record.Email {
			return nil, errors.New("UNIQUE constraint failed: identities.email")
		}
		if existing.LoginHandle == record.LoginHandle {
			return nil, errors.New("UNIQUE constraint failed: identities.login_handle")
		}
		if record.ExternalSubjectID != "" &&
			existing.Provider == record.Provider &&
			existing.ExternalSubjectID == record.ExternalSubjectID {
			return nil, errors.New("UNIQUE constraint failed: identities.external_subject_id")
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	clone := *record
	s.records[record.ID] = &clone
	return record, nil
}

func (s *stubIdentityStore) LinkExternal(ctx context.Context, id uuid.UUID, provider, subjectID string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.linkCalls++

	record, ok := s.records[id]
	if !ok || record.ExternalSubjectID != "" {
		return nil, ErrIdentityNotFound
	}

	record.Provider = provider
	record.ExternalSubjectID = subjectID
	clone := *record
	return &clone, nil
}

var _ Identities = (*stubIdentityStore)(nil)
