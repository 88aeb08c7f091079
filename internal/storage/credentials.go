package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// credentialID pins the credentials table to a single row.
const credentialID = 1

// GetOrCreateToken returns the stored API token, generating and persisting
// one if the singleton record is absent. The check-then-create runs under
// the store mutex so concurrent callers observe the same token.
func (s *sqliteStore) GetOrCreateToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.readToken(ctx)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	token = uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, api_token) VALUES (?, ?)`,
		credentialID, token,
	); err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err)
	}

	return token, nil
}

func (s *sqliteStore) Token(ctx context.Context) (string, error) {
	return s.readToken(ctx)
}

// ResetToken overwrites the singleton credential with a fresh token.
func (s *sqliteStore) ResetToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO credentials (id, api_token) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET api_token = excluded.api_token
    `, credentialID, token); err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err)
	}

	return token, nil
}

// DeleteToken removes the credential record entirely. The next
// GetOrCreateToken mints a fresh token.
func (s *sqliteStore) DeleteToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE id = ?`, credentialID,
	); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) readToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT api_token FROM credentials WHERE id = ?`, credentialID,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err)
	}

	return token, nil
}
