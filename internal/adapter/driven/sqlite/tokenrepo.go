package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// tokenSlot is the fixed key the bearer credential lives under.
const tokenSlot = "bearer_token"

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port. When a
// 32-byte key is provided, values are encrypted with AES-256-GCM at rest;
// with a nil key the token is stored plaintext, matching the original
// browser client's localStorage behavior.
type TokenRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key, or nil for plaintext storage.
}

// NewTokenRepo creates a TokenRepo. key must be 32 bytes or nil.
func NewTokenRepo(db *DB, key []byte) (*TokenRepo, error) {
	if key != nil && len(key) != 32 {
		return nil, fmt.Errorf("token encryption key must be 32 bytes, got %d", len(key))
	}
	return &TokenRepo{db: db, key: key}, nil
}

// Set stores the credential, overwriting any previous value.
func (r *TokenRepo) Set(ctx context.Context, token string) error {
	stored, err := r.encrypt(token)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO credentials (slot, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, tokenSlot, stored); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

// Get returns the stored credential, or ("", nil) when the slot is empty.
func (r *TokenRepo) Get(ctx context.Context) (string, error) {
	const query = `SELECT value FROM credentials WHERE slot = ?`
	var stored string
	err := r.db.Reader.QueryRowContext(ctx, query, tokenSlot).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}

	token, err := r.decrypt(stored)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return token, nil
}

// Clear removes the credential. Clearing an empty slot is not an error.
func (r *TokenRepo) Clear(ctx context.Context) error {
	const query = `DELETE FROM credentials WHERE slot = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, tokenSlot); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// encrypt encrypts plaintext with AES-256-GCM and base64-encodes
// nonce || ciphertext || tag. Passthrough when no key is configured.
func (r *TokenRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return plaintext, nil
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt reverses encrypt. Passthrough when no key is configured.
func (r *TokenRepo) decrypt(stored string) (string, error) {
	if r.key == nil {
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
