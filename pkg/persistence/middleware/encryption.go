package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
)

// SealedName names the single record of a sealed submission.
const SealedName = "sealed"

const sealedField = "ciphertext"

// ErrNotSealed is returned when loading a submission that was stored in the clear.
var ErrNotSealed = errors.New("submission is not sealed")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a
	// submission, so keys can be rotated without re-sealing old results.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.ResultStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals every submission with AES-GCM. The stored
// submission keeps its spec ID so List and Load still work, but its
// responses are replaced by one opaque record.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.ResultStore) ports.ResultStore {
		return &encryptionMiddleware{next: next, config: config}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, sub domain.Submission) error {
	plainText, err := json.Marshal(sub.Responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to seal submission: %w", err)
	}

	envelope := domain.Submission{
		SpecID: sub.SpecID,
		Responses: []domain.ResponseRecord{{
			SpecID: sub.SpecID,
			Name:   SealedName,
			Values: map[string]any{sealedField: base64.StdEncoding.EncodeToString(ciphertext)},
		}},
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, specID string) (*domain.Submission, error) {
	envelope, err := m.next.Load(ctx, specID)
	if err != nil {
		return nil, err
	}

	if len(envelope.Responses) != 1 || envelope.Responses[0].Name != SealedName {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, specID)
	}
	encoded, ok := envelope.Responses[0].Values[sealedField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, specID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission %s: %w", specID, err)
	}

	sub := &domain.Submission{SpecID: envelope.SpecID}
	if err := json.Unmarshal(plainText, &sub.Responses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
	}
	return sub, nil
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
