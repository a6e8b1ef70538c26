package sessionstore

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest session secret accepted.
const MinSecretLength = 32

// ErrShortSecret is returned by DeriveKeys for secrets under MinSecretLength.
var ErrShortSecret = errors.New("session secret must be at least 32 characters")

// DeriveKeys expands one configured secret into a securecookie
// hash key (64 bytes) and block key (32 bytes, AES-256).
func DeriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	if len(secret) < MinSecretLength {
		return nil, nil, ErrShortSecret
	}

	hashKey = make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("skills-session-hash")), hashKey); err != nil {
		return nil, nil, err
	}
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("skills-session-block")), blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}
