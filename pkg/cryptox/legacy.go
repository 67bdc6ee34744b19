package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Scheme names the algorithm a stored password value was produced with.
type Scheme string

const (
	SchemeArgon2id     Scheme = "argon2id"
	SchemePBKDF2SHA256 Scheme = "pbkdf2_sha256"
	SchemeBcrypt       Scheme = "bcrypt"
	SchemeBcryptSHA256 Scheme = "bcrypt_sha256"
	SchemeUnknown      Scheme = ""
)

// IdentifyHash reports which scheme produced stored. Values in the Django
// formats carried over from older deployments are recognised alongside our
// own argon2id hashes.
func IdentifyHash(stored string) Scheme {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return SchemeArgon2id
	case strings.HasPrefix(stored, "pbkdf2_sha256$"):
		return SchemePBKDF2SHA256
	case strings.HasPrefix(stored, "bcrypt_sha256$"):
		return SchemeBcryptSHA256
	case strings.HasPrefix(stored, "bcrypt$"),
		strings.HasPrefix(stored, "$2a$"),
		strings.HasPrefix(stored, "$2b$"),
		strings.HasPrefix(stored, "$2y$"):
		return SchemeBcrypt
	default:
		return SchemeUnknown
	}
}

// NeedsRehash is true for every scheme other than the native one.
func (s Scheme) NeedsRehash() bool { return s != SchemeArgon2id }

// CheckPassword verifies password against stored in whichever supported
// format it is in. It returns ErrMismatch for a wrong password and
// ErrUnknownHash when stored is not a recognised hash at all.
func CheckPassword(password, stored string) (Scheme, error) {
	scheme := IdentifyHash(stored)
	switch scheme {
	case SchemeArgon2id:
		if err := VerifyPassword(password, stored); err != nil {
			if errors.Is(err, ErrMismatch) {
				return scheme, ErrMismatch
			}
			return scheme, errors.Join(ErrUnknownHash, err)
		}
		return scheme, nil
	case SchemePBKDF2SHA256:
		return scheme, checkDjangoPBKDF2(password, stored)
	case SchemeBcrypt:
		return scheme, checkBcrypt([]byte(password), strings.TrimPrefix(stored, "bcrypt$"))
	case SchemeBcryptSHA256:
		sum := sha256.Sum256([]byte(password))
		digest := []byte(hex.EncodeToString(sum[:]))
		return scheme, checkBcrypt(digest, strings.TrimPrefix(stored, "bcrypt_sha256$"))
	default:
		return scheme, ErrUnknownHash
	}
}

// MatchPlaintext reports whether stored is the unhashed password itself.
// Only rows written before passwords were hashed look like this.
func MatchPlaintext(password, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

// checkDjangoPBKDF2 verifies "pbkdf2_sha256$<iterations>$<salt>$<base64 hash>".
func checkDjangoPBKDF2(password, stored string) error {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return ErrUnknownHash
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter <= 0 {
		return ErrUnknownHash
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return ErrUnknownHash
	}

	computed := pbkdf2.Key([]byte(password), []byte(parts[2]), iter, len(expected), sha256.New)
	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrMismatch
}

// HashDjangoPBKDF2 produces a Django-compatible pbkdf2_sha256 value. The
// service never writes these; it exists so legacy rows can be fabricated in
// tests and fixtures.
func HashDjangoPBKDF2(password, salt string, iter int) string {
	dk := pbkdf2.Key([]byte(password), []byte(salt), iter, sha256.Size, sha256.New)
	return "pbkdf2_sha256$" + strconv.Itoa(iter) + "$" + salt + "$" + base64.StdEncoding.EncodeToString(dk)
}

func checkBcrypt(password []byte, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return errors.Join(ErrUnknownHash, err)
	}
}
