package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/format"
	"github.com/hnrobert/etcapi/internal/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user is locked")
	ErrUnsupportedHash    = errors.New("unsupported password hash")
)

// AdminGroups grant admin rights to their members.
var AdminGroups = []string{"sudo", "wheel"}

// Authenticator verifies credentials against a shadow database and derives
// admin rights from a group database. Group may be nil, then nobody is
// admin.
type Authenticator struct {
	Shadow database.Database
	Group  database.Database
	// SuFallback enables su(1) verification for hashes this package cannot
	// check itself, such as yescrypt.
	SuFallback bool
	// SuPath and SuTimeout tune the su fallback; see DefaultSuPath.
	SuPath    string
	SuTimeout time.Duration
	Log       *logger.Logger
}

func (a *Authenticator) VerifyPassword(ctx context.Context, username, password string) error {
	if a.Shadow == nil {
		return fmt.Errorf("%w: no shadow database configured", ErrAuthBackend)
	}
	entries, err := database.Values[format.ShadowEntry](ctx, a.Shadow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}
	var se *format.ShadowEntry
	for i := range entries {
		if entries[i].Name == username {
			se = &entries[i]
			break
		}
	}
	if se == nil {
		return ErrInvalidCredentials
	}
	if t, _ := format.PasswordType(se.Hash); t == format.HashLocked || t == format.HashEmpty {
		return ErrUserLocked
	}
	ok, err := verifyCrypt(se.Hash, password)
	if err != nil {
		if errors.Is(err, ErrUnsupportedHash) && a.SuFallback {
			a.Log.Debug("auth: %s uses an unsupported hash, falling back to su", username)
			ok, err = a.verifyWithSu(ctx, username, password)
		}
		if err != nil {
			return err
		}
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func verifyCrypt(hash, password string) (bool, error) {
	var c crypt.Crypter
	switch t, _ := format.PasswordType(hash); t {
	case format.HashSHA512:
		c = sha512_crypt.New()
	case format.HashSHA256:
		c = sha256_crypt.New()
	case format.HashMD5:
		c = md5_crypt.New()
	default:
		return false, ErrUnsupportedHash
	}
	return c.Verify(hash, []byte(password)) == nil, nil
}

// HashPassword returns a sha512-crypt hash with a random salt, suitable for
// a shadow entry.
func HashPassword(password string) (string, error) {
	return sha512_crypt.New().Generate([]byte(password), nil)
}

func (a *Authenticator) IsAdmin(ctx context.Context, username string) (bool, error) {
	if a.Group == nil {
		return false, nil
	}
	groups, err := database.Values[format.GroupEntry](ctx, a.Group)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		for _, name := range AdminGroups {
			if g.Name == name && g.HasMember(username) {
				return true, nil
			}
		}
	}
	return false, nil
}

func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrUserLocked):
		return "This account is locked."
	case errors.Is(err, ErrUnsupportedHash):
		return "This host uses an unsupported password hash format."
	default:
		return fmt.Sprintf("Authentication failed: %v", strings.TrimSpace(err.Error()))
	}
}
