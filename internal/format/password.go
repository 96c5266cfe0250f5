package format

import (
	"fmt"
	"strings"
)

type HashType string

const (
	HashShadow   HashType = "shadow"
	HashSHA512   HashType = "sha512"
	HashSHA256   HashType = "sha256"
	HashMD5      HashType = "md5"
	HashBcrypt   HashType = "bcrypt"
	HashYescrypt HashType = "yescrypt"
	HashDES      HashType = "des"
	HashEmpty    HashType = "empty"
	HashLocked   HashType = "locked"
)

// PasswordType classifies the password field of a passwd or shadow entry.
func PasswordType(hash string) (HashType, error) {
	switch {
	case hash == "x":
		return HashShadow, nil
	case hash == "":
		return HashEmpty, nil
	case strings.HasPrefix(hash, "!"), strings.HasPrefix(hash, "*"):
		return HashLocked, nil
	case strings.HasPrefix(hash, "$6$"):
		return HashSHA512, nil
	case strings.HasPrefix(hash, "$5$"):
		return HashSHA256, nil
	case strings.HasPrefix(hash, "$1$"):
		return HashMD5, nil
	case strings.HasPrefix(hash, "$2$"), strings.HasPrefix(hash, "$2a$"),
		strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return HashBcrypt, nil
	case strings.HasPrefix(hash, "$y$"), strings.HasPrefix(hash, "$7$"):
		return HashYescrypt, nil
	case len(hash) == 13:
		return HashDES, nil
	}
	return "", fmt.Errorf("unknown password type: %q", hash)
}
