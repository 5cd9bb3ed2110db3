package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a member's password with bcrypt at the given
// cost.  The cost comes from configuration (BCRYPT_COST); tests use a
// low cost to stay fast.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt
// hash.  The comparison is constant-time inside bcrypt; callers only
// see a boolean so login failures never leak which part was wrong.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
