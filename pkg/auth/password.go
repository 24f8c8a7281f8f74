package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes an account password with bcrypt. The variadic cost
// exists for tests, which pass a low cost to keep hashing fast; production
// callers omit it and get the bcrypt default.
func HashPassword(password string, cost ...int) (string, error) {
	bcryptCost := bcrypt.DefaultCost
	if len(cost) > 0 {
		bcryptCost = cost[0]
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
