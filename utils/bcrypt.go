package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of a password at the default cost,
// ready to store in the users table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword checks a candidate password against a stored hash.
func ComparePassword(hashed string, candidate string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate))
}
