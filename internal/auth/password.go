package auth

import "golang.org/x/crypto/bcrypt"

// HashAccessKey hashes an agent access key for storage.
func HashAccessKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareAccessKey verifies an access key against its stored hash.
func CompareAccessKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
