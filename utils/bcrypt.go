package utils

import "golang.org/x/crypto/bcrypt"

func HashPassword(s string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword returns ErrInvalidCredentials on mismatch.
func ComparePassword(hashed string, normal string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return ErrInvalidCredentials
	}
	return err
}
