package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the cost of a miss equal to a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("obituary-service/dummy"), bcrypt.DefaultCost)

func HashPassword(pw string) (string, error) {
	if pw == "" {
		return "", errors.New("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// BurnPasswordCheck runs a comparison that always fails, for the unknown-account path.
func BurnPasswordCheck(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
