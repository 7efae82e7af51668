package security

import "golang.org/x/crypto/bcrypt"

// Verifier hashes and checks passwords. It is handed to the auth layer as
// an explicit dependency; there is no package-level default.
type Verifier interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

// BcryptVerifier is the production Verifier.
type BcryptVerifier struct {
	Cost int
}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{Cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.Cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (v *BcryptVerifier) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
