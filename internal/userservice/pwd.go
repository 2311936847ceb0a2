package userservice

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// unknownUserHash is compared against when a login names no user.
var unknownUserHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("inkpost unknown user"), passwordCost)
	if err != nil {
		panic(err)
	}
	return hash
})

func (p *Password) set(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return err
	}

	p.Plain = plain
	p.hash = hash

	return nil
}

// matches reports whether plain is the stored password.
func (p *Password) matches(plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// outdated reports whether the stored hash was made with another cost than passwordCost.
func (p *Password) outdated() bool {
	cost, err := bcrypt.Cost(p.hash)
	return err == nil && cost != passwordCost
}

// rejectUnknownUser spends one bcrypt comparison so a login for a missing user
// takes as long as one with a wrong password.
func rejectUnknownUser(plain string) error {
	_ = bcrypt.CompareHashAndPassword(unknownUserHash(), []byte(plain))
	return ErrAuthenticationFailure
}
