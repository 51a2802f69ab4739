package handler

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"echospace/internal/app/socket"
	"echospace/internal/app/storage"
	"echospace/internal/app/user"
	"echospace/internal/configs"
)

// dummyPassword is hashed once and compared against when a login names an unknown email,
// so that path costs as much as a wrong password.
const dummyPassword = "echospace-dummy-password"

type AppDeps struct {
	Config *configs.AppConfig
	Users  user.Store
	Hub    *socket.Hub

	// Storage is nil when object storage is not configured.
	Storage storage.StorageService

	// PasswordCost is the bcrypt cost for new hashes. Zero means bcrypt.DefaultCost.
	PasswordCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func (d *AppDeps) passwordCost() int {
	if d.PasswordCost == 0 {
		return bcrypt.DefaultCost
	}
	return d.PasswordCost
}

func (d *AppDeps) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.passwordCost())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// burnPasswordCheck performs a bcrypt comparison whose result is ignored.
func (d *AppDeps) burnPasswordCheck(password string) {
	d.dummyOnce.Do(func() {
		d.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), d.passwordCost())
	})
	_ = bcrypt.CompareHashAndPassword(d.dummyHash, []byte(password))
}
