package config

import "golang.org/x/crypto/bcrypt"

const jwtSecretVar = "JWT_SECRET"

type SecurityConfig interface {
	GetJWTSecret() string
	GetBcryptCost() int
	GetSeedAdmin() (email, password string)
	GetSeedClient() (id, secret string)
}

type Security struct {
	JWTSecret         string `env:"JWT_SECRET"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	SeedClientID      string `env:"SEED_CLIENT_ID"`
	SeedClientSecret  string `env:"SEED_CLIENT_SECRET"`
}

var _ SecurityConfig = Security{}

func (s Security) GetJWTSecret() string {
	return s.JWTSecret
}

func (s Security) GetBcryptCost() int {
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.BcryptCost
}

func (s Security) GetSeedAdmin() (string, string) {
	return s.SeedAdminEmail, s.SeedAdminPassword
}

func (s Security) GetSeedClient() (string, string) {
	return s.SeedClientID, s.SeedClientSecret
}
