package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"studynotes/config"
	"studynotes/models"
	"studynotes/store"
)

// User-visible failures. Handlers render the error text as is.
var (
	ErrPasswordMismatch   = errors.New("Passwords do not match.")
	ErrEmailExists        = errors.New("Email already exists.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrGoogleUnavailable  = errors.New("Google authentication is not available.")
)

// Provider is the identity backend behind signup and login.
type Provider interface {
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// NewProvider picks the backend named by cfg.AuthProvider.
func NewProvider(cfg *config.Config, s *store.Store) Provider {
	if cfg.AuthProvider == config.ProviderFirebase {
		return NewFirebaseProvider(cfg.FirebaseBaseURL, cfg.FirebaseAPIKey)
	}
	return NewLocalProvider(s, cfg.BcryptCost)
}

// LocalProvider checks credentials against the stored user list.
type LocalProvider struct {
	users *store.Collection[models.User]
	cost  int
}

func NewLocalProvider(s *store.Store, cost int) *LocalProvider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &LocalProvider{
		users: store.NewCollection[models.User](s, models.KeyUsers, nil),
		cost:  cost,
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) error {
	hash, err := hashPassword(password, p.cost)
	if err != nil {
		return err
	}

	// Existence check and append share one transaction.
	return p.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Email == email {
				return nil, ErrEmailExists
			}
		}
		return append(users, models.User{Email: email, PasswordHash: hash}), nil
	})
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) error {
	user, ok, err := p.users.Find(ctx, func(u models.User) bool { return u.Email == email })
	if err != nil {
		return err
	}
	if !ok || !checkPasswordHash(password, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	return nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
