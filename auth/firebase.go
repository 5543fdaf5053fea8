package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FirebaseProvider calls the Identity Toolkit REST API.
type FirebaseProvider struct {
	client *resty.Client
	apiKey string
}

func NewFirebaseProvider(baseURL, apiKey string) *FirebaseProvider {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &FirebaseProvider{client: c, apiKey: apiKey}
}

// ProviderError is a provider failure with no local equivalent.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "Error: " + e.Message
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) error {
	return p.call(ctx, "/accounts:signUp", email, password)
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) error {
	return p.call(ctx, "/accounts:signInWithPassword", email, password)
}

// SignOut has nothing to revoke: the server keeps no provider token.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	return nil
}

func (p *FirebaseProvider) call(ctx context.Context, path, email, password string) error {
	reqBody := credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(&reqBody).
		Post(path)
	if err != nil {
		return fmt.Errorf("firebase request: %w", err)
	}
	if resp.StatusCode() == http.StatusOK {
		return nil
	}

	var fe firebaseError
	if err := json.Unmarshal(resp.Body(), &fe); err != nil || fe.Error.Message == "" {
		return &ProviderError{Message: fmt.Sprintf("status %d", resp.StatusCode())}
	}
	return mapFirebaseError(fe.Error.Message)
}

// mapFirebaseError turns provider codes into the local sentinel errors.
// Messages can carry a suffix ("INVALID_PASSWORD : ...").
func mapFirebaseError(message string) error {
	code := message
	if i := strings.IndexAny(message, " :"); i >= 0 {
		code = message[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidCredentials
	}
	return &ProviderError{Message: message}
}
