package redditapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// Tokens live 60 minutes; refreshing at 55 keeps one valid at all times.
	DefaultRefreshInterval = 55 * time.Minute
	DefaultTokenLifetime   = 60 * time.Minute
)

// ErrCredentialExpired means no valid credential is available for a content fetch.
var ErrCredentialExpired = errors.New("reddit credential expired or missing")

// Credential is an application-only bearer token with its expiry.
type Credential struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// Valid reports whether c can be used at now.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && (c.Expiry.IsZero() || now.Before(c.Expiry))
}

// TokenFetcher obtains a fresh token. *clientcredentials.Config satisfies it.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// NewTokenFetcher returns the client-credentials flow reddit uses for application-only access.
func NewTokenFetcher(clientID, clientSecret, tokenURL string) *clientcredentials.Config {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}

// CredentialKeeper owns the process-wide credential. A background loop refreshes it on a
// fixed interval; readers only ever see complete values through Current.
type CredentialKeeper struct {
	fetcher  TokenFetcher
	interval time.Duration
	log      *log.Helper

	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client

	now func() time.Time

	mu   sync.RWMutex
	cred Credential
}

func NewCredentialKeeper(fetcher TokenFetcher, interval time.Duration, logger log.Logger) *CredentialKeeper {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &CredentialKeeper{
		fetcher:  fetcher,
		interval: interval,
		log:      log.NewHelper(log.With(logger, "module", "reel/redditapi")),
		now:      time.Now,
	}
}

// Refresh fetches a new token and swaps it in. On failure the previous credential is kept.
func (k *CredentialKeeper) Refresh(ctx context.Context) error {
	if k.fetcher == nil {
		return errors.New("Refresh: token fetcher is not set")
	}
	if k.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, k.HTTPClient)
	}
	tok, err := k.fetcher.Token(ctx)
	if err != nil {
		return fmt.Errorf("Refresh: %w", err)
	}
	if tok.AccessToken == "" {
		return errors.New("Refresh: token response has no access_token")
	}

	cred := Credential{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry}
	if cred.Expiry.IsZero() {
		cred.Expiry = k.now().Add(DefaultTokenLifetime)
	}
	k.mu.Lock()
	k.cred = cred
	k.mu.Unlock()
	k.log.Debugw("msg", "credential refreshed", "expiry", cred.Expiry.Format(time.RFC3339))
	return nil
}

// Current returns the credential, or ErrCredentialExpired when there is none or it lapsed.
func (k *CredentialKeeper) Current() (Credential, error) {
	k.mu.RLock()
	cred := k.cred
	k.mu.RUnlock()
	if !cred.Valid(k.now()) {
		return Credential{}, ErrCredentialExpired
	}
	return cred, nil
}

// Start refreshes once, synchronously, so a credential is valid before any fetch, then keeps
// refreshing every interval until ctx is done. Background refresh failures are logged.
func (k *CredentialKeeper) Start(ctx context.Context) error {
	if err := k.Refresh(ctx); err != nil {
		return err
	}
	go func() {
		t := time.NewTicker(k.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := k.Refresh(ctx); err != nil {
					k.log.Errorw("msg", "credential refresh failed", "err", err)
				}
			}
		}
	}()
	return nil
}
