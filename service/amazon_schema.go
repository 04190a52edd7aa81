package service

import (
	"context"
	"encoding/json"
	"fmt"
	"go-catalog-api/config"
	"go-catalog-api/logger"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	secretAccessToken  = "access_token"
	secretExpiresAt    = "expires_at"
	secretRefreshToken = "refresh_token"

	// tokens this close to expiry are refreshed early
	tokenExpirySkew = time.Minute
	maxSchemaBytes  = 16 << 20
)

// AmazonSchemaProvider fetches product type definitions from the Selling
// Partner API. The LWA access token is cached in the secret store and
// refreshed there when it expires. Refreshes are collapsed within this
// process only; separate replicas may still refresh concurrently.
type AmazonSchemaProvider struct {
	cfg        config.AmazonConfig
	secrets    SecretStore
	oauth      *oauth2.Config
	httpClient *http.Client
	group      singleflight.Group
	now        func() time.Time
}

func NewAmazonSchemaProvider(cfg config.AmazonConfig, secrets SecretStore, httpClient *http.Client) *AmazonSchemaProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AmazonSchemaProvider{
		cfg:     cfg,
		secrets: secrets,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AccessToken returns a usable LWA token, refreshing it through the OAuth
// endpoint and writing it back to the secret store when the cached one has
// expired.
func (p *AmazonSchemaProvider) AccessToken(ctx context.Context) (string, error) {
	values, err := p.secrets.GetSecret(ctx, p.cfg.SecretName)
	if err != nil {
		return "", err
	}

	if token := values[secretAccessToken]; token != "" {
		expiresAt, err := time.Parse(time.RFC3339, values[secretExpiresAt])
		if err == nil && p.now().Add(tokenExpirySkew).Before(expiresAt) {
			return token, nil
		}
	}

	refreshToken := values[secretRefreshToken]
	if refreshToken == "" {
		refreshToken = p.cfg.RefreshToken
	}

	// shared by every waiter, so it outlives the first caller's cancellation
	shared := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(p.cfg.SecretName, func() (interface{}, error) {
		return p.refresh(shared, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *AmazonSchemaProvider) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("amazon: no refresh token configured")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("amazon: refresh access token: %w", err)
	}

	values := map[string]string{
		secretAccessToken: tok.AccessToken,
		secretExpiresAt:   tok.Expiry.UTC().Format(time.RFC3339),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		values[secretRefreshToken] = tok.RefreshToken
	}
	if err := p.secrets.PutSecret(ctx, p.cfg.SecretName, values); err != nil {
		return "", err
	}

	logger.Log.WithField("expires_at", values[secretExpiresAt]).Info("Amazon access token refreshed")
	return tok.AccessToken, nil
}

func (p *AmazonSchemaProvider) definitionURL(productType string) string {
	q := url.Values{}
	q.Set("marketplaceIds", p.cfg.MarketplaceID)
	if p.cfg.SellerID != "" {
		q.Set("sellerId", p.cfg.SellerID)
	}
	q.Set("requirements", "LISTING")
	q.Set("locale", "DEFAULT")

	return fmt.Sprintf("%s/definitions/2020-09-01/productTypes/%s?%s",
		strings.TrimSuffix(p.cfg.APIBaseURL, "/"), url.PathEscape(productType), q.Encode())
}

// Schema returns the product type definition document verbatim.
func (p *AmazonSchemaProvider) Schema(ctx context.Context, productType string) (json.RawMessage, error) {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.definitionURL(productType), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazon: fetch product type %q: %w", productType, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
	if err != nil {
		return nil, fmt.Errorf("amazon: read product type %q: %w", productType, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSchemaNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("amazon: product type %q: unexpected status %d", productType, resp.StatusCode)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("amazon: product type %q: response is not a JSON object: %w", productType, err)
	}
	return json.RawMessage(body), nil
}
