package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Config holds the aggregator API credentials and endpoints.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// HTTPClient implements Client against the aggregator's REST API.
type HTTPClient struct {
	cfg  Config
	http *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "accounts transactions")
	q.Set("state", state)
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/oauth/authorize?" + q.Encode()
}

func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURL)
	return c.tokenRequest(ctx, form)
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *HTTPClient) tokenRequest(ctx context.Context, form url.Values) (TokenResponse, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/oauth/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("aggregator: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tokens TokenResponse
	if err := c.do(req, &tokens); err != nil {
		return TokenResponse{}, err
	}
	return tokens, nil
}

func (c *HTTPClient) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	req, err := c.authedRequest(ctx, accessToken, c.endpoint("/v1/accounts"))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.Accounts, nil
}

// wireTransaction is the aggregator's JSON shape; dates come as YYYY-MM-DD.
type wireTransaction struct {
	ID                  string            `json:"id"`
	Amount              string            `json:"amount"`
	Currency            string            `json:"currency"`
	Description         string            `json:"description"`
	OriginalDescription string            `json:"original_description"`
	Date                string            `json:"date"`
	BookingDate         string            `json:"booking_date"`
	Payer               *TransactionParty `json:"payer"`
	Payee               *TransactionParty `json:"payee"`
}

func (c *HTTPClient) GetTransactions(ctx context.Context, accessToken, externalAccountID string, from, to *time.Time) ([]Transaction, error) {
	q := url.Values{}
	if from != nil {
		q.Set("date_from", from.Format(dateLayout))
	}
	if to != nil {
		q.Set("date_to", to.Format(dateLayout))
	}
	endpoint := c.endpoint("/v1/accounts/" + url.PathEscape(externalAccountID) + "/transactions")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := c.authedRequest(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}

	txns := make([]Transaction, 0, len(payload.Transactions))
	for _, wt := range payload.Transactions {
		date, err := time.Parse(dateLayout, wt.Date)
		if err != nil {
			return nil, fmt.Errorf("aggregator: parse transaction date %q: %w", wt.Date, err)
		}
		txn := Transaction{
			ID:                  wt.ID,
			Amount:              wt.Amount,
			Currency:            wt.Currency,
			Description:         wt.Description,
			OriginalDescription: wt.OriginalDescription,
			Date:                date,
			Payer:               wt.Payer,
			Payee:               wt.Payee,
		}
		if wt.BookingDate != "" {
			booked, err := time.Parse(dateLayout, wt.BookingDate)
			if err != nil {
				return nil, fmt.Errorf("aggregator: parse booking date %q: %w", wt.BookingDate, err)
			}
			txn.BookingDate = &booked
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (c *HTTPClient) GetProviderConsents(ctx context.Context, accessToken string) ([]Consent, error) {
	req, err := c.authedRequest(ctx, accessToken, c.endpoint("/v1/consents"))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Consents []Consent `json:"consents"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.Consents, nil
}

func (c *HTTPClient) RevokeConsent(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/v1/consents"), nil)
	if err != nil {
		return fmt.Errorf("aggregator: build revoke request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, nil)
}

func (c *HTTPClient) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

func (c *HTTPClient) authedRequest(ctx context.Context, accessToken, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregator: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req, nil
}

// do executes the request, decoding a 2xx body into out (when non-nil) and
// any other response into an *APIError.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var wireErr struct {
			Code    string `json:"error"`
			Message string `json:"error_description"`
		}
		if json.Unmarshal(body, &wireErr) == nil && wireErr.Code != "" {
			apiErr.Code = wireErr.Code
			if wireErr.Message != "" {
				apiErr.Message = wireErr.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("aggregator: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
