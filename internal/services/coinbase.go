package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/config"
	"cryptocasino-backend/internal/models"
)

const (
	commerceAPIVersion = "2018-03-22"
	coinbaseAPIVersion = "2023-06-01"
)

// CoinbaseClient issues the outbound payment-gateway calls: hosted charge
// creation against Coinbase Commerce, and exchange-rate/send-money calls
// against the Coinbase v2 API. Idempotent calls retry with exponential
// backoff; charge creation is not idempotent and is attempted once.
type CoinbaseClient struct {
	http *http.Client
	log  *logrus.Logger

	commerceBaseURL string
	coinbaseBaseURL string
	commerceAPIKey  string
	apiKey          string
	apiSecret       []byte
	accountID       string
	baseURL         string

	maxRetries uint64
}

func NewCoinbaseClient(cfg *config.Config, log *logrus.Logger) *CoinbaseClient {
	return &CoinbaseClient{
		http:            &http.Client{Timeout: 15 * time.Second},
		log:             log,
		commerceBaseURL: cfg.CommerceBaseURL,
		coinbaseBaseURL: cfg.CoinbaseBaseURL,
		commerceAPIKey:  cfg.CommerceAPIKey,
		apiKey:          cfg.CoinbaseAPIKey,
		apiSecret:       []byte(cfg.CoinbaseAPISecret),
		accountID:       cfg.CoinbaseAccountID,
		baseURL:         cfg.BaseURL,
		maxRetries:      3,
	}
}

// HostedCharge is the subset of the Commerce charge response the caller
// needs: the charge code and the hosted checkout URL to redirect to.
type HostedCharge struct {
	Code      string
	HostedURL string
}

func (c *CoinbaseClient) CreateCharge(ctx context.Context, email, username string, amount models.Cents) (*HostedCharge, error) {
	payload := map[string]interface{}{
		"name":         fmt.Sprintf("$%s", amount.String()),
		"description":  "After the purchase, please go back and refresh the webpage. It may take up to 30 minutes to confirm the payment.",
		"pricing_type": "fixed_price",
		"local_price": map[string]string{
			"amount":   amount.String(),
			"currency": "USD",
		},
		"metadata": map[string]string{
			"email": email,
		},
		"redirect_url": fmt.Sprintf("%s/%s/credit-management", c.baseURL, username),
		"cancel_url":   fmt.Sprintf("%s/%s/credit-management", c.baseURL, username),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commerceBaseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CC-Api-Key", c.commerceAPIKey)
	req.Header.Set("X-CC-Version", commerceAPIVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var resp struct {
		Data struct {
			Code      string `json:"code"`
			HostedURL string `json:"hosted_url"`
		} `json:"data"`
	}
	if err := c.doOnce(req, &resp); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}

	return &HostedCharge{Code: resp.Data.Code, HostedURL: resp.Data.HostedURL}, nil
}

// USDExchangeRate returns how many USD one unit of currency is worth.
// The currency code comes from a client request and is escaped before it
// reaches the query string.
func (c *CoinbaseClient) USDExchangeRate(ctx context.Context, currency string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v2/exchange-rates?currency=%s", c.coinbaseBaseURL, url.QueryEscape(currency))

	var resp struct {
		Data struct {
			Rates map[string]string `json:"rates"`
		} `json:"data"`
	}

	err := c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		return c.doOnce(req, &resp)
	})
	if err != nil {
		return 0, fmt.Errorf("exchange rate lookup: %w", err)
	}

	usd, ok := resp.Data.Rates["USD"]
	if !ok {
		return 0, fmt.Errorf("exchange rate lookup: no USD rate for %s", currency)
	}
	rate, err := strconv.ParseFloat(usd, 64)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("exchange rate lookup: bad USD rate %q", usd)
	}
	return rate, nil
}

// SendMoney sends cryptoAmount of currency to a wallet address. The idem
// key makes gateway-side processing idempotent, so the call is safe to
// retry.
func (c *CoinbaseClient) SendMoney(ctx context.Context, to, cryptoAmount, currency, idem string) error {
	payload := map[string]string{
		"type":     "send",
		"to":       to,
		"amount":   cryptoAmount,
		"currency": currency,
		"idem":     idem,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	path := fmt.Sprintf("/v2/accounts/%s/transactions", c.accountID)

	err = c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.coinbaseBaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		c.signRequest(req, http.MethodPost, path, body)
		req.Header.Set("Content-Type", "application/json")
		return c.doOnce(req, nil)
	})
	if err != nil {
		return fmt.Errorf("send money: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"to":       to,
		"amount":   cryptoAmount,
		"currency": currency,
		"idem":     idem,
	}).Info("crypto sent")
	return nil
}

// signRequest applies the Coinbase v2 API HMAC headers:
// CB-ACCESS-SIGN = hex(HMAC-SHA256(secret, timestamp + method + path + body)).
func (c *CoinbaseClient) signRequest(req *http.Request, method, path string, body []byte) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	mac := hmac.New(sha256.New, c.apiSecret)
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)

	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-VERSION", coinbaseAPIVersion)
}

// doOnce executes one request and decodes the JSON response into out.
// 4xx responses are permanent; 5xx and transport errors are retryable.
func (c *CoinbaseClient) doOnce(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode >= 400 {
		return backoff.Permanent(fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode gateway response: %w", err))
	}
	return nil
}

func (c *CoinbaseClient) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
}

// CryptoAmount converts a USD amount to crypto units at the given
// USD-per-unit rate, limited to 8 decimal places.
func CryptoAmount(usd models.Cents, usdRate float64) (string, error) {
	if usdRate <= 0 {
		return "", fmt.Errorf("invalid exchange rate %f", usdRate)
	}
	return strconv.FormatFloat(usd.Dollars()/usdRate, 'f', 8, 64), nil
}
