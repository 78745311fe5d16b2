// Package firefly talks to the Firefly III REST API, the double-entry
// ledger postings are submitted to.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/service"
)

// accountPageSize is the page size requested when listing accounts.
const accountPageSize = 100

// Client implements the LedgerClient interface for Firefly III.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu           sync.Mutex
	accountCache map[string]string // name -> account ID
}

// Firefly III API response types.
type accountData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"attributes"`
}

type accountListResponse struct {
	Data []accountData `json:"data"`
	Meta struct {
		Pagination struct {
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

type accountResponse struct {
	Data accountData `json:"data"`
}

type transactionSplit struct {
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description"`
	SourceName      string   `json:"source_name"`
	DestinationName string   `json:"destination_name"`
	CurrencyCode    string   `json:"currency_code"`
	CategoryName    string   `json:"category_name,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	ExternalID      string   `json:"external_id"`
}

type transactionRequest struct {
	ErrorIfDuplicateHash bool               `json:"error_if_duplicate_hash"`
	ApplyRules           bool               `json:"apply_rules"`
	Transactions         []transactionSplit `json:"transactions"`
}

type transactionResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewClient creates a Firefly III API client.
func NewClient(baseURL, token string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: ledger URL is required", common.ErrMissingConfig)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: ledger access token is required", common.ErrMissingConfig)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		accountCache: make(map[string]string),
	}, nil
}

// TestConnection verifies the API is reachable and the token is accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/about", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status %d - %s", common.ErrLedgerConnection, resp.StatusCode, string(body))
	}

	return nil
}

// EnsureAccount finds the named account, creating it with the right ledger
// type when it does not exist, and returns its ID. Results are cached for
// the lifetime of the client.
func (c *Client) EnsureAccount(ctx context.Context, name string, class model.AccountClassification) (string, error) {
	c.mu.Lock()
	if id, ok := c.accountCache[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := c.findAccount(ctx, name, ledgerAccountType(class))
	if err != nil {
		return "", err
	}

	if id == "" {
		id, err = c.createAccount(ctx, name, class)
		if err != nil {
			return "", err
		}
		slog.Info("Created ledger account",
			"name", name,
			"type", ledgerAccountType(class),
			"id", id)
	}

	c.mu.Lock()
	c.accountCache[name] = id
	c.mu.Unlock()

	return id, nil
}

// CreatePosting submits a posting to the ledger. A posting the ledger
// already holds is reported as a duplicate, not an error.
func (c *Client) CreatePosting(ctx context.Context, posting model.Posting) (*service.PostingResult, error) {
	split := transactionSplit{
		Type:            string(posting.Type),
		Date:            posting.Date.Format("2006-01-02"),
		Amount:          posting.Amount.StringFixed(2),
		Description:     posting.Description,
		SourceName:      posting.Source,
		DestinationName: posting.Destination,
		CurrencyCode:    "AUD",
		CategoryName:    posting.Category,
		ExternalID:      posting.ExternalID,
	}

	switch posting.Type {
	case model.PostingTransfer:
		split.Tags = []string{"transfer", "auto-imported"}
		split.Notes = fmt.Sprintf("Transfer from %s to %s", posting.Source, posting.Destination)
	default:
		split.Tags = []string{posting.Account}
		split.Notes = fmt.Sprintf("Imported from %s", posting.Account)
	}

	payload := transactionRequest{
		ErrorIfDuplicateHash: true,
		ApplyRules:           true,
		Transactions:         []transactionSplit{split},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode posting: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLedgerConnection, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var created transactionResponse
		if err := json.Unmarshal(respBody, &created); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &service.PostingResult{LedgerID: created.Data.ID}, nil

	case http.StatusUnprocessableEntity:
		if strings.Contains(strings.ToLower(string(respBody)), "duplicate") {
			return &service.PostingResult{Duplicate: true}, nil
		}
		return nil, fmt.Errorf("%w: %s", common.ErrLedgerRejected, string(respBody))

	case http.StatusTooManyRequests:
		return nil, common.ErrRateLimit

	default:
		return nil, fmt.Errorf("%w: unexpected status %d - %s", common.ErrLedgerRejected, resp.StatusCode, string(respBody))
	}
}

// findAccount looks an account up by name, returning "" when absent. The
// listing is paginated, so every page is walked until a match or the end.
func (c *Client) findAccount(ctx context.Context, name, accountType string) (string, error) {
	for page := 1; ; page++ {
		id, lastPage, err := c.findAccountPage(ctx, name, accountType, page)
		if err != nil {
			return "", err
		}
		if id != "" || lastPage {
			return id, nil
		}
	}
}

func (c *Client) findAccountPage(ctx context.Context, name, accountType string, page int) (string, bool, error) {
	query := url.Values{
		"type":  {accountType},
		"limit": {strconv.Itoa(accountPageSize)},
		"page":  {strconv.Itoa(page)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/accounts?"+query.Encode(), nil)
	if err != nil {
		return "", false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", common.ErrLedgerConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", false, fmt.Errorf("%w: listing accounts failed with %d - %s", common.ErrLedgerConnection, resp.StatusCode, string(body))
	}

	var list accountListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", false, fmt.Errorf("failed to decode account list: %w", err)
	}

	for _, acct := range list.Data {
		if strings.EqualFold(acct.Attributes.Name, name) {
			return acct.ID, false, nil
		}
	}

	// A response without pagination metadata is treated as a single page.
	lastPage := len(list.Data) == 0 || page >= list.Meta.Pagination.TotalPages
	return "", lastPage, nil
}

// createAccount creates an account with the type and liability subtype the
// classification calls for.
func (c *Client) createAccount(ctx context.Context, name string, class model.AccountClassification) (string, error) {
	payload := map[string]any{
		"name":          name,
		"type":          ledgerAccountType(class),
		"currency_code": "AUD",
		"active":        true,
	}

	if class.IsLiability() {
		payload["liability_type"] = liabilityTypeName(class.Subtype)
		payload["liability_direction"] = "debit"
	} else {
		payload["account_role"] = "defaultAsset"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode account: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrLedgerConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: creating account %q failed with %d - %s", common.ErrLedgerRejected, name, resp.StatusCode, string(respBody))
	}

	var created accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode account: %w", err)
	}

	return created.Data.ID, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func ledgerAccountType(class model.AccountClassification) string {
	if class.IsLiability() {
		return "liability"
	}
	return "asset"
}

func liabilityTypeName(subtype model.AccountSubtype) string {
	switch subtype {
	case model.SubtypeMortgage:
		return "mortgage"
	case model.SubtypeLoan:
		return "loan"
	default:
		return "debt"
	}
}
