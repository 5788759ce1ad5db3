package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/galvinus/lead-conversion/internal/infra/http/middleware"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 200 * time.Millisecond
)

// Client wraps the remote Accounts & Contacts service. It carries no
// business logic; every method is a single request/response exchange with a
// bounded timeout. Lookups and deletes are idempotent and retry transient
// failures; creates never do.
type Client struct {
	baseURL       string
	http          *http.Client
	retryAttempts int
	retryBackoff  time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: defaultTimeout},
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
	}
}

// FindAccountByName looks up an account by its exact name. found is false
// only when the service positively reported 404; any other failure comes
// back as an error so the caller can tell "does not exist" from "could not
// determine".
func (c *Client) FindAccountByName(ctx context.Context, name string) (string, bool, error) {
	endpoint := fmt.Sprintf("%s/account/by-name?name=%s", c.baseURL, url.QueryEscape(name))

	var response accountResponse
	err := c.retryIdempotent(ctx, "find account", func() error {
		return c.doJSON(ctx, http.MethodGet, endpoint, nil, &response, "find account")
	})
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}

	return string(response.AccountID), true, nil
}

func (c *Client) CreateAccount(ctx context.Context, input CreateAccountInput) (string, error) {
	endpoint := fmt.Sprintf("%s/account", c.baseURL)

	payload := createAccountRequest{
		Name:                input.Name,
		Website:             input.Website,
		AccountStatus:       "ACTIVE",
		BillingAddressLine1: input.AddressLine1,
		BillingAddressLine2: input.AddressLine2,
		BillingCity:         input.City,
		BillingState:        input.State,
		BillingCountry:      input.Country,
		BillingZipCode:      input.ZipCode,
	}

	var response accountResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &response, "create account"); err != nil {
		return "", err
	}

	return string(response.AccountID), nil
}

func (c *Client) CreateContact(ctx context.Context, input CreateContactInput) (string, error) {
	endpoint := fmt.Sprintf("%s/contact", c.baseURL)

	payload := createContactRequest{
		AccountID: input.AccountID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.PhoneNumber,
		IsPrimary: false,
	}

	var response contactResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &response, "create contact"); err != nil {
		return "", err
	}

	return string(response.ContactID), nil
}

// DeleteAccount removes an account. A 404 means the account is already gone
// and is treated as success, so a retried compensation stays idempotent.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	endpoint := fmt.Sprintf("%s/account/%s", c.baseURL, url.PathEscape(accountID))
	return c.deleteIdempotent(ctx, endpoint, "delete account")
}

// DeleteContact removes a contact. Same 404-as-success semantics as
// DeleteAccount.
func (c *Client) DeleteContact(ctx context.Context, contactID string) error {
	endpoint := fmt.Sprintf("%s/contact/%s", c.baseURL, url.PathEscape(contactID))
	return c.deleteIdempotent(ctx, endpoint, "delete contact")
}

func (c *Client) deleteIdempotent(ctx context.Context, endpoint, op string) error {
	err := c.retryIdempotent(ctx, op, func() error {
		return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil, op)
	})
	if err != nil && IsNotFound(err) {
		return nil
	}
	return err
}

// retryIdempotent re-runs fn on transient failures with a flat backoff.
// Only used for calls that are safe to repeat.
func (c *Client) retryIdempotent(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		err = fn()
		if err == nil || KindOf(err) != KindTransient {
			return err
		}
		if attempt == c.retryAttempts {
			break
		}
		select {
		case <-time.After(c.retryBackoff):
		case <-ctx.Done():
			return &APIError{Kind: KindTransient, Op: op, Message: ctx.Err().Error()}
		}
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out any, op string) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", op, err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(&APIError{Kind: KindTransient, Op: op, Message: err.Error()})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return c.fail(&APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Op:         op,
			Message:    string(msg),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(&APIError{Kind: KindTransient, Op: op, Message: "decode response: " + err.Error()})
	}
	return nil
}

// fail counts the failed exchange before handing the error back.
func (c *Client) fail(err *APIError) error {
	middleware.RecordAccountsAPIError(err.Kind.String())
	return err
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LeadConversion/1.0")
}
