package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Contact is the CRM view of a billing contact.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Address   string
}

// CRM syncs billing contacts.
type CRM interface {
	UpsertContact(ctx context.Context, c Contact) error
}

// HubSpotClient talks to the HubSpot CRM v3 contacts API.
type HubSpotClient struct {
	baseURL string
	client  *http.Client
}

// NewHubSpotClient authenticates every request with the private app token.
func NewHubSpotClient(token, baseURL string) (*HubSpotClient, error) {
	if token == "" {
		return nil, ErrMissingCRMToken
	}
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = 10 * time.Second
	return &HubSpotClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

type hubspotContact struct {
	Properties map[string]string `json:"properties"`
}

// UpsertContact creates the contact, or updates it by email when HubSpot
// reports that it already exists.
func (h *HubSpotClient) UpsertContact(ctx context.Context, c Contact) error {
	if c.Email == "" {
		return errors.Join(ErrCRMRequestFailed, errors.New("contact email is required"))
	}
	body := hubspotContact{Properties: contactProperties(c)}

	status, err := h.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", body)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusConflict:
		path := "/crm/v3/objects/contacts/" + url.PathEscape(c.Email) + "?idProperty=email"
		status, err = h.do(ctx, http.MethodPatch, path, body)
		if err != nil {
			return err
		}
		if status >= 300 {
			return errors.Join(ErrCRMRequestFailed, fmt.Errorf("update contact: status %d", status))
		}
	case status >= 300:
		return errors.Join(ErrCRMRequestFailed, fmt.Errorf("create contact: status %d", status))
	}
	return nil
}

func (h *HubSpotClient) do(ctx context.Context, method, path string, body any) (int, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, errors.Join(ErrCRMRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, errors.Join(ErrCRMRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, errors.Join(ErrCRMRequestFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}

func contactProperties(c Contact) map[string]string {
	props := map[string]string{"email": c.Email}
	for k, v := range map[string]string{
		"firstname": c.FirstName,
		"lastname":  c.LastName,
		"company":   c.Company,
		"address":   c.Address,
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}

// splitName splits a full name at the last space.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.LastIndexByte(full, ' '); i > 0 {
		return strings.TrimSpace(full[:i]), full[i+1:]
	}
	return full, ""
}
