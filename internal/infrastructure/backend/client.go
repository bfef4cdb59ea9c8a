package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"taller-access/internal/domain"
)

const DefaultIdentityPath = "/auth/me"

// Client reads the authenticated identity and its permissions from the shop backend.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(baseURL, identityPath string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, identityPath, xray.Client(&http.Client{Timeout: timeout}))
}

func NewClientWithHTTP(baseURL, identityPath string, httpClient *http.Client) *Client {
	if identityPath == "" {
		identityPath = DefaultIdentityPath
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(identityPath, "/"),
		http:     httpClient,
	}
}

type identityPayload struct {
	Role       string          `json:"role"`
	Permisos   []string        `json:"permisos"`
	UserID     json.RawMessage `json:"userId"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	EmpleadoCI json.RawMessage `json:"empleadoCi"`
	Empleado   map[string]any  `json:"empleado"`
}

func (c *Client) FetchIdentity(ctx context.Context, token string) (domain.IdentityGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.IdentityGrant{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.IdentityGrant{}, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.IdentityGrant{}, domain.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.IdentityGrant{}, fmt.Errorf("%w: identity endpoint returned %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var payload identityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.IdentityGrant{}, fmt.Errorf("%w: decode identity: %v", domain.ErrUnavailable, err)
	}
	perms := payload.Permisos
	if perms == nil {
		perms = []string{}
	}
	return domain.IdentityGrant{
		Identity: domain.Identity{
			UserID:     opaqueID(payload.UserID),
			Username:   payload.Username,
			Email:      payload.Email,
			Role:       payload.Role,
			EmployeeCI: opaqueID(payload.EmpleadoCI),
			Employee:   payload.Empleado,
		},
		Permissions: perms,
	}, nil
}

// opaqueID accepts a JSON string or number and returns its text form.
func opaqueID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return string(raw)
}
