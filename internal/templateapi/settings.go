package templateapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorewood/ragprompt/internal/output"
)

// QuerySettings are the admin-visible retrieval settings.
type QuerySettings struct {
	Template string `json:"template"`
	K        int    `json:"k"`
}

// QuerySettingsUpdate changes retrieval settings. Nil fields reset the
// setting to the service default.
type QuerySettingsUpdate struct {
	K        *int    `json:"k,omitempty"`
	Template *string `json:"template,omitempty"`
}

// QuerySettings reads the template and top-k. Requires an admin token.
func (c *Client) QuerySettings(ctx context.Context, token string) (*QuerySettings, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/query/settings", token, nil)
	if err != nil {
		return nil, err
	}

	var result QuerySettings
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, output.NewSystemErrorWithCause("failed to parse settings response", err)
	}
	return &result, nil
}

// UpdateQuerySettings applies update and returns the template now in effect.
// Requires an admin token.
func (c *Client) UpdateQuerySettings(ctx context.Context, token string, update QuerySettingsUpdate) (string, error) {
	respBody, err := c.do(ctx, http.MethodPost, "/query/settings/update", token, update)
	if err != nil {
		return "", err
	}

	var result templateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", output.NewSystemErrorWithCause("failed to parse settings response", err)
	}
	if result.Template == nil {
		return "", output.NewSystemError("settings response has no template field")
	}
	return *result.Template, nil
}
