package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/platformops/policytool/pkg/errors"
)

// Decode reads a JSON response into target, closing the body. Non-2xx
// statuses become CatalogUnavailableErrors carrying the response body as the
// message.
func (c *Client) Decode(resp *http.Response, target any) error {
	defer resp.Body.Close() //nolint:errcheck // best effort close

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if err := c.checkStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", requestURL(resp), err)
	}
	return nil
}

// Discard verifies the response status and drops the body, for endpoints
// whose payload the caller does not need.
func (c *Client) Discard(resp *http.Response) error {
	defer resp.Body.Close() //nolint:errcheck // best effort close

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}
	return c.checkStatus(resp, body)
}

func (c *Client) checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errors.CatalogUnavailableError{
		Service:    c.service,
		Endpoint:   requestURL(resp),
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

func requestURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}
