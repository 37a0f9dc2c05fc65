// Package ranger provides a client for the Apache Ranger policy service.
package ranger

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/internal/transport"
	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
	"github.com/platformops/policytool/pkg/policy"
)

const serviceName = "ranger"

// policyPath is the Ranger v2 public API mount. The configured
// ranger_api_url points at the service root; the client owns the path.
const policyPath = "/service/public/v2/api/policy"

// Client implements policy.Store against the Ranger v2 public API.
type Client struct {
	http     *transport.Client
	pageSize int
	logger   *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the search page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= constants.MaxPageSize {
			c.pageSize = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Ranger client for the given base URL and credentials.
func New(baseURL string, auth transport.Authenticator, opts ...Option) *Client {
	c := &Client{
		http:     transport.New(serviceName, baseURL, auth),
		pageSize: constants.DefaultPageSize,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Every line this client emits names the service it talks to.
	scoped := c.logger.With().Str("service", serviceName).Logger()
	c.logger = &scoped
	return c
}

// FindByPrefix returns every policy whose name starts with prefix. Ranger's
// policyNamePartial parameter matches anywhere in the name, so results are
// refiltered to true prefix matches client-side.
func (c *Client) FindByPrefix(ctx context.Context, prefix string) ([]policy.Policy, error) {
	var out []policy.Policy
	for startIndex := 0; ; startIndex += c.pageSize {
		query := url.Values{}
		query.Set("policyNamePartial", prefix)
		query.Set("startIndex", strconv.Itoa(startIndex))
		query.Set("pageSize", strconv.Itoa(c.pageSize))

		resp, err := c.http.Get(ctx, policyPath, query)
		if err != nil {
			return nil, err
		}
		var page []policy.Policy
		if err := c.http.Decode(resp, &page); err != nil {
			return nil, err
		}

		for _, p := range page {
			if strings.HasPrefix(p.Name, prefix) {
				out = append(out, p)
			}
		}

		if len(page) < c.pageSize {
			return out, nil
		}
	}
}

// Create adds a new policy and returns it with its service-assigned id.
func (c *Client) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	resp, err := c.http.Post(ctx, policyPath, p)
	if err != nil {
		return policy.Policy{}, err
	}
	var created policy.Policy
	if err := c.http.Decode(resp, &created); err != nil {
		return policy.Policy{}, err
	}
	c.logger.Debug().Str("policy", created.Name).Int64("id", created.ID).Msg("created policy")
	return created, nil
}

// Update replaces the policy identified by p.ID.
func (c *Client) Update(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	if p.ID == 0 {
		return policy.Policy{}, errors.New("policy id required for update: " + p.Name)
	}
	resp, err := c.http.Put(ctx, policyPath+"/"+strconv.FormatInt(p.ID, 10), p)
	if err != nil {
		return policy.Policy{}, err
	}
	var updated policy.Policy
	if err := c.http.Decode(resp, &updated); err != nil {
		return policy.Policy{}, err
	}
	c.logger.Debug().Str("policy", updated.Name).Int64("id", updated.ID).Msg("updated policy")
	return updated, nil
}

// Delete removes the policy identified by p.ID.
func (c *Client) Delete(ctx context.Context, p policy.Policy) error {
	if p.ID == 0 {
		return errors.New("policy id required for delete: " + p.Name)
	}
	resp, err := c.http.Delete(ctx, policyPath+"/"+strconv.FormatInt(p.ID, 10))
	if err != nil {
		return err
	}
	if err := c.http.Discard(resp); err != nil {
		return err
	}
	c.logger.Debug().Str("policy", p.Name).Int64("id", p.ID).Msg("deleted policy")
	return nil
}
