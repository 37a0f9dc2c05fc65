package policytool

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
	"github.com/platformops/policytool/pkg/policy"
)

// config holds the assembled collaborators and tuning for one instance.
type config struct {
	catalog     Catalog
	store       policy.Store
	retryBudget int
	retryDelay  time.Duration
	sleep       SleepFunc
	dryRun      bool
	logger      *zerolog.Logger
}

func defaultOptions() *config {
	return &config{
		retryBudget: 0,
		retryDelay:  constants.RetrySleep,
		logger:      logging.Default(),
	}
}

// Option is a function that configures a Policytool instance.
type Option func(*config) error

// WithCatalog sets the metadata catalog used for tag sync and audit.
func WithCatalog(catalog Catalog) Option {
	return func(c *config) error {
		if catalog == nil {
			return errors.NewConfigError("policytool", "catalog must not be nil", nil)
		}
		c.catalog = catalog
		return nil
	}
}

// WithPolicyStore sets the policy service used for policy application.
func WithPolicyStore(store policy.Store) Option {
	return func(c *config) error {
		if store == nil {
			return errors.NewConfigError("policytool", "policy store must not be nil", nil)
		}
		c.store = store
		return nil
	}
}

// WithRetryBudget sets the total attempt budget for each tag push: the retry
// flag count multiplied by the configured retries. Zero or negative means a
// single attempt.
func WithRetryBudget(attempts int) Option {
	return func(c *config) error {
		c.retryBudget = attempts
		return nil
	}
}

// WithRetryDelay sets the fixed delay between push attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return errors.NewConfigError("policytool", "retry delay must not be negative", nil)
		}
		c.retryDelay = delay
		return nil
	}
}

// WithSleep replaces the sleep between push attempts, mainly for tests.
func WithSleep(sleep SleepFunc) Option {
	return func(c *config) error {
		c.sleep = sleep
		return nil
	}
}

// WithDryRun makes ApplyPolicies plan actions without applying them.
func WithDryRun(dryRun bool) Option {
	return func(c *config) error {
		c.dryRun = dryRun
		return nil
	}
}

// WithLogger sets the logger shared by the engines.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return errors.NewConfigError("policytool", "logger must not be nil", nil)
		}
		c.logger = logger
		return nil
	}
}
