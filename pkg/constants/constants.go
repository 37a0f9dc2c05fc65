// Package constants holds the values shared across policytool packages:
// source file names, retry and paging defaults, and transport tuning.
package constants

import "time"

// Names of the declarative inputs under the source directory.
const (
	// TableTagsFile holds the table-level tag declarations.
	TableTagsFile = "table_tags.csv"

	// ColumnTagsFile holds the column-level tag declarations.
	ColumnTagsFile = "column_tags.csv"

	// RangerPoliciesFile holds the templated policy rules.
	RangerPoliciesFile = "ranger_policies.json"

	// RangerPoliciesFileYAML is the YAML rendition accepted when the JSON
	// file is absent.
	RangerPoliciesFileYAML = "ranger_policies.yaml"

	// DefaultSrcDir is where tag and rule files live relative to the
	// repository that declares them.
	DefaultSrcDir = "src/main/tags"
)

// LoadETLPrefix marks ETL load policies owned by every project run.
const LoadETLPrefix = "load_etl_"

// DefaultEnvironment is the environment assumed when none is given.
const DefaultEnvironment = "dev"

// Retry tuning for the tag push loop.
const (
	// DefaultRetries is the attempt multiplier used when the config file
	// does not set one; combined with the --retry flag count it yields the
	// total attempt budget.
	DefaultRetries = 1

	// RetrySleep is the fixed delay between tag push attempts. Operators
	// expect a long pause so transient catalog hiccups can clear.
	RetrySleep = 60 * time.Second
)

// HTTP transport tuning for the catalog and policy service clients.
const (
	// DefaultHTTPTimeout bounds a single request round trip.
	DefaultHTTPTimeout = 30 * time.Second

	// DialTimeout bounds connection establishment.
	DialTimeout = 10 * time.Second

	// KeepAliveInterval is the interval between keep-alive probes.
	KeepAliveInterval = 30 * time.Second

	// MaxIdleConnections caps the idle connection pool.
	MaxIdleConnections = 100
)

// Paging bounds for catalog and policy service listings.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// FilePermissions is the mode for files policytool creates (rw-r--r--).
const FilePermissions = 0644
