// Package atlas provides a client for the Apache Atlas metadata catalog.
package atlas

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/internal/transport"
	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
	"github.com/platformops/policytool/pkg/tags"
)

const serviceName = "atlas"

// Entity type names in the hive metastore bridge.
const (
	typeTable  = "hive_table"
	typeColumn = "hive_column"
)

// Response structures for the Atlas v2 API.
type typeDefsResponse struct {
	ClassificationDefs []classificationDef `json:"classificationDefs"`
}

type classificationDef struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Entities []entityHeader `json:"entities"`
}

type entityHeader struct {
	GUID                string         `json:"guid"`
	TypeName            string         `json:"typeName"`
	Status              string         `json:"status"`
	Attributes          map[string]any `json:"attributes"`
	ClassificationNames []string       `json:"classificationNames"`
}

type classification struct {
	TypeName string `json:"typeName"`
}

// Client reads entity and tag state from Atlas and pushes tag associations.
// The base URL includes the /api/atlas mount, matching the atlas_api_url
// config key.
type Client struct {
	http     *transport.Client
	pageSize int
	logger   *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the DSL search page size.
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

// New creates an Atlas client for the given base URL and credentials.
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

// Classifications returns the catalog's global tag vocabulary: the names of
// every classification type defined in Atlas.
func (c *Client) Classifications(ctx context.Context) (tags.Set, error) {
	query := url.Values{}
	query.Set("type", "classification")

	resp, err := c.http.Get(ctx, "/v2/types/typedefs", query)
	if err != nil {
		return nil, err
	}
	var out typeDefsResponse
	if err := c.http.Decode(resp, &out); err != nil {
		return nil, err
	}

	set := tags.NewSet()
	for _, def := range out.ClassificationDefs {
		set.Add(def.Name)
	}
	return set, nil
}

// Tables returns the hive tables of the given schemas, keyed by entity id.
func (c *Client) Tables(ctx context.Context, schemas []string) (map[tags.EntityID]tags.Entity, error) {
	entities := make(map[tags.EntityID]tags.Entity)
	for _, schema := range schemas {
		dsl := fmt.Sprintf("%s where qualifiedName like %q", typeTable, schema+".*")
		if err := c.search(ctx, dsl, entities); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

// Columns returns the hive columns of the given tables, keyed by entity id.
func (c *Client) Columns(ctx context.Context, tables []tags.EntityID) (map[tags.EntityID]tags.Entity, error) {
	entities := make(map[tags.EntityID]tags.Entity)
	for _, table := range tables {
		dsl := fmt.Sprintf("%s where qualifiedName like %q", typeColumn, table.String()+".*")
		if err := c.search(ctx, dsl, entities); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

// PushTableTags associates each record's missing tags with its table entity.
// Tags already present in the catalog are left untouched, so pushing the same
// records again is a no-op. Any failure is reported as a SyncError naming the
// entities that did not converge; entities not named were pushed and stay
// pushed.
func (c *Client) PushTableTags(ctx context.Context, records []tags.Record) ([]tags.WorkEntry, error) {
	current, err := c.Tables(ctx, tags.Schemas(records))
	if err != nil {
		return nil, errors.NewSyncError("table", recordIDs(records), err)
	}
	return c.push(ctx, "table", records, current)
}

// PushColumnTags associates each record's missing tags with its column
// entity, with the same delta and failure semantics as PushTableTags.
func (c *Client) PushColumnTags(ctx context.Context, records []tags.Record) ([]tags.WorkEntry, error) {
	current, err := c.Columns(ctx, tags.Tables(records))
	if err != nil {
		return nil, errors.NewSyncError("column", recordIDs(records), err)
	}
	return c.push(ctx, "column", records, current)
}

// push walks the records in order, associating the tags each entity is
// missing. Failures do not stop the walk; they are collected into a single
// SyncError so a retry only re-pushes what is still missing.
func (c *Client) push(ctx context.Context, scope string, records []tags.Record, current map[tags.EntityID]tags.Entity) ([]tags.WorkEntry, error) {
	entries := make([]tags.WorkEntry, 0, len(records))
	var failed []string
	var firstErr error

	for _, record := range records {
		id := record.ID()
		entity, ok := current[id]
		if !ok {
			c.logger.Warn().
				Str("entity", id.String()).
				Msgf("%s not found in catalog", scope)
			failed = append(failed, id.String())
			if firstErr == nil {
				firstErr = errors.NewNotFoundError(scope, id.String())
			}
			entries = append(entries, tags.WorkEntry{Entity: id, Failed: record.Tags.Sorted()})
			continue
		}

		missing := record.Tags.Minus(entity.Tags)
		if missing.Len() == 0 {
			entries = append(entries, tags.WorkEntry{Entity: id})
			continue
		}

		names := missing.Sorted()
		if err := c.associate(ctx, entity.GUID, names); err != nil {
			failed = append(failed, id.String())
			if firstErr == nil {
				firstErr = err
			}
			entries = append(entries, tags.WorkEntry{Entity: id, Failed: names})
			continue
		}
		c.logger.Debug().
			Str("entity", id.String()).
			Strs("tags", names).
			Msg("associated tags")
		entries = append(entries, tags.WorkEntry{Entity: id, Added: names})
	}

	if len(failed) > 0 {
		return entries, errors.NewSyncError(scope, failed, firstErr)
	}
	return entries, nil
}

// associate adds classifications to the entity identified by guid.
func (c *Client) associate(ctx context.Context, guid string, names []string) error {
	body := make([]classification, 0, len(names))
	for _, name := range names {
		body = append(body, classification{TypeName: name})
	}

	resp, err := c.http.Post(ctx, "/v2/entity/guid/"+url.PathEscape(guid)+"/classifications", body)
	if err != nil {
		return err
	}
	return c.http.Discard(resp)
}

// search pages through a DSL query, adding every active entity to the map.
func (c *Client) search(ctx context.Context, dsl string, into map[tags.EntityID]tags.Entity) error {
	for offset := 0; ; offset += c.pageSize {
		query := url.Values{}
		query.Set("query", dsl)
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		resp, err := c.http.Get(ctx, "/v2/search/dsl", query)
		if err != nil {
			return err
		}
		var page searchResponse
		if err := c.http.Decode(resp, &page); err != nil {
			return err
		}

		for _, header := range page.Entities {
			entity, ok := c.toEntity(header)
			if !ok {
				continue
			}
			into[entity.ID()] = entity
		}

		if len(page.Entities) < c.pageSize {
			return nil
		}
	}
}

// toEntity converts a search result header into a catalog entity. The
// qualifiedName carries the identity as schema.table[.column]@cluster; the
// cluster suffix is dropped.
func (c *Client) toEntity(header entityHeader) (tags.Entity, bool) {
	if header.Status == "DELETED" {
		return tags.Entity{}, false
	}

	qualifiedName, _ := header.Attributes["qualifiedName"].(string)
	if i := strings.LastIndex(qualifiedName, "@"); i >= 0 {
		qualifiedName = qualifiedName[:i]
	}
	parts := strings.Split(qualifiedName, ".")

	entity := tags.Entity{
		GUID: header.GUID,
		Tags: tags.NewSet(header.ClassificationNames...),
	}
	switch header.TypeName {
	case typeTable:
		if len(parts) != 2 {
			c.logger.Debug().Str("qualifiedName", qualifiedName).Msg("skipping table with unexpected qualified name")
			return tags.Entity{}, false
		}
		entity.Schema, entity.Table = parts[0], parts[1]
	case typeColumn:
		if len(parts) != 3 {
			c.logger.Debug().Str("qualifiedName", qualifiedName).Msg("skipping column with unexpected qualified name")
			return tags.Entity{}, false
		}
		entity.Schema, entity.Table, entity.Column = parts[0], parts[1], parts[2]
	default:
		return tags.Entity{}, false
	}
	return entity, true
}

func recordIDs(records []tags.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID().String())
	}
	return out
}
