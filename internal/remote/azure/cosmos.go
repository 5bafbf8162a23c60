package azure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/resource"
)

const (
	cosmosAPIVersion = "2018-12-31"
	pageSize         = "1000"
)

// accountHandle binds data-plane calls to an account endpoint and key.
type accountHandle struct {
	endpoint string
	key      []byte
}

func (h accountHandle) Endpoint() string { return h.endpoint }

type databaseHandle struct {
	accountHandle
	database string
}

type containerHandle struct {
	databaseHandle
	container      string
	partitionPaths []string
}

// ListDatabases implements remote.Port.
func (c *Client) ListDatabases(ctx context.Context, acc resource.DataAccount) ([]resource.Database, error) {
	if acc.Endpoint == "" {
		return nil, fmt.Errorf("account %s has no document endpoint", acc.DisplayName)
	}
	key, err := c.listKeys(ctx, acc)
	if err != nil {
		return nil, err
	}
	h := accountHandle{endpoint: acc.Endpoint, key: key}

	raw, err := c.feed(ctx, h, "dbs", "", "Databases", false)
	if err != nil {
		return nil, err
	}
	out := make([]resource.Database, 0, len(raw))
	for _, r := range raw {
		var db struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &db); err != nil {
			return nil, fmt.Errorf("failed to decode database: %w", err)
		}
		out = append(out, resource.Database{
			ID:          acc.ID + "/dbs/" + db.ID,
			DisplayName: db.ID,
			AccountID:   acc.ID,
			GroupID:     acc.GroupID,
			Handle:      databaseHandle{accountHandle: h, database: db.ID},
		})
	}
	return out, nil
}

// ListContainers implements remote.Port.
func (c *Client) ListContainers(ctx context.Context, db resource.Database) ([]resource.Container, error) {
	h, ok := db.Handle.(databaseHandle)
	if !ok {
		return nil, remote.ErrForeignHandle
	}

	link := "dbs/" + h.database
	raw, err := c.feed(ctx, h.accountHandle, "colls", link, "DocumentCollections", false)
	if err != nil {
		return nil, err
	}

	out := make([]resource.Container, 0, len(raw))
	for _, r := range raw {
		var coll struct {
			ID           string `json:"id"`
			PartitionKey struct {
				Paths []string `json:"paths"`
			} `json:"partitionKey"`
		}
		if err := json.Unmarshal(r, &coll); err != nil {
			return nil, fmt.Errorf("failed to decode container: %w", err)
		}
		ch := containerHandle{databaseHandle: h, container: coll.ID, partitionPaths: coll.PartitionKey.Paths}

		probe, err := c.feed(ctx, h.accountHandle, "docs", ch.link(), "Documents", true)
		if err != nil {
			return nil, fmt.Errorf("failed to probe container %s: %w", coll.ID, err)
		}

		out = append(out, resource.Container{
			ID:          db.ID + "/colls/" + coll.ID,
			DisplayName: coll.ID,
			IsEmpty:     len(probe) == 0,
			DatabaseID:  db.ID,
			AccountID:   db.AccountID,
			GroupID:     db.GroupID,
			Handle:      ch,
		})
	}
	return out, nil
}

// ListItems implements remote.Port.
func (c *Client) ListItems(ctx context.Context, ct resource.Container) ([]resource.Item, error) {
	h, ok := ct.Handle.(containerHandle)
	if !ok {
		return nil, remote.ErrForeignHandle
	}

	raw, err := c.feed(ctx, h.accountHandle, "docs", h.link(), "Documents", false)
	if err != nil {
		return nil, err
	}

	out := make([]resource.Item, 0, len(raw))
	for _, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.UseNumber()
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		id, _ := doc["id"].(string)
		out = append(out, resource.Item{
			ID:           id,
			PartitionKey: partitionKeyOf(doc, h.partitionPaths),
			Document:     r,
		})
	}
	return out, nil
}

// DeleteItem implements remote.Port.
func (c *Client) DeleteItem(ctx context.Context, ct resource.Container, item resource.Item) error {
	h, ok := ct.Handle.(containerHandle)
	if !ok {
		return remote.ErrForeignHandle
	}

	link := h.link() + "/docs/" + item.ID
	_, err := c.send(ctx, "delete document", func() (*http.Request, error) {
		req, err := c.dataRequest(ctx, h.accountHandle, http.MethodDelete, "docs", link, link)
		if err != nil {
			return nil, err
		}
		if item.PartitionKey != "" {
			req.Header.Set("x-ms-documentdb-partitionkey", item.PartitionKey)
		}
		return req, nil
	})
	return err
}

func (h containerHandle) link() string {
	return "dbs/" + h.database + "/colls/" + h.container
}

// feed reads a resource feed below parentLink, following continuations.
// With probe set it stops at the first non-empty page.
func (c *Client) feed(ctx context.Context, h accountHandle, resourceType, parentLink, field string, probe bool) ([]json.RawMessage, error) {
	path := resourceType
	if parentLink != "" {
		path = parentLink + "/" + resourceType
	}
	op := "list " + resourceType

	var (
		out          []json.RawMessage
		continuation string
	)
	for {
		token := continuation
		rep, err := c.send(ctx, op, func() (*http.Request, error) {
			req, err := c.dataRequest(ctx, h, http.MethodGet, resourceType, parentLink, path)
			if err != nil {
				return nil, err
			}
			if probe {
				req.Header.Set("x-ms-max-item-count", "1")
			} else {
				req.Header.Set("x-ms-max-item-count", pageSize)
			}
			if token != "" {
				req.Header.Set("x-ms-continuation", token)
			}
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		var page map[string]json.RawMessage
		if err := json.Unmarshal(rep.body, &page); err != nil {
			return nil, fmt.Errorf("%s: failed to decode page: %w", op, err)
		}
		var items []json.RawMessage
		if v, ok := page[field]; ok {
			if err := json.Unmarshal(v, &items); err != nil {
				return nil, fmt.Errorf("%s: failed to decode %s: %w", op, field, err)
			}
		}
		out = append(out, items...)

		continuation = rep.header.Get("x-ms-continuation")
		if continuation == "" || (probe && len(out) > 0) {
			return out, nil
		}
	}
}

// dataRequest builds a signed data-plane request. resourceLink is the
// unescaped link used for signing; path is appended to the endpoint.
func (c *Client) dataRequest(ctx context.Context, h accountHandle, method, resourceType, resourceLink, path string) (*http.Request, error) {
	endpoint := strings.TrimRight(h.endpoint, "/") + "/" + strings.TrimLeft(escapePath(path), "/")
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	date := c.now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-version", cosmosAPIVersion)
	req.Header.Set("Authorization", masterKeyAuth(h.key, method, resourceType, resourceLink, date))
	return req, nil
}

func decodeKey(key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("no primary master key returned")
	}
	out, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid master key: %w", err)
	}
	return out, nil
}
