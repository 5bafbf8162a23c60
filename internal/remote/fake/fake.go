// Package fake provides an in-memory remote.Port for tests.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/session"
)

// handle is the capability issued by the fake port.
type handle struct{ endpoint string }

func (h handle) Endpoint() string { return h.endpoint }

type account struct {
	resource.DataAccount
	kind string
}

// Port simulates the management and data-plane APIs.
//
// Errors maps an operation key to the error it returns. Keys are
// "groups", "accounts:<groupID>", "databases:<accountID>",
// "containers:<databaseID>", "items:<containerID>" and
// "delete:<containerID>/<itemID>".
type Port struct {
	mu sync.Mutex

	groups     []resource.AccountGroup
	accounts   map[string][]account
	databases  map[string][]string
	containers map[string][]string
	items      map[string][]resource.Item

	// Store, when set, is consulted to resolve a credential for every
	// subscription-scoped call.
	Store *session.Store

	Errors map[string]error
	Calls  map[string]int

	// BeforeList, when set, runs before every list call with its key.
	BeforeList func(key string)
}

// New returns an empty fake port.
func New() *Port {
	return &Port{
		accounts:   make(map[string][]account),
		databases:  make(map[string][]string),
		containers: make(map[string][]string),
		items:      make(map[string][]resource.Item),
		Errors:     make(map[string]error),
		Calls:      make(map[string]int),
	}
}

// AddGroup registers a subscription.
func (p *Port) AddGroup(id, name, tenantID string) resource.AccountGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	g := resource.AccountGroup{ID: id, DisplayName: name, TenantID: tenantID}
	p.groups = append(p.groups, g)
	return g
}

// AddAccount registers an account of the given kind under a subscription.
func (p *Port) AddAccount(groupID, name, kind string) resource.DataAccount {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := resource.DataAccount{
		ID:            "/subscriptions/" + groupID + "/resourceGroups/rg/providers/Microsoft.DocumentDB/databaseAccounts/" + name,
		DisplayName:   name,
		ResourceGroup: "rg",
		Endpoint:      "https://" + name + ".documents.azure.com:443/",
		GroupID:       groupID,
	}
	p.accounts[groupID] = append(p.accounts[groupID], account{DataAccount: a, kind: kind})
	return a
}

// AddDatabase registers a database and returns its id.
func (p *Port) AddDatabase(accountID, name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.databases[accountID] = append(p.databases[accountID], name)
	return accountID + "/dbs/" + name
}

// AddContainer registers a container and returns its id.
func (p *Port) AddContainer(databaseID, name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.containers[databaseID] = append(p.containers[databaseID], name)
	return databaseID + "/colls/" + name
}

// AddItems stores documents with the given ids in a container.
func (p *Port) AddItems(containerID string, ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.items[containerID] = append(p.items[containerID], resource.Item{
			ID:           id,
			PartitionKey: fmt.Sprintf("[%q]", id),
			Document:     []byte(fmt.Sprintf(`{"id":%q}`, id)),
		})
	}
}

// ItemCount returns the number of documents left in a container.
func (p *Port) ItemCount(containerID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items[containerID])
}

// CallCount returns how often the operation key was invoked.
func (p *Port) CallCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls[key]
}

func (p *Port) begin(ctx context.Context, key string) error {
	if p.BeforeList != nil {
		p.BeforeList(key)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls[key]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.Errors[key]
}

func (p *Port) credential(tenantID string) error {
	if p.Store == nil {
		return nil
	}
	s, err := p.Store.Current()
	if err != nil {
		return err
	}
	_, err = s.Credential(tenantID)
	return err
}

func (p *Port) tenantOf(groupID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.groups {
		if g.ID == groupID {
			return g.TenantID
		}
	}
	return ""
}

// ListAccountGroups implements remote.Port.
func (p *Port) ListAccountGroups(ctx context.Context) ([]resource.AccountGroup, error) {
	if p.Store != nil {
		if _, err := p.Store.Current(); err != nil {
			return nil, err
		}
	}
	if err := p.begin(ctx, "groups"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]resource.AccountGroup(nil), p.groups...), nil
}

// ListDataAccounts implements remote.Port.
func (p *Port) ListDataAccounts(ctx context.Context, group resource.AccountGroup) ([]resource.DataAccount, error) {
	if err := p.credential(group.TenantID); err != nil {
		return nil, err
	}
	if err := p.begin(ctx, "accounts:"+group.ID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []resource.DataAccount
	for _, a := range p.accounts[group.ID] {
		if a.kind == remote.DocumentAccountKind {
			out = append(out, a.DataAccount)
		}
	}
	return out, nil
}

// ListDatabases implements remote.Port.
func (p *Port) ListDatabases(ctx context.Context, acc resource.DataAccount) ([]resource.Database, error) {
	if err := p.credential(p.tenantOf(acc.GroupID)); err != nil {
		return nil, err
	}
	if err := p.begin(ctx, "databases:"+acc.ID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]resource.Database, 0, len(p.databases[acc.ID]))
	for _, name := range p.databases[acc.ID] {
		out = append(out, resource.Database{
			ID:          acc.ID + "/dbs/" + name,
			DisplayName: name,
			AccountID:   acc.ID,
			GroupID:     acc.GroupID,
			Handle:      handle{endpoint: acc.Endpoint},
		})
	}
	return out, nil
}

// ListContainers implements remote.Port.
func (p *Port) ListContainers(ctx context.Context, db resource.Database) ([]resource.Container, error) {
	if _, ok := db.Handle.(handle); !ok {
		return nil, remote.ErrForeignHandle
	}
	if err := p.begin(ctx, "containers:"+db.ID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]resource.Container, 0, len(p.containers[db.ID]))
	for _, name := range p.containers[db.ID] {
		id := db.ID + "/colls/" + name
		out = append(out, resource.Container{
			ID:          id,
			DisplayName: name,
			IsEmpty:     len(p.items[id]) == 0,
			DatabaseID:  db.ID,
			AccountID:   db.AccountID,
			GroupID:     db.GroupID,
			Handle:      db.Handle,
		})
	}
	return out, nil
}

// ListItems implements remote.Port.
func (p *Port) ListItems(ctx context.Context, c resource.Container) ([]resource.Item, error) {
	if _, ok := c.Handle.(handle); !ok {
		return nil, remote.ErrForeignHandle
	}
	if err := p.begin(ctx, "items:"+c.ID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]resource.Item(nil), p.items[c.ID]...), nil
}

// DeleteItem implements remote.Port.
func (p *Port) DeleteItem(_ context.Context, c resource.Container, item resource.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := "delete:" + c.ID + "/" + item.ID
	p.Calls["delete"]++
	if err := p.Errors[key]; err != nil {
		return err
	}
	items := p.items[c.ID]
	for i, it := range items {
		if it.ID == item.ID {
			p.items[c.ID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", item.ID, remote.ErrNotFound)
}
