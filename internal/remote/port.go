// Package remote defines the contract between cosmoclear and the service
// that owns the resource hierarchy.
//
// The cache and the clear engine depend only on [Port]. The Azure
// implementation lives in remote/azure; remote/fake provides an in-memory
// implementation for tests.
package remote

import (
	"context"
	"errors"

	"github.com/imamik/cosmoclear/internal/resource"
)

// DocumentAccountKind is the account kind served by the document (SQL) API.
// Accounts of any other kind are filtered out by ListDataAccounts.
const DocumentAccountKind = "GlobalDocumentDB"

var (
	// ErrUnauthorized is returned when the service rejects the caller's credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a resource no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrThrottled is returned when requests kept being throttled after retries.
	ErrThrottled = errors.New("throttled")

	// ErrForeignHandle is returned when an entity's handle was issued by a different port.
	ErrForeignHandle = errors.New("handle was not issued by this port")
)

// Port lists resources level by level and deletes documents.
type Port interface {
	// ListAccountGroups lists the subscriptions visible to the current session.
	ListAccountGroups(ctx context.Context) ([]resource.AccountGroup, error)

	// ListDataAccounts lists the document-API accounts in a subscription.
	ListDataAccounts(ctx context.Context, group resource.AccountGroup) ([]resource.DataAccount, error)

	// ListDatabases lists the databases of an account. The account key is
	// resolved once per call and carried in the returned handles.
	ListDatabases(ctx context.Context, account resource.DataAccount) ([]resource.Database, error)

	// ListContainers lists the containers of a database, probing each for emptiness.
	ListContainers(ctx context.Context, database resource.Database) ([]resource.Container, error)

	// ListItems enumerates every document of a container.
	ListItems(ctx context.Context, container resource.Container) ([]resource.Item, error)

	// DeleteItem deletes one document.
	DeleteItem(ctx context.Context, container resource.Container, item resource.Item) error
}
