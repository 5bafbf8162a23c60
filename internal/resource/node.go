// Package resource models the four-level Cosmos DB hierarchy browsed by
// cosmoclear: subscriptions (account groups), database accounts, databases
// and containers, plus the two placeholder nodes shown in place of a child
// list that is empty or could not be read.
//
// [Node] is a tagged variant. Callers dispatch on [Node.Kind] with an
// exhaustive switch instead of inspecting payload pointers.
package resource

import "fmt"

// Kind identifies which variant a Node holds.
type Kind int

const (
	// KindAccountGroup is a subscription, the root level.
	KindAccountGroup Kind = iota + 1
	// KindDataAccount is a Cosmos DB database account.
	KindDataAccount
	// KindDatabase is a SQL database inside an account.
	KindDatabase
	// KindContainer is a SQL container holding documents.
	KindContainer
	// KindNoResourcesFound stands in for an empty child list.
	KindNoResourcesFound
	// KindInsufficientPermission stands in for a child list that failed to load.
	KindInsufficientPermission
)

// String returns the kind name used in logs and labels.
func (k Kind) String() string {
	switch k {
	case KindAccountGroup:
		return "subscription"
	case KindDataAccount:
		return "account"
	case KindDatabase:
		return "database"
	case KindContainer:
		return "container"
	case KindNoResourcesFound:
		return "no-resources-found"
	case KindInsufficientPermission:
		return "insufficient-permission"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsSentinel reports whether the kind is a placeholder rather than a resource.
func (k Kind) IsSentinel() bool {
	return k == KindNoResourcesFound || k == KindInsufficientPermission
}

// Child returns the kind of the level below k, or 0 when k has no children.
func (k Kind) Child() Kind {
	switch k {
	case KindAccountGroup:
		return KindDataAccount
	case KindDataAccount:
		return KindDatabase
	case KindDatabase:
		return KindContainer
	default:
		return 0
	}
}

// Handle is an opaque capability issued by the fetch port that discovered an
// entity. Only the issuing port interprets it.
type Handle interface {
	// Endpoint returns the data-plane endpoint the handle is bound to.
	Endpoint() string
}

// AccountGroup is an Azure subscription.
type AccountGroup struct {
	ID          string
	DisplayName string
	TenantID    string
}

// DataAccount is a Cosmos DB account of the document (SQL) API kind.
type DataAccount struct {
	ID            string
	DisplayName   string
	ResourceGroup string
	Endpoint      string
	GroupID       string
}

// Database is a SQL database inside a DataAccount.
type Database struct {
	ID          string
	DisplayName string
	AccountID   string
	GroupID     string
	Handle      Handle
}

// Container is a SQL container. IsEmpty is a snapshot taken when the
// container was listed and is not updated afterwards.
type Container struct {
	ID          string
	DisplayName string
	IsEmpty     bool
	DatabaseID  string
	AccountID   string
	GroupID     string
	Handle      Handle
}

// Item is a single document inside a container.
type Item struct {
	ID string
	// PartitionKey is the JSON array of partition key values addressing the item.
	PartitionKey string
	// Document is the raw JSON body as returned by the service.
	Document []byte
}

// Node is one entry of the resource tree.
type Node struct {
	Kind Kind

	Group     *AccountGroup
	Account   *DataAccount
	Database  *Database
	Container *Container
}

// GroupNode wraps an AccountGroup.
func GroupNode(g AccountGroup) Node { return Node{Kind: KindAccountGroup, Group: &g} }

// AccountNode wraps a DataAccount.
func AccountNode(a DataAccount) Node { return Node{Kind: KindDataAccount, Account: &a} }

// DatabaseNode wraps a Database.
func DatabaseNode(d Database) Node { return Node{Kind: KindDatabase, Database: &d} }

// ContainerNode wraps a Container.
func ContainerNode(c Container) Node { return Node{Kind: KindContainer, Container: &c} }

// NoResourcesFound returns the placeholder for an empty child list.
func NoResourcesFound() Node { return Node{Kind: KindNoResourcesFound} }

// InsufficientPermission returns the placeholder for a child list that could not be read.
func InsufficientPermission() Node { return Node{Kind: KindInsufficientPermission} }

// ID returns the session-unique id of the resource. Sentinels have none.
func (n Node) ID() string {
	switch n.Kind {
	case KindAccountGroup:
		return n.Group.ID
	case KindDataAccount:
		return n.Account.ID
	case KindDatabase:
		return n.Database.ID
	case KindContainer:
		return n.Container.ID
	case KindNoResourcesFound, KindInsufficientPermission:
		return ""
	default:
		return ""
	}
}

// DisplayName returns the name shown to users and matched by type-to-confirm.
func (n Node) DisplayName() string {
	switch n.Kind {
	case KindAccountGroup:
		return n.Group.DisplayName
	case KindDataAccount:
		return n.Account.DisplayName
	case KindDatabase:
		return n.Database.DisplayName
	case KindContainer:
		return n.Container.DisplayName
	case KindNoResourcesFound:
		return "No resources found"
	case KindInsufficientPermission:
		return "Insufficient Permission"
	default:
		return ""
	}
}

// ParentID returns the id of the node one level up, or "" for subscriptions
// and sentinels.
func (n Node) ParentID() string {
	switch n.Kind {
	case KindDataAccount:
		return n.Account.GroupID
	case KindDatabase:
		return n.Database.AccountID
	case KindContainer:
		return n.Container.DatabaseID
	case KindAccountGroup, KindNoResourcesFound, KindInsufficientPermission:
		return ""
	default:
		return ""
	}
}

// GroupID returns the id of the subscription that owns the node.
func (n Node) GroupID() string {
	switch n.Kind {
	case KindAccountGroup:
		return n.Group.ID
	case KindDataAccount:
		return n.Account.GroupID
	case KindDatabase:
		return n.Database.GroupID
	case KindContainer:
		return n.Container.GroupID
	case KindNoResourcesFound, KindInsufficientPermission:
		return ""
	default:
		return ""
	}
}

// Validate checks that the payload matching Kind is present.
func (n Node) Validate() error {
	var ok bool
	switch n.Kind {
	case KindAccountGroup:
		ok = n.Group != nil
	case KindDataAccount:
		ok = n.Account != nil
	case KindDatabase:
		ok = n.Database != nil
	case KindContainer:
		ok = n.Container != nil
	case KindNoResourcesFound, KindInsufficientPermission:
		ok = true
	default:
		return fmt.Errorf("unknown node kind %d", int(n.Kind))
	}
	if !ok {
		return fmt.Errorf("%s node has no payload", n.Kind)
	}
	return nil
}

// String returns "kind:name" for logging.
func (n Node) String() string {
	return n.Kind.String() + ":" + n.DisplayName()
}
