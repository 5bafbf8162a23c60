package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/session"
)

const (
	subscriptionsAPIVersion = "2022-12-01"
	documentDBAPIVersion    = "2024-11-15"
)

type armSubscription struct {
	SubscriptionID string `json:"subscriptionId"`
	DisplayName    string `json:"displayName"`
	State          string `json:"state"`
}

type armDatabaseAccount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Properties struct {
		DocumentEndpoint string `json:"documentEndpoint"`
	} `json:"properties"`
}

type armKeys struct {
	PrimaryMasterKey string `json:"primaryMasterKey"`
}

// ListAccountGroups lists the subscriptions of every tenant in the session.
// A subscription visible from several tenants is reported once. Tenants that
// fail are skipped unless all of them fail.
func (c *Client) ListAccountGroups(ctx context.Context) ([]resource.AccountGroup, error) {
	s, err := c.store.Current()
	if err != nil {
		return nil, err
	}

	var (
		out  []resource.AccountGroup
		seen = make(map[string]bool)
		errs []error
	)
	creds := s.Tenants()
	for _, cred := range creds {
		subs, err := c.listSubscriptions(ctx, cred)
		if err != nil {
			c.log.Warn("failed to list subscriptions", "tenant", cred.TenantID, "error", err)
			errs = append(errs, err)
			continue
		}
		for _, sub := range subs {
			if seen[sub.SubscriptionID] {
				continue
			}
			seen[sub.SubscriptionID] = true
			c.rememberTenant(sub.SubscriptionID, cred.TenantID)
			out = append(out, resource.AccountGroup{
				ID:          sub.SubscriptionID,
				DisplayName: sub.DisplayName,
				TenantID:    cred.TenantID,
			})
		}
	}
	if len(creds) > 0 && len(errs) == len(creds) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (c *Client) listSubscriptions(ctx context.Context, cred *session.Credential) ([]armSubscription, error) {
	endpoint := c.managementURL + "/subscriptions?api-version=" + subscriptionsAPIVersion
	raw, err := c.armList(ctx, cred, "list subscriptions", endpoint)
	if err != nil {
		return nil, err
	}
	out := make([]armSubscription, 0, len(raw))
	for _, r := range raw {
		var sub armSubscription
		if err := json.Unmarshal(r, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		if sub.State != "" && !strings.EqualFold(sub.State, "Enabled") {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

// ListDataAccounts implements remote.Port.
func (c *Client) ListDataAccounts(ctx context.Context, group resource.AccountGroup) ([]resource.DataAccount, error) {
	cred, err := c.credential(group.TenantID)
	if err != nil {
		return nil, err
	}
	c.rememberTenant(group.ID, group.TenantID)

	endpoint := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.DocumentDB/databaseAccounts?api-version=%s",
		c.managementURL, url.PathEscape(group.ID), documentDBAPIVersion)
	raw, err := c.armList(ctx, cred, "list database accounts", endpoint)
	if err != nil {
		return nil, err
	}

	out := make([]resource.DataAccount, 0, len(raw))
	for _, r := range raw {
		var a armDatabaseAccount
		if err := json.Unmarshal(r, &a); err != nil {
			return nil, fmt.Errorf("failed to decode database account: %w", err)
		}
		if a.Kind != remote.DocumentAccountKind {
			continue
		}
		out = append(out, resource.DataAccount{
			ID:            a.ID,
			DisplayName:   a.Name,
			ResourceGroup: resourceGroupOf(a.ID),
			Endpoint:      a.Properties.DocumentEndpoint,
			GroupID:       group.ID,
		})
	}
	return out, nil
}

// listKeys returns the decoded primary master key of an account.
func (c *Client) listKeys(ctx context.Context, acc resource.DataAccount) ([]byte, error) {
	tenantID, ok := c.tenantOf(acc.GroupID)
	if !ok {
		return nil, fmt.Errorf("subscription %s of account %s has not been listed", acc.GroupID, acc.DisplayName)
	}
	cred, err := c.credential(tenantID)
	if err != nil {
		return nil, err
	}
	token, err := cred.Token()
	if err != nil {
		return nil, err
	}

	endpoint := c.managementURL + escapePath(acc.ID) + "/listKeys?api-version=" + documentDBAPIVersion
	rep, err := c.send(ctx, "list account keys", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var keys armKeys
	if err := json.Unmarshal(rep.body, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode account keys: %w", err)
	}
	key, err := decodeKey(keys.PrimaryMasterKey)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", acc.DisplayName, err)
	}
	return key, nil
}

// armList follows nextLink until every page of a list is read.
func (c *Client) armList(ctx context.Context, cred *session.Credential, op, endpoint string) ([]json.RawMessage, error) {
	token, err := cred.Token()
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for endpoint != "" {
		next := endpoint
		rep, err := c.send(ctx, op, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		var page struct {
			Value    []json.RawMessage `json:"value"`
			NextLink string            `json:"nextLink"`
		}
		if err := json.Unmarshal(rep.body, &page); err != nil {
			return nil, fmt.Errorf("%s: failed to decode page: %w", op, err)
		}
		out = append(out, page.Value...)
		endpoint = strings.TrimSpace(page.NextLink)
	}
	return out, nil
}

// resourceGroupOf extracts the resource group from an ARM resource id.
func resourceGroupOf(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
