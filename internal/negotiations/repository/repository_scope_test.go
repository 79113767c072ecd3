package repository

import (
	"strings"
	"testing"
)

// Every query against the negotiation aggregate must carry the tenant
// predicate; these tests pin that down at the SQL level.

func TestGetQueryIsTenantScoped(t *testing.T) {
	query := strings.ToLower(getNegotiationQuery)

	for _, fragment := range []string{
		"from negotiations",
		"id = $1 and tenant_id = $2",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected tenant-scoped query fragment %q to be present", fragment)
		}
	}
}

func TestListQueryIsTenantScoped(t *testing.T) {
	query := strings.ToLower(listNegotiationsBase)

	if !strings.Contains(query, "where tenant_id = $1") {
		t.Fatal("expected list query to lead with the tenant predicate")
	}
}

func TestTransitionUpdateIsConditionedOnCurrentStatus(t *testing.T) {
	query := strings.ToLower(transitionUpdateQuery)

	for _, fragment := range []string{
		"where id = $4 and tenant_id = $5 and status = $6",
		"returning",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected transition update fragment %q to be present", fragment)
		}
	}
}

func TestTimelineQueriesAreTenantScopedAndOrdered(t *testing.T) {
	query := strings.ToLower(listTimelineQuery)

	for _, fragment := range []string{
		"negotiation_id = $1 and tenant_id = $2",
		"order by seq asc",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected timeline query fragment %q to be present", fragment)
		}
	}
}

func TestLedgerQueriesAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"commissions": listCommissionsQuery,
		"documents":   listDocumentsQuery,
	} {
		lowered := strings.ToLower(query)
		if !strings.Contains(lowered, "negotiation_id = $1 and tenant_id = $2") {
			t.Fatalf("%s query is not tenant scoped", name)
		}
	}
}

func TestStatsQueriesAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"by_status": statsByStatusQuery,
		"closed":    statsClosedQuery,
	} {
		lowered := strings.ToLower(query)
		if !strings.Contains(lowered, "tenant_id = $1") {
			t.Fatalf("%s stats query is not tenant scoped", name)
		}
	}
}
