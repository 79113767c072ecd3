package repository

import (
	"strings"
	"testing"
)

// Every query against the lead aggregate must carry the tenant predicate;
// these tests pin that down at the SQL level.

func TestGetLeadQueryIsTenantScoped(t *testing.T) {
	query := strings.ToLower(getLeadQuery)

	for _, fragment := range []string{
		"from leads",
		"id = $1 and tenant_id = $2",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected tenant-scoped query fragment %q to be present", fragment)
		}
	}
}

func TestListLeadsQueryIsTenantScopedAndRankedByScore(t *testing.T) {
	if !strings.Contains(strings.ToLower(listLeadsBase), "where tenant_id = $1") {
		t.Fatal("expected list query to lead with the tenant predicate")
	}
}

func TestLeadTimelineQueryIsTenantScopedAndOrdered(t *testing.T) {
	query := strings.ToLower(listLeadTimelineQuery)

	for _, fragment := range []string{
		"lead_id = $1 and tenant_id = $2",
		"order by seq asc",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected timeline query fragment %q to be present", fragment)
		}
	}
}

func TestLeadStatsQueryIsTenantScoped(t *testing.T) {
	if !strings.Contains(strings.ToLower(leadStatsQuery), "tenant_id = $1") {
		t.Fatal("expected stats query to be tenant scoped")
	}
}
