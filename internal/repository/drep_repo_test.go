package repository

import (
	"strings"
	"testing"

	"govtwool/internal/domain"
)

func TestBuildDRepsQuery_NoFilters(t *testing.T) {
	stmt := buildDRepsQuery(domain.PageQuery{}.Normalize())

	if strings.Contains(stmt.list, "WHERE") || strings.Contains(stmt.count, "WHERE") {
		t.Fatalf("unexpected where clause: %s", stmt.list)
	}
	if !strings.Contains(stmt.list, "ORDER BY voting_power_active DESC NULLS LAST") {
		t.Fatalf("unexpected order: %s", stmt.list)
	}
	if !strings.HasSuffix(stmt.list, "LIMIT $1 OFFSET $2") {
		t.Fatalf("unexpected limit placeholders: %s", stmt.list)
	}
	if len(stmt.listArgs) != 2 || stmt.listArgs[0] != 21 || stmt.listArgs[1] != 0 {
		t.Fatalf("unexpected args: %v", stmt.listArgs)
	}
	if len(stmt.countArgs) != 0 {
		t.Fatalf("count must not take paging args: %v", stmt.countArgs)
	}
}

func TestBuildDRepsQuery_Filters(t *testing.T) {
	stmt := buildDRepsQuery(domain.PageQuery{
		Page: 3, PageSize: 10, Search: "50%_off", Statuses: []string{" Active ", "", "RETIRED"},
		Sort: "epoch", Direction: "asc",
	}.Normalize())

	if !strings.Contains(stmt.list, "LOWER(status) = ANY($1::text[])") {
		t.Fatalf("missing status filter: %s", stmt.list)
	}
	if !strings.Contains(stmt.list, "(drep_id ILIKE $2 OR view ILIKE $2 OR hex ILIKE $2)") {
		t.Fatalf("missing search filter: %s", stmt.list)
	}
	if !strings.Contains(stmt.list, "ORDER BY active_epoch ASC NULLS LAST") {
		t.Fatalf("unexpected order: %s", stmt.list)
	}
	if !strings.HasSuffix(stmt.list, "LIMIT $3 OFFSET $4") {
		t.Fatalf("unexpected limit placeholders: %s", stmt.list)
	}

	statuses, ok := stmt.listArgs[0].([]string)
	if !ok || len(statuses) != 2 || statuses[0] != "active" || statuses[1] != "retired" {
		t.Fatalf("unexpected statuses: %v", stmt.listArgs[0])
	}
	if stmt.listArgs[1] != `%50\%\_off%` {
		t.Fatalf("search must escape LIKE wildcards: %v", stmt.listArgs[1])
	}
	if stmt.listArgs[2] != 11 || stmt.listArgs[3] != 20 {
		t.Fatalf("unexpected paging args: %v", stmt.listArgs)
	}
	if stmt.count != "SELECT COUNT(*) FROM drep_registration WHERE LOWER(status) = ANY($1::text[]) AND (drep_id ILIKE $2 OR view ILIKE $2 OR hex ILIKE $2)" {
		t.Fatalf("unexpected count query: %s", stmt.count)
	}
	if len(stmt.countArgs) != 2 {
		t.Fatalf("unexpected count args: %v", stmt.countArgs)
	}
}
