package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govtwool/internal/domain"
)

// DRepRepository pagina registros de DReps de yaci-store.
type DRepRepository interface {
	ListDReps(ctx context.Context, q domain.PageQuery) (domain.Page, error)
}

// PgDRepRepository implementa DRepRepository usando pgxpool.
type PgDRepRepository struct {
	pool *pgxpool.Pool
}

func NewPgDRepRepository(pool *pgxpool.Pool) *PgDRepRepository {
	return &PgDRepRepository{pool: pool}
}

// ListDReps es ListPage con la firma de un listador de DReps.
func (r *PgDRepRepository) ListDReps(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	return r.ListPage(ctx, q)
}

// ListPage trae una pagina y el total de filas que cumplen el filtro.
// La pagina pide una fila extra para saber si hay mas.
func (r *PgDRepRepository) ListPage(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	q = q.Normalize()
	stmt := buildDRepsQuery(q)

	rows, err := r.pool.Query(ctx, stmt.list, stmt.listArgs...)
	if err != nil {
		return domain.Page{}, fmt.Errorf("query dreps: %w", err)
	}
	entities, err := pgx.CollectRows(rows, scanDRep)
	if err != nil {
		return domain.Page{}, fmt.Errorf("scan dreps: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, stmt.count, stmt.countArgs...).Scan(&total); err != nil {
		return domain.Page{}, fmt.Errorf("count dreps: %w", err)
	}

	page := domain.Page{Total: &total}
	if len(entities) > q.PageSize {
		page.HasMore = true
		entities = entities[:q.PageSize]
	}
	page.Entities = entities
	return page, nil
}

func scanDRep(row pgx.CollectableRow) (domain.Entity, error) {
	var (
		e                     domain.Entity
		hex, view, status     *string
		anchorURL, anchorHash *string
		votingPower           *string
		active                *bool
		activeEpoch           *int
	)
	if err := row.Scan(&e.ID, &hex, &view, &anchorURL, &anchorHash, &votingPower, &status, &active, &activeEpoch); err != nil {
		return domain.Entity{}, err
	}
	e.Kind = domain.KindDRep
	e.Hex = deref(hex)
	e.View = deref(view)
	e.Status = deref(status)
	e.VotingPower = deref(votingPower)
	e.Active = active
	if activeEpoch != nil {
		e.ActiveEpoch = *activeEpoch
	}
	if u := deref(anchorURL); u != "" {
		e.Anchor = &domain.Anchor{URL: u, DataHash: deref(anchorHash)}
	}
	return e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type drepsStatement struct {
	list      string
	listArgs  []any
	count     string
	countArgs []any
}

func buildDRepsQuery(q domain.PageQuery) drepsStatement {
	var (
		where []string
		args  []any
	)
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				statuses = append(statuses, s)
			}
		}
		if len(statuses) > 0 {
			args = append(args, statuses)
			where = append(where, fmt.Sprintf("LOWER(status) = ANY($%d::text[])", len(args)))
		}
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(drep_id ILIKE $%d OR view ILIKE $%d OR hex ILIKE $%d)", n, n, n))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	list := `SELECT drep_id, hex, view, anchor_url, anchor_hash, voting_power::text, status, active, active_epoch
		FROM drep_registration` + whereSQL +
		" ORDER BY " + orderBy(q) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	listArgs := append(append([]any{}, args...), q.PageSize+1, (q.Page-1)*q.PageSize)

	return drepsStatement{
		list:      list,
		listArgs:  listArgs,
		count:     "SELECT COUNT(*) FROM drep_registration" + whereSQL,
		countArgs: args,
	}
}

func orderBy(q domain.PageQuery) string {
	dir := "DESC"
	if q.Direction == "asc" {
		dir = "ASC"
	}
	col := "voting_power_active"
	switch strings.ToLower(q.Sort) {
	case "epoch", "active_epoch":
		col = "active_epoch"
	}
	return fmt.Sprintf("%s %s NULLS LAST, drep_id ASC", col, dir)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
