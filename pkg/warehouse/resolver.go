package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// OrphanPolicy decides what happens to business keys with no target row.
type OrphanPolicy string

// Orphan policies.
const (
	OrphansIgnore OrphanPolicy = "ignore"
	OrphansWarn   OrphanPolicy = "warn"
	OrphansFail   OrphanPolicy = "fail"
)

// ParseOrphanPolicy validates a policy name. Empty means warn.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(s); p {
	case "":
		return OrphansWarn, nil
	case OrphansIgnore, OrphansWarn, OrphansFail:
		return p, nil
	}
	return "", fmt.Errorf("invalid orphan policy %q (want ignore, warn or fail)", s)
}

// OrphanError reports placeholders left at 0 after a backfill.
type OrphanError struct {
	Relationship schema.Relationship
	Count        int64
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("%s: %d business keys have no matching target row", e.Relationship, e.Count)
}

// Result summarizes one relationship's backfill.
type Result struct {
	Relationship    schema.Relationship
	TargetSurrogate string
	Resolved        int64
	Orphans         int64
}

// Resolver backfills foreign surrogate placeholders.
type Resolver struct {
	conn    Conn
	dialect *dialect.Dialect
	logger  *slog.Logger
	policy  OrphanPolicy
}

// NewResolver creates a resolver. An empty policy means warn.
func NewResolver(conn Conn, d *dialect.Dialect, logger *slog.Logger, policy OrphanPolicy) *Resolver {
	if policy == "" {
		policy = OrphansWarn
	}
	return &Resolver{conn: conn, dialect: mustDialect(d), logger: orDiscard(logger), policy: policy}
}

// TargetSurrogate picks the surrogate key column of a relationship's
// target: the declared table's key when known, else SK_<target column>.
func TargetSurrogate(rel schema.Relationship, declared map[string]string) string {
	rel = rel.Normalize()
	if sk, ok := declared[rel.ForeignTable]; ok && sk != "" {
		return sk
	}
	return schema.SurrogateColumn(rel.ForeignColumn)
}

// BackfillAll backfills relationships in order. declared maps table names
// to their surrogate key columns. A statement failure stops the pass;
// orphans under the fail policy are collected and returned together once
// every relationship has run.
func (r *Resolver) BackfillAll(ctx context.Context, rels []schema.Relationship, declared map[string]string) ([]Result, error) {
	results := make([]Result, 0, len(rels))
	var orphanErrs []error
	for _, rel := range rels {
		res, err := r.Backfill(ctx, rel, TargetSurrogate(rel, declared))
		if res != nil {
			results = append(results, *res)
		}
		var orphan *OrphanError
		switch {
		case errors.As(err, &orphan):
			orphanErrs = append(orphanErrs, err)
		case err != nil:
			return results, err
		}
	}
	return results, errors.Join(orphanErrs...)
}

// Backfill sets the source placeholders of one relationship to the target
// surrogate of the most recent target row with the same business key. Only
// placeholders still at 0 are touched, so repeating it is harmless.
func (r *Resolver) Backfill(ctx context.Context, rel schema.Relationship, targetSK string) (*Result, error) {
	rel = rel.Normalize()
	if targetSK == "" {
		targetSK = schema.SurrogateColumn(rel.ForeignColumn)
	}

	resolved, err := r.conn.Exec(ctx, BackfillStatement(r.dialect, rel, targetSK))
	if err != nil {
		return nil, fmt.Errorf("backfill %s: %w", rel, err)
	}

	orphans, err := queryInt(ctx, r.conn, OrphanCountStatement(r.dialect, rel))
	if err != nil {
		return nil, fmt.Errorf("count orphans of %s: %w", rel, err)
	}

	res := &Result{Relationship: rel, TargetSurrogate: targetSK, Resolved: resolved, Orphans: orphans}
	r.logger.Info("backfilled", "relationship", rel.String(), "resolved", resolved, "orphans", orphans)

	if orphans > 0 {
		switch r.policy {
		case OrphansWarn:
			r.logger.Warn("unresolved business keys", "relationship", rel.String(), "count", orphans)
		case OrphansFail:
			return res, &OrphanError{Relationship: rel, Count: orphans}
		}
	}
	return res, nil
}

// BackfillStatement renders the UPDATE resolving one relationship. Among
// target rows sharing a business key the newest timestamp wins, then the
// highest surrogate key.
func BackfillStatement(d *dialect.Dialect, rel schema.Relationship, targetSK string) string {
	rel = rel.Normalize()
	q := d.QuoteIdentifier
	src := q(rel.Table)
	ph := q(rel.Placeholder())
	return fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = m.sk FROM ("+
			"SELECT %[3]s AS sk, %[4]s AS bk, "+
			"ROW_NUMBER() OVER (PARTITION BY %[4]s ORDER BY %[5]s DESC, %[3]s DESC) AS rn "+
			"FROM %[6]s) AS m "+
			"WHERE %[1]s.%[7]s = m.bk AND m.rn = 1 AND %[1]s.%[2]s = 0",
		src, ph, q(targetSK), q(rel.ForeignColumn), q(schema.TimestampColumn), q(rel.ForeignTable), q(rel.Column),
	)
}

// OrphanCountStatement renders the count of placeholders still at 0.
func OrphanCountStatement(d *dialect.Dialect, rel schema.Relationship) string {
	rel = rel.Normalize()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = 0", d.QuoteIdentifier(rel.Table), d.QuoteIdentifier(rel.Placeholder()))
}
