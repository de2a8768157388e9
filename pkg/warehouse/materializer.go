package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// Materializer creates and drops warehouse tables.
type Materializer struct {
	conn    Conn
	dialect *dialect.Dialect
	logger  *slog.Logger
}

// NewMaterializer creates a materializer writing through conn.
func NewMaterializer(conn Conn, d *dialect.Dialect, logger *slog.Logger) *Materializer {
	return &Materializer{conn: conn, dialect: mustDialect(d), logger: orDiscard(logger)}
}

// CreateTable plans the entity's table from the dataset's columns and
// creates it. An existing table is left alone.
func (m *Materializer) CreateTable(ctx context.Context, e schema.Entity, ds *dataset.Dataset) (*schema.TablePlan, error) {
	plan, err := schema.Plan(e, ds.Names())
	if err != nil {
		return nil, err
	}
	if err := m.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Create issues the DDL for a table plan.
func (m *Materializer) Create(ctx context.Context, plan *schema.TablePlan) error {
	stmts := CreateStatements(m.dialect, plan)
	setup, create := stmts[:len(stmts)-1], stmts[len(stmts)-1]

	for _, s := range setup {
		if _, err := m.conn.Exec(ctx, s); err != nil && !m.dialect.IsAlreadyExists(err) {
			return fmt.Errorf("create table %s: %w", plan.Table, err)
		}
	}

	if _, err := m.conn.Exec(ctx, create); err != nil {
		if m.dialect.IsAlreadyExists(err) {
			m.logger.Info("table already exists", "table", plan.Table)
			return nil
		}
		return fmt.Errorf("create table %s: %w", plan.Table, err)
	}

	m.logger.Info("created", "table", plan.Table, "columns", len(plan.Columns), "surrogate_key", plan.SurrogateKey)
	return nil
}

// DropTable drops a table. Failures are logged, never returned: a missing
// table at debug level, anything else at warn level.
func (m *Materializer) DropTable(ctx context.Context, table string) {
	_, err := m.conn.Exec(ctx, DropStatement(m.dialect, table))
	switch {
	case err == nil:
		m.logger.Debug("dropped", "table", table)
	case m.dialect.IsNotFound(err):
		m.logger.Debug("table not dropped, it does not exist", "table", table)
	default:
		m.logger.Warn("failed to drop table", "table", table, "error", err)
	}
}

// DropStatement renders the DROP TABLE statement for table.
func DropStatement(d *dialect.Dialect, table string) string {
	return "DROP TABLE " + d.QuoteIdentifier(table)
}

// CreateStatements renders a plan's DDL. The last statement is the CREATE
// TABLE; any before it prepare the surrogate key.
func CreateStatements(d *dialect.Dialect, plan *schema.TablePlan) []string {
	var setup []string
	defs := make([]string, 0, len(plan.Columns))

	for _, c := range plan.Columns {
		switch c.Role {
		case schema.RoleSurrogate:
			s, def := d.SurrogateKey(plan.Table, c.Name)
			setup = append(setup, s...)
			defs = append(defs, def)
		case schema.RoleTimestamp:
			defs = append(defs, d.TimestampColumn(c.Name))
		default:
			def := d.QuoteIdentifier(c.Name) + " " + d.TypeName(c.Type)
			if c.NotNull {
				def += " NOT NULL"
			}
			defs = append(defs, def)
		}
	}

	create := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", d.QuoteIdentifier(plan.Table), strings.Join(defs, ",\n\t"))
	return append(setup, create)
}
