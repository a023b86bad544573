package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

// recordQueries are built once from the configured table mapping. The
// table belongs to another application, so ids are compared as text and
// nullable columns are coalesced.
type recordQueries struct {
	list     string
	findByID string
	update   string
}

func buildQueries(t config.TableConfig) (recordQueries, error) {
	if t.Name == "" || t.IDColumn == "" || t.TitleColumn == "" || t.ImageURLColumn == "" {
		return recordQueries{}, fmt.Errorf("table mapping is incomplete: %+v", t)
	}

	table := quoteQualified(t.Name)
	id := pq.QuoteIdentifier(t.IDColumn)
	title := pq.QuoteIdentifier(t.TitleColumn)
	image := pq.QuoteIdentifier(t.ImageURLColumn)

	selectCols := fmt.Sprintf("%s::text, COALESCE(%s::text, ''), COALESCE(%s::text, '')", id, title, image)

	return recordQueries{
		list:     fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", selectCols, table, id),
		findByID: fmt.Sprintf("SELECT %s FROM %s WHERE %s::text = $1", selectCols, table, id),
		update:   fmt.Sprintf("UPDATE %s SET %s = $2 WHERE %s::text = $1", table, image, id),
	}, nil
}

// quoteQualified quotes "schema.table" part by part.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

type recordRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
	queries  recordQueries
}

func NewRecordRepository(db *dbpg.DB, table config.TableConfig, strategy retry.Strategy) (domain.RecordRepository, error) {
	queries, err := buildQueries(table)
	if err != nil {
		return nil, err
	}
	return &recordRepository{
		db:       db,
		strategy: strategy,
		queries:  queries,
	}, nil
}

func (r *recordRepository) List(ctx context.Context) ([]domain.ImageReference, error) {
	rows, err := r.db.QueryWithRetry(ctx, r.strategy, r.queries.list)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list records")
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var refs []domain.ImageReference
	for rows.Next() {
		var ref domain.ImageReference
		if err := rows.Scan(&ref.RecordID, &ref.Title, &ref.URL); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	zlog.Logger.Debug().Int("records", len(refs)).Msg("records loaded")
	return refs, nil
}

func (r *recordRepository) FindByID(ctx context.Context, id string) (*domain.ImageReference, error) {
	var ref domain.ImageReference
	err := r.db.Master.QueryRowContext(ctx, r.queries.findByID, id).Scan(&ref.RecordID, &ref.Title, &ref.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("record_id", id).Msg("failed to find record")
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &ref, nil
}

func (r *recordRepository) UpdateImageURL(ctx context.Context, id, url string) error {
	result, err := r.db.ExecWithRetry(ctx, r.strategy, r.queries.update, id, url)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("record_id", id).Msg("failed to update image url")
		return fmt.Errorf("update image url: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}

	zlog.Logger.Info().Str("record_id", id).Msg("record image url updated")
	return nil
}
