// Package postgres provides the Postgres-backed menu catalog.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/kioskvoice/ordergate/pkg/menu"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store reads menu items and their synonyms from Postgres. It implements
// menu.Store.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// FindBySynonym resolves a normalized utterance against the synonym index.
// An exact hit wins; otherwise any synonym contained in the utterance
// matches, so "아메리카노2개" still finds the americano. Synonyms are
// stored already normalized.
func (s *Store) FindBySynonym(ctx context.Context, normalized string) ([]menu.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT m.id, m.name, m.display_name, m.category, m.price
		FROM menu m
		JOIN menu_synonym syn ON syn.menu_id = m.id
		WHERE m.active AND syn.synonym = $1
		ORDER BY m.id
	`, normalized)
	if err != nil {
		return nil, err
	}
	items, err := scanItems(rows)
	rows.Close()
	if err != nil || len(items) > 0 {
		return items, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT DISTINCT m.id, m.name, m.display_name, m.category, m.price
		FROM menu m
		JOIN menu_synonym syn ON syn.menu_id = m.id
		WHERE m.active AND position(syn.synonym IN $1) > 0
		ORDER BY m.id
	`, normalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// ActiveItems returns the full active catalog.
func (s *Store) ActiveItems(ctx context.Context) ([]menu.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, display_name, category, price
		FROM menu
		WHERE active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// AddItem inserts a menu item and its synonyms. The display name is always
// indexed as a synonym of itself.
func (s *Store) AddItem(ctx context.Context, item menu.Item, synonyms ...string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO menu(name, display_name, category, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.Name, item.DisplayName, item.Category, item.Price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert menu item: %w", err)
	}

	terms := append([]string{item.DisplayName, item.Name}, synonyms...)
	for _, term := range terms {
		normalized := menu.Normalize(term)
		if normalized == "" {
			continue
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO menu_synonym(menu_id, synonym)
			VALUES ($1, $2)
			ON CONFLICT (menu_id, synonym) DO NOTHING
		`, id, normalized)
		if err != nil {
			return 0, fmt.Errorf("insert synonym %q: %w", term, err)
		}
	}
	return id, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanItems(rows pgxRows) ([]menu.Item, error) {
	var out []menu.Item
	for rows.Next() {
		var item menu.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.DisplayName, &item.Category, &item.Price); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
