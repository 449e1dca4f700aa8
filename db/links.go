package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"solo/models"
	"solo/query"
	"strings"

	log "github.com/sirupsen/logrus"
)

var linkColumns = []string{"id", "title", "address", "description", "link_order"}

func scanLink(row scanner) (models.Link, error) {
	var link models.Link
	err := row.Scan(&link.Id, &link.Title, &link.Address, &link.Description, &link.Order)
	return link, err
}

func validateLink(link *models.Link) error {
	if strings.TrimSpace(link.Title) == "" || strings.TrimSpace(link.Address) == "" {
		return errors.New("link title and address are required")
	}
	return nil
}

func (db *DB) getLink(ctx context.Context, q querier, id string) (*models.Link, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select(linkColumns...).From("links").Where(sb.Equal("id", id))

	query, args := sb.Build()

	link, err := scanLink(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &link, nil
}

func (db *DB) GetLink(ctx context.Context, id string) (*models.Link, error) {
	return db.getLink(ctx, db.db, id)
}

// GetLinks returns one page of links in display order and the total link count
func (db *DB) GetLinks(ctx context.Context, page query.Page) ([]models.Link, int, error) {
	count := db.flavor.NewSelectBuilder()
	count.Select("COUNT(*)").From("links")

	countQuery, countArgs := count.Build()

	var total int
	if err := db.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count error: %w", err)
	}

	sb := db.flavor.NewSelectBuilder()
	sb.Select(linkColumns...).From("links")
	sb.OrderBy("link_order").Asc()
	sb.Limit(page.Size).Offset(page.Offset())

	selectQuery, args := sb.Build()

	rows, err := db.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan error: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return links, total, nil
}

// CreateLink appends the link after the current last one and returns its id
func (db *DB) CreateLink(ctx context.Context, link models.Link) (string, error) {
	if err := validateLink(&link); err != nil {
		return "", err
	}

	link.Id = NewId()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		sb := db.flavor.NewSelectBuilder()
		sb.Select("COALESCE(MAX(link_order), -1)").From("links")

		query, args := sb.Build()

		var maxOrder int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&maxOrder); err != nil {
			return fmt.Errorf("query error: %w", err)
		}
		link.Order = maxOrder + 1

		ib := db.flavor.NewInsertBuilder()
		ib.InsertInto("links").Cols(linkColumns...).
			Values(link.Id, link.Title, link.Address, link.Description, link.Order)

		query, args = ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert error: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"id":    link.Id,
		"order": link.Order,
	}).Info("Created link")

	return link.Id, nil
}

// UpdateLink updates title, address and description. The order is kept.
func (db *DB) UpdateLink(ctx context.Context, link models.Link) error {
	if err := validateLink(&link); err != nil {
		return err
	}

	ub := db.flavor.NewUpdateBuilder()
	ub.Update("links").Set(
		ub.Assign("title", link.Title),
		ub.Assign("address", link.Address),
		ub.Assign("description", link.Description),
	).Where(ub.Equal("id", link.Id))

	query, args := ub.Build()
	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteLink(ctx context.Context, id string) error {
	del := db.flavor.NewDeleteBuilder()
	del.DeleteFrom("links").Where(del.Equal("id", id))

	query, args := del.Build()
	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ChangeLinkOrder swaps the link's order with its neighbour in direction "up"
// or "down". Moving the first link up or the last link down is a no-op.
func (db *DB) ChangeLinkOrder(ctx context.Context, id string, direction string) error {
	if direction != "up" && direction != "down" {
		return fmt.Errorf("invalid direction %q", direction)
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		src, err := db.getLink(ctx, tx, id)
		if err != nil {
			return err
		}

		sb := db.flavor.NewSelectBuilder()
		sb.Select(linkColumns...).From("links")
		if direction == "up" {
			sb.Where(sb.LessThan("link_order", src.Order))
			sb.OrderBy("link_order").Desc()
		} else {
			sb.Where(sb.GreaterThan("link_order", src.Order))
			sb.OrderBy("link_order").Asc()
		}
		sb.Limit(1)

		query, args := sb.Build()
		target, err := scanLink(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("query error: %w", err)
		}

		for _, swap := range []struct {
			id    string
			order int
		}{{src.Id, target.Order}, {target.Id, src.Order}} {
			ub := db.flavor.NewUpdateBuilder()
			ub.Update("links").Set(ub.Assign("link_order", swap.order)).Where(ub.Equal("id", swap.id))

			query, args := ub.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update error: %w", err)
			}
		}

		return nil
	})
}
