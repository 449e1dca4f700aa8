package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"solo/models"
)

var preferenceColumns = []string{
	"blog_title", "blog_subtitle", "blog_host",
	"time_zone_id", "locale_string", "feed_output_mode",
}

// GetPreference returns the blog preference, or models.ErrNotFound before the
// blog has been initialized
func (db *DB) GetPreference(ctx context.Context) (*models.Preference, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select(preferenceColumns...).From("preferences").Where(sb.Equal("id", 0))

	query, args := sb.Build()

	var p models.Preference
	err := db.db.QueryRowContext(ctx, query, args...).Scan(
		&p.BlogTitle,
		&p.BlogSubtitle,
		&p.BlogHost,
		&p.TimeZoneId,
		&p.LocaleString,
		&p.FeedOutputMode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &p, nil
}

// SavePreference inserts or replaces the blog preference
func (db *DB) SavePreference(ctx context.Context, p models.Preference) error {
	if p.BlogTitle == "" || p.BlogHost == "" {
		return errors.New("blog title and host are required")
	}

	ib := db.flavor.NewInsertBuilder()
	ib.InsertInto("preferences").
		Cols(append([]string{"id"}, preferenceColumns...)...).
		Values(0, p.BlogTitle, p.BlogSubtitle, p.BlogHost, p.TimeZoneId, p.LocaleString, p.FeedOutputMode)
	ib.SQL(`ON CONFLICT (id) DO UPDATE SET
		blog_title = excluded.blog_title,
		blog_subtitle = excluded.blog_subtitle,
		blog_host = excluded.blog_host,
		time_zone_id = excluded.time_zone_id,
		locale_string = excluded.locale_string,
		feed_output_mode = excluded.feed_output_mode`)

	query, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert error: %w", err)
	}
	return nil
}
