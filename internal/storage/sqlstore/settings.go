package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// GetSetting reads an admin setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("value").From("admin_settings").Where(sq.Eq{"key": key}))
	if err != nil {
		return "", err
	}
	var value string
	if err := row.Scan(&value); err != nil {
		return "", mapErr(err, "setting "+key)
	}
	return value, nil
}

// PutSetting creates or replaces an admin setting.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, s.db, s.sb.Insert("admin_settings").Columns("key", "value", "updated_at").
		Values(key, value, s.now()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"))
	return mapErr(err, "put setting "+key)
}
