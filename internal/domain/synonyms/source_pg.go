package synonyms

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres sources for deployments that keep the key dictionaries in the
// reference schema instead of JSON files. Rows are read once at startup
// into the same in-memory structures the file loaders produce; the pool is
// not retained.

// LoadBodyPartKeyPG reads the body-part synonym table.
func LoadBodyPartKeyPG(ctx context.Context, pool *pgxpool.Pool) (*BodyPartKey, error) {
	data, err := readKeyRows(ctx, pool,
		`SELECT synonym, preferred FROM pcs_body_part_key ORDER BY synonym, ord`)
	if err != nil {
		return nil, fmt.Errorf("load body part key: %w", err)
	}
	return NewBodyPartKey(data), nil
}

// LoadDeviceKeyPG reads the device synonym table.
func LoadDeviceKeyPG(ctx context.Context, pool *pgxpool.Pool) (*DeviceKey, error) {
	data, err := readKeyRows(ctx, pool,
		`SELECT synonym, device_value FROM pcs_device_key ORDER BY synonym, ord`)
	if err != nil {
		return nil, fmt.Errorf("load device key: %w", err)
	}
	return NewDeviceKey(data), nil
}

// LoadDeviceAggregationPG reads the device aggregation table.
func LoadDeviceAggregationPG(ctx context.Context, pool *pgxpool.Pool) (*DeviceAggregation, error) {
	rows, err := pool.Query(ctx,
		`SELECT specific_device, general_device FROM pcs_device_aggregation ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load device aggregation: %w", err)
	}
	defer rows.Close()

	var records []AggregationRecord
	for rows.Next() {
		var r AggregationRecord
		if err := rows.Scan(&r.SpecificDevice, &r.GeneralDevice); err != nil {
			return nil, fmt.Errorf("load device aggregation: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load device aggregation: %w", err)
	}
	return NewDeviceAggregation(records), nil
}

func readKeyRows(ctx context.Context, pool *pgxpool.Pool, query string) (map[string][]string, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make(map[string][]string)
	for rows.Next() {
		var syn, val string
		if err := rows.Scan(&syn, &val); err != nil {
			return nil, err
		}
		data[syn] = append(data[syn], val)
	}
	return data, rows.Err()
}
