package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"geotext/internal/domain"
)

var seedColumns = []string{"name", "lon", "lat", "class", "type"}

// SeedCSV loads location records from a CSV with the header name,lon,lat,class,type.
// All rows are written in a single transaction; a bad row aborts the whole seed.
// Rows whose name is already known are overwritten.
func SeedCSV(ctx context.Context, s domain.LocationStore, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return 0, err
	}

	var records []domain.LocationRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	err = s.Update(ctx, func(tx domain.LocationTx) error {
		for _, rec := range records {
			if err := tx.PutLocation(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range seedColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidInput, col)
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (domain.LocationRecord, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	name := get("name")
	if name == "" {
		return domain.LocationRecord{}, fmt.Errorf("%w: empty name", domain.ErrInvalidInput)
	}
	lon, err := strconv.ParseFloat(get("lon"), 64)
	if err != nil {
		return domain.LocationRecord{}, fmt.Errorf("%w: lon: %v", domain.ErrInvalidInput, err)
	}
	lat, err := strconv.ParseFloat(get("lat"), 64)
	if err != nil {
		return domain.LocationRecord{}, fmt.Errorf("%w: lat: %v", domain.ErrInvalidInput, err)
	}
	return domain.LocationRecord{
		Name:  name,
		Lon:   lon,
		Lat:   lat,
		Class: get("class"),
		Type:  get("type"),
	}, nil
}
