package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	timestampColumn = "timestamp"
	usageColumn     = "usage_liters"
)

// timestamps without a zone are read as UTC wall clock so their hour is the
// hour the tariff sees
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseUsageCSV reads an hourly usage export.
//
// Expected format:
//
//	timestamp,usage_liters
//	2024-01-01 07:00:00,12.5
//
// Lines starting with # are comments. Rows that fail to parse or carry a
// negative usage are skipped. The result is sorted by timestamp.
func ParseUsageCSV(r io.Reader) ([]types.UsageSample, int, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading CSV header: %w", err)
	}
	tsIdx, usageIdx, err := columnIndexes(header)
	if err != nil {
		return nil, 0, err
	}

	var samples []types.UsageSample
	var skipped int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("reading CSV: %w", err)
		}
		sample, err := parseRecord(record, tsIdx, usageIdx)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })
	return samples, skipped, nil
}

func columnIndexes(header []string) (int, int, error) {
	tsIdx, usageIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case timestampColumn:
			tsIdx = i
		case usageColumn:
			usageIdx = i
		}
	}
	if tsIdx < 0 || usageIdx < 0 {
		return 0, 0, fmt.Errorf("expected %q and %q columns, got %v", timestampColumn, usageColumn, header)
	}
	return tsIdx, usageIdx, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func parseRecord(record []string, tsIdx, usageIdx int) (types.UsageSample, error) {
	if len(record) <= tsIdx || len(record) <= usageIdx {
		return types.UsageSample{}, fmt.Errorf("expected at least %d fields, got %d", max(tsIdx, usageIdx)+1, len(record))
	}
	ts, err := parseTimestamp(record[tsIdx])
	if err != nil {
		return types.UsageSample{}, err
	}
	usage, err := strconv.ParseFloat(strings.TrimSpace(record[usageIdx]), 64)
	if err != nil {
		return types.UsageSample{}, fmt.Errorf("parsing usage %q: %w", record[usageIdx], err)
	}
	if usage < 0 || math.IsNaN(usage) || math.IsInf(usage, 0) {
		return types.UsageSample{}, fmt.Errorf("invalid usage %v", usage)
	}
	return types.UsageSample{Timestamp: ts, UsageLiters: usage}, nil
}

// LoadUsageFile parses the CSV at path. A missing file yields an empty series
// so the engine can still start.
func LoadUsageFile(ctx context.Context, path string) ([]types.UsageSample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).WarnContext(ctx, "usage file not found, starting with an empty series", slog.String("path", path))
			return []types.UsageSample{}, nil
		}
		return nil, fmt.Errorf("failed to open usage file: %w", err)
	}
	defer f.Close()

	samples, skipped, err := ParseUsageCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage file %s: %w", path, err)
	}
	if skipped > 0 {
		log.Ctx(ctx).WarnContext(ctx, "skipped unparseable usage rows", slog.String("path", path), slog.Int("skipped", skipped))
	}
	log.Ctx(ctx).InfoContext(ctx, "loaded usage series", slog.String("path", path), slog.Int("samples", len(samples)))
	return samples, nil
}
