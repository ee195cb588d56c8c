package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/aqualedger/aqualedger/pkg/storage"
	"github.com/aqualedger/aqualedger/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetSettings(ctx context.Context) (types.Settings, int, error) {
	args := m.Called(ctx)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.Settings), args.Int(1), args.Error(2)
	}
	return types.Settings{}, 0, nil
}

func (m *MockDatabase) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	args := m.Called(ctx, settings, version)
	return args.Error(0)
}

func (m *MockDatabase) GetManualEntries(ctx context.Context) (map[string]types.ManualEntry, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		entries, _ := args.Get(0).(map[string]types.ManualEntry)
		return entries, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertManualEntry(ctx context.Context, date string, entry types.ManualEntry) error {
	args := m.Called(ctx, date, entry)
	return args.Error(0)
}

func (m *MockDatabase) DeleteManualEntry(ctx context.Context, date string) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

func (m *MockDatabase) GetLatestReport(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		lines, _ := args.Get(0).([]string)
		return lines, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) SetLatestReport(ctx context.Context, lines []string) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockDatabase) InsertCycle(ctx context.Context, record types.CycleRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDatabase) GetCycleHistory(ctx context.Context, start, end time.Time) ([]types.CycleRecord, error) {
	args := m.Called(ctx, start, end)
	if len(args) > 0 {
		records, _ := args.Get(0).([]types.CycleRecord)
		return records, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
