package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aqualedger/aqualedger/pkg/types"
)

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("MigratesAndLoads", func(t *testing.T) {
		srv, db := newTestServer(t, 48)
		db.On("GetSettings", mock.Anything).Return(types.Settings{
			BudgetTarget: types.BudgetTarget{MonthlyBudget: 300, MonthlyWaterLimit: 14400},
			Cursor:       5,
			Session:      types.SessionState{UsageAccumulated: 200, CostAccumulated: 18, HoursElapsed: 5},
		}, 1, nil).Once()
		db.On("SetSettings", mock.Anything, mock.MatchedBy(func(s types.Settings) bool {
			return s.ReferenceUsage == 20
		}), types.CurrentSettingsVersion).Return(nil).Once()
		db.On("GetManualEntries", mock.Anything).Return(map[string]types.ManualEntry{
			"2024-01-01": {Total: 300, Night: 100},
			"2024-01-02": {Total: 100, Night: 200},
		}, nil).Once()
		db.On("GetLatestReport", mock.Anything).Return([]string{"stored"}, nil).Once()

		require.NoError(t, srv.Restore(ctx))

		assert.Equal(t, 5, srv.engine.Cursor())
		assert.Equal(t, 5, srv.engine.Session().HoursElapsed)
		assert.Equal(t, 300.0, srv.engine.Target().MonthlyBudget)
		assert.Equal(t, 20.0, srv.engine.Target().ReferenceUsage)
		assert.Equal(t, []string{"stored"}, srv.engine.LatestReport())
		// the entry with night above total is dropped
		assert.Len(t, srv.engine.ManualEntries(), 1)
		db.AssertExpectations(t)
	})

	t.Run("Empty", func(t *testing.T) {
		srv, db := newTestServer(t, 48)
		db.On("GetSettings", mock.Anything).Return(types.Settings{}, 0, nil).Once()
		db.On("SetSettings", mock.Anything, mock.Anything, types.CurrentSettingsVersion).Return(nil).Once()
		db.On("GetManualEntries", mock.Anything).Return(nil, nil).Once()
		db.On("GetLatestReport", mock.Anything).Return(nil, nil).Once()

		require.NoError(t, srv.Restore(ctx))
		assert.Equal(t, types.DefaultMonthlyBudget, srv.engine.Target().MonthlyBudget)
		assert.InDelta(t, types.DefaultReferenceUsage, srv.engine.Target().ReferenceUsage, 0.01)
		assert.Nil(t, srv.engine.LatestReport())
		db.AssertExpectations(t)
	})

	t.Run("StorageError", func(t *testing.T) {
		srv, db := newTestServer(t, 48)
		db.On("GetSettings", mock.Anything).Return(types.Settings{}, 0, errors.New("boom")).Once()
		assert.ErrorContains(t, srv.Restore(ctx), "failed to get settings")
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		srv, db := newTestServer(t, 48)
		db.On("GetSettings", mock.Anything).Return(types.Settings{}, -5, nil).Once()
		assert.ErrorContains(t, srv.Restore(ctx), "failed to migrate settings")
		db.AssertNotCalled(t, "SetSettings", mock.Anything, mock.Anything, mock.Anything)
	})
}
