package store

import (
	"fmt"
	"testing"

	"alpha-roller-go/internal/database"
	"alpha-roller-go/internal/models"
	"github.com/stretchr/testify/assert"
)

func setupTest(t *testing.T) *Store {
	db, err := database.NewDatabase("file::memory:")
	assert.NoError(t, err)
	return NewStore(db)
}

func TestGetSetRemove(t *testing.T) {
	s := setupTest(t)

	_, ok, err := s.Get("missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Set("k", "v1"))
	v, ok, err := s.Get("k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	// Second write upserts.
	assert.NoError(t, s.Set("k", "v2"))
	v, _, err = s.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, "v2", v)

	assert.NoError(t, s.Remove("k"))
	_, ok, err = s.Get("k")
	assert.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is fine.
	assert.NoError(t, s.Remove("k"))
}

func TestTypedDefaults(t *testing.T) {
	s := setupTest(t)

	dryRun, err := s.DryRunEnabled()
	assert.NoError(t, err)
	assert.True(t, dryRun, "a fresh store must default to dry run")

	auto, err := s.AutoTradingEnabled()
	assert.NoError(t, err)
	assert.False(t, auto)

	amount, err := s.UsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, DefaultUsdtAmount, amount)

	target, err := s.TargetUsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, DefaultTargetUsdtAmount, target)

	width, err := s.SidePanelWidth()
	assert.NoError(t, err)
	assert.Equal(t, DefaultSidePanelWidth, width)
}

func TestTypedRoundTrips(t *testing.T) {
	s := setupTest(t)

	assert.NoError(t, s.SetDryRunEnabled(false))
	dryRun, err := s.DryRunEnabled()
	assert.NoError(t, err)
	assert.False(t, dryRun)

	assert.NoError(t, s.SetAutoTradingEnabled(true))
	auto, err := s.AutoTradingEnabled()
	assert.NoError(t, err)
	assert.True(t, auto)

	assert.NoError(t, s.SetUsdtAmount(42.5))
	amount, err := s.UsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, 42.5, amount)

	assert.NoError(t, s.SetTargetUsdtAmount(275))
	target, err := s.TargetUsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, 275.0, target)
}

func TestUnreadableValueFallsBackToDefault(t *testing.T) {
	s := setupTest(t)

	assert.NoError(t, s.Set(KeyUsdtAmount, "not a number"))
	amount, err := s.UsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, DefaultUsdtAmount, amount)

	assert.NoError(t, s.Set(KeyDryRunEnabled, "maybe"))
	dryRun, err := s.DryRunEnabled()
	assert.NoError(t, err)
	assert.True(t, dryRun)

	// Negative amounts are rejected as well.
	assert.NoError(t, s.Set(KeyTargetUsdtAmount, "-50"))
	target, err := s.TargetUsdtAmount()
	assert.NoError(t, err)
	assert.Equal(t, DefaultTargetUsdtAmount, target)
}

func TestOperationLogAppendAndRead(t *testing.T) {
	s := setupTest(t)

	logs, err := s.RecentOperationLogs()
	assert.NoError(t, err)
	assert.Empty(t, logs)

	assert.NoError(t, s.AppendOperationLog(models.OperationLog{
		Type: "buy", Price: 0.5, Quantity: 200, FromSymbol: "USDT", ToSymbol: "KOGE", CumulativeAmount: 100,
	}))
	assert.NoError(t, s.AppendOperationLog(models.OperationLog{
		Type: "sell", Price: 0.51, Quantity: 200, FromSymbol: "KOGE", ToSymbol: "USDT", CumulativeAmount: 100,
	}))

	logs, err = s.RecentOperationLogs()
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	// Newest first.
	assert.Equal(t, "sell", logs[0].Type)
	assert.Equal(t, "buy", logs[1].Type)
}

func TestOperationLogTrimsToCap(t *testing.T) {
	s := setupTest(t)

	for i := 0; i < maxOperationLogs+20; i++ {
		assert.NoError(t, s.AppendOperationLog(models.OperationLog{
			Type:       "buy",
			FromSymbol: "USDT",
			ToSymbol:   fmt.Sprintf("TKN%d", i),
		}))
	}

	logs, err := s.RecentOperationLogs()
	assert.NoError(t, err)
	assert.Len(t, logs, maxOperationLogs)

	// The newest entries survive, the oldest are gone.
	assert.Equal(t, fmt.Sprintf("TKN%d", maxOperationLogs+19), logs[0].ToSymbol)
	assert.Equal(t, "TKN20", logs[len(logs)-1].ToSymbol)
}

func TestClearOperationLogs(t *testing.T) {
	s := setupTest(t)

	assert.NoError(t, s.AppendOperationLog(models.OperationLog{Type: "buy"}))
	assert.NoError(t, s.ClearOperationLogs())

	logs, err := s.RecentOperationLogs()
	assert.NoError(t, err)
	assert.Empty(t, logs)
}
