package actions

import (
	"context"

	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	"go.uber.org/zap"
)

// TestActions are methods only development nodes (anvil, hardhat) implement.
type TestActions struct {
	requester Requester
	logger    *zap.Logger
}

func NewTestActions(r Requester, l *zap.Logger) *TestActions {
	return &TestActions{requester: r, logger: l}
}

// IncreaseTime advances the node clock by seconds and returns the total offset the
// node reports.
func (t *TestActions) IncreaseTime(ctx context.Context, seconds uint64) (uint64, error) {
	offset, err := ethereum.Call(ctx, t.requester, ethereum.RPCMethod_IncreaseTime, seconds)
	if err != nil {
		return 0, err
	}
	t.logger.Sugar().Debugw("Increased node time",
		zap.Uint64("seconds", seconds),
		zap.Uint64("offset", offset),
	)
	return offset, nil
}
