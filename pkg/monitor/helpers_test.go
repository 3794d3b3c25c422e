package monitor

import (
	"context"
	"errors"

	"github.com/iotchain-dashboard/pkg/db"
)

// stubFetcher always fails, so the store serves demo data.
type stubFetcher struct{}

func (stubFetcher) FetchHistory(context.Context) ([]db.HistoryRecord, error) {
	return nil, errors.New("offline")
}

func (stubFetcher) FetchBlocks(context.Context) ([]db.BlockRecord, error) {
	return nil, errors.New("offline")
}
