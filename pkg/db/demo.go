package db

import "time"

// DemoHistory is the fixed dataset shown when the history endpoint is unreachable.
// Timestamps are relative to now: 0, -1h, -2h.
func DemoHistory(now time.Time) []HistoryRecord {
	now = now.UTC()
	return []HistoryRecord{
		{ID: "asset_001", Hash: "5f4dcc3b5aa765d61d8327deb882cf99", Timestamp: now, DeviceID: "IoT_Device_01", Status: StatusVerified},
		{ID: "asset_002", Hash: "098f6bcd4621d373cade4e832627b4f6", Timestamp: now.Add(-1 * time.Hour), DeviceID: "IoT_Device_02", Status: StatusVerified},
		{ID: "asset_003", Hash: "e99a18c428cb38d5f260853678922e03", Timestamp: now.Add(-2 * time.Hour), DeviceID: "IoT_Device_03", Status: StatusVerified},
	}
}

// DemoBlocks is the fixed dataset shown when the blocks endpoint is unreachable.
// Newest first, five minutes apart.
func DemoBlocks(now time.Time) []BlockRecord {
	now = now.UTC()
	return []BlockRecord{
		{BlockNumber: 1247, BlockID: "BLK_5f4dcc3b5aa7", TransactionID: "TXN_001_5f4d", Timestamp: now, Transactions: 5, Validator: "Peer0.org1"},
		{BlockNumber: 1246, BlockID: "BLK_098f6bcd4621", TransactionID: "TXN_002_098f", Timestamp: now.Add(-5 * time.Minute), Transactions: 3, Validator: "Peer1.org1"},
		{BlockNumber: 1245, BlockID: "BLK_e99a18c428cb", TransactionID: "TXN_003_e99a", Timestamp: now.Add(-10 * time.Minute), Transactions: 7, Validator: "Peer0.org2"},
		{BlockNumber: 1244, BlockID: "BLK_ab56b4d92b40", TransactionID: "TXN_004_ab56", Timestamp: now.Add(-15 * time.Minute), Transactions: 4, Validator: "Peer1.org2"},
		{BlockNumber: 1243, BlockID: "BLK_c81e728d9d4c", TransactionID: "TXN_005_c81e", Timestamp: now.Add(-20 * time.Minute), Transactions: 6, Validator: "Peer0.org1"},
	}
}
