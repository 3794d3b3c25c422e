package db

import "time"

// ---- Ledger Records ----

type HistoryRecord struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId"`
	Status    string    `json:"status"` // "verified"
}

type BlockRecord struct {
	BlockNumber   int64     `json:"blockNumber"`
	BlockID       string    `json:"blockId"`
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
	Transactions  int       `json:"transactions"`
	Validator     string    `json:"validator"` // e.g. "Peer0.org1"
}

const StatusVerified = "verified"

// ShortHash returns the first 16 characters of the hash followed by "...".
func (r HistoryRecord) ShortHash() string {
	rs := []rune(r.Hash)
	if len(rs) <= 16 {
		return r.Hash
	}
	return string(rs[:16]) + "..."
}

// ---- Analysis ----

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

type Anomaly struct {
	Type     string   `json:"type"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

type AnalysisResult struct {
	TotalRecords      int       `json:"totalRecords"`
	AnomaliesDetected int       `json:"anomaliesDetected"`
	Accuracy          string    `json:"accuracy"`
	AvgProcessingTime string    `json:"avgProcessingTime"`
	TopAnomalies      []Anomaly `json:"topAnomalies"`
}

// ---- Wire envelopes ----

type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

type BlocksResponse struct {
	Blocks []BlockRecord `json:"blocks"`
}
