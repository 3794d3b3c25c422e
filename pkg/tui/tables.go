package tui

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/iotchain-dashboard/pkg/db"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(b *strings.Builder, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(b)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// HistoryTable renders the verified-record list.
func HistoryTable(records []db.HistoryRecord) string {
	var b strings.Builder
	t := newTable(&b, []string{"Asset ID", "Hash", "Device", "Timestamp", "Status"})
	for _, r := range records {
		t.Append([]string{r.ID, r.ShortHash(), r.DeviceID, r.Timestamp.Local().Format(timeLayout), r.Status})
	}
	t.Render()
	return b.String()
}

// BlocksTable renders the block list.
func BlocksTable(blocks []db.BlockRecord) string {
	var b strings.Builder
	t := newTable(&b, []string{"Block", "Block ID", "Transaction ID", "Timestamp", "Transactions", "Validator"})
	for _, blk := range blocks {
		t.Append([]string{
			fmt.Sprintf("#%d", blk.BlockNumber),
			blk.BlockID,
			blk.TransactionID,
			blk.Timestamp.Local().Format(timeLayout),
			fmt.Sprintf("%d TXNs", blk.Transactions),
			blk.Validator,
		})
	}
	t.Render()
	return b.String()
}
