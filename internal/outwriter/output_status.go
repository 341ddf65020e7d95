package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
)

// WriteStoreStatus prints the result store status.
func WriteStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintln(w, "Result Store Status:")
	_, _ = fmt.Fprintf(w, "  Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "  Location: %s\n", status.Location)
	_, _ = fmt.Fprintf(w, "  Total records: %d\n", status.TotalRecords)
	_, _ = fmt.Fprintf(w, "  Skipped records: %d\n", status.SkippedRecords)
	if status.TotalRecords > 0 {
		_, _ = fmt.Fprintf(w, "  Oldest record: %s\n", status.OldestRecord.Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(w, "  Newest record: %s\n", status.NewestRecord.Format(contract.DateTimeFormat))
	}
}
