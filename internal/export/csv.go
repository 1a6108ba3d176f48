// Package export flattens records into CSV.
package export

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// ErrEmptyExport is returned for an empty batch. No file should be produced.
var ErrEmptyExport = errors.New("nothing to export")

// preferred is the leading column order.
var preferred = []string{
	"type", "title", "category", "location", "description", "date",
	"createdAt", "postedBy", "claimedBy", "claimedAt", "verifiedBy", "verifiedAt", "id",
}

// shortDate renders timestamp columns.
const shortDate = "2006-01-02"

// CSV renders records as quoted CSV with a header row. Columns follow the
// preferred order, restricted to columns carried by at least one record,
// then any other present columns alphabetically. Every record carries the
// reported fields, even when empty. Claim, verification and deletion
// columns appear only once some record holds them.
func CSV(records []model.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrEmptyExport
	}

	rows := make([]map[string]string, len(records))
	present := make(map[string]bool)
	for i, r := range records {
		rows[i] = flatten(r)
		for col := range rows[i] {
			present[col] = true
		}
	}

	var columns []string
	for _, col := range preferred {
		if present[col] {
			columns = append(columns, col)
		}
	}
	var rest []string
	for col := range present {
		if !slices.Contains(preferred, col) {
			rest = append(rest, col)
		}
	}
	slices.Sort(rest)
	columns = append(columns, rest...)

	var buf bytes.Buffer
	writeRow(&buf, columns)
	for _, row := range rows {
		buf.WriteByte('\n')
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col]
		}
		writeRow(&buf, cells)
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
		buf.WriteByte('"')
	}
}

// flatten maps a record to the columns it carries.
func flatten(r model.Record) map[string]string {
	row := map[string]string{
		"id":          r.ID,
		"type":        r.Type,
		"title":       r.Title,
		"category":    r.Category,
		"location":    r.Location,
		"description": r.Description,
		"date":        formatDate(r.Date),
		"imageRef":    r.ImageRef,
		"postedBy":    r.PostedBy,
		"createdAt":   formatTime(r.CreatedAt),
	}
	if r.DeletedAt != nil {
		row["deletedAt"] = formatTime(*r.DeletedAt)
	}
	if r.Claim != nil {
		row["claimedBy"] = r.ClaimedBy
		row["claimedAt"] = formatTime(r.ClaimedAt)
	}
	if r.Verification != nil {
		row["verifiedBy"] = r.VerifiedBy
		row["verifiedAt"] = formatTime(r.VerifiedAt)
	}
	return row
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(shortDate)
}

// formatDate normalizes a stored calendar date. Unparseable values pass through.
func formatDate(s string) string {
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t.Format(shortDate)
	}
	return s
}
