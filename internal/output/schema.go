// Package output writes the final record list: a CSV table, a SQLite
// file_record table, an optional zstd ZIP bundle and an optional S3 upload.
package output

import (
	"strconv"
	"time"

	"github.com/fpang/camtrap/internal/records"
	"github.com/fpang/camtrap/internal/timestamp"
)

// Columns is the output schema, in order.
var Columns = []string{
	"SourceFile",
	"DateTimeOriginal",
	"Date",
	"Time",
	"Site",
	"Plot_ID",
	"Camera_ID",
	"Group",
	"Species",
	"Number",
	"Note",
	"IndependentPhoto",
	"CreateDate",
	"period_start",
	"period_end",
}

// Row is one record rendered to the output schema. Date and Time both carry
// the full capture time, as downstream database imports expect.
type Row struct {
	SourceFile       string
	DateTimeOriginal string
	Date             string
	Time             string
	Site             string
	PlotID           string
	CameraID         string
	Group            string
	Species          string
	Number           int
	Note             string
	IndependentPhoto int
	CreateDate       string
	PeriodStart      string
	PeriodEnd        string
}

// FormatTime renders t in the output layout. The zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestamp.Layout)
}

// NewRow renders rec. createdAt is the run time stamped into CreateDate.
func NewRow(rec *records.DraftRecord, createdAt time.Time) Row {
	captured := FormatTime(rec.Timestamp)
	row := Row{
		SourceFile:       rec.SourceFile,
		DateTimeOriginal: captured,
		Date:             captured,
		Time:             captured,
		Site:             rec.Site,
		PlotID:           rec.Plot,
		CameraID:         rec.CameraID,
		Group:            rec.Group,
		Species:          rec.Species,
		Number:           rec.Count,
		Note:             rec.Note,
		CreateDate:       FormatTime(createdAt),
	}
	if rec.Independence == records.Independent {
		row.IndependentPhoto = 1
	}
	if rec.Period != nil {
		row.PeriodStart = FormatTime(rec.Period.Start)
		row.PeriodEnd = FormatTime(rec.Period.End)
	}
	return row
}

// Rows renders every record in order.
func Rows(recs []*records.DraftRecord, createdAt time.Time) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, NewRow(rec, createdAt))
	}
	return rows
}

// Strings returns the row's fields in Columns order.
func (r Row) Strings() []string {
	return []string{
		r.SourceFile,
		r.DateTimeOriginal,
		r.Date,
		r.Time,
		r.Site,
		r.PlotID,
		r.CameraID,
		r.Group,
		r.Species,
		strconv.Itoa(r.Number),
		r.Note,
		strconv.Itoa(r.IndependentPhoto),
		r.CreateDate,
		r.PeriodStart,
		r.PeriodEnd,
	}
}
