// Package report holds the pure pieces of the reporting engine:
// month window computation, procedure-tag tallying and CSV export.
// Database access stays in the repository layer; everything here is
// deterministic and directly testable.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// MonthBounds returns the inclusive visit_date window for a monthly
// report: "YYYY-MM-01" through "YYYY-MM-31". The upper bound is a
// literal day-31 string regardless of the month's real length; visit
// dates are compared lexicographically, so days that do not exist in
// a short month simply never match. This mirrors the historical
// report behavior and is intentionally not calendar-aware.
func MonthBounds(year, month int) (start, end string) {
	start = fmt.Sprintf("%04d-%02d-01", year, month)
	end = fmt.Sprintf("%04d-%02d-31", year, month)
	return start, end
}

// TagCount pairs a procedure tag with its number of occurrences.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CountTags tallies every tag occurrence and returns the counts
// sorted descending. Ties are left in whatever order the sort
// produces; equal counts carry no defined ordering.
func CountTags(tags []string) []TagCount {
	counts := map[string]int{}
	for _, t := range tags {
		counts[t]++
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// PatientRow is the patient projection used by the monthly report and
// its CSV export.
type PatientRow struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
}

// csvHeader matches the PatientRow projection field order.
var csvHeader = []string{"id", "name", "dob", "gender", "diagnosis"}

// WriteCSV renders the monthly report rows as comma-separated values
// with a header row.
func WriteCSV(w io.Writer, rows []PatientRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{strconv.FormatUint(r.ID, 10), r.Name, r.DOB, r.Gender, r.Diagnosis}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVFileName names a monthly export by year and zero-padded month.
func CSVFileName(year, month int) string {
	return fmt.Sprintf("visit-report_%04d-%02d.csv", year, month)
}

// Summary aggregates the dashboard numbers.
type Summary struct {
	TotalPatients   int            `json:"total_patients"`
	TotalVisits     int            `json:"total_visits"`
	VisitsThisMonth int            `json:"visits_this_month"`
	StatusCounts    map[string]int `json:"status_counts"`
}
