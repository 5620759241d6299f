// This file implements the read-only reporting queries: the monthly
// visit roster, procedure-tag frequencies and birth/death counts.
// Windowing and tallying rules live in the report package; this layer
// only feeds it rows.
package repository

import (
	"context"
	"database/sql"

	"github.com/patientdex/patient-dex/internal/model"
	"github.com/patientdex/patient-dex/internal/report"
)

// ReportRepo runs aggregation queries over patients and visits.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// MonthlyReport returns the distinct patients with at least one visit
// inside the month's date window. The window's upper bound is the
// literal day-31 string from report.MonthBounds, compared
// lexicographically against the stored visit_date strings.
func (r *ReportRepo) MonthlyReport(ctx context.Context, year, month int) ([]report.PatientRow, error) {
	start, end := report.MonthBounds(year, month)
	const q = `SELECT DISTINCT p.id, p.name, p.dob, p.gender, p.diagnosis
		FROM patients p
		JOIN visits v ON v.patient_id = p.id
		WHERE v.visit_date BETWEEN ? AND ?
		ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []report.PatientRow{}
	for rows.Next() {
		var p report.PatientRow
		if err := rows.Scan(&p.ID, &p.Name, &p.DOB, &p.Gender, &p.Diagnosis); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TagFrequency counts every procedure-tag occurrence across all
// visits. Visits without tags contribute nothing. The result is
// sorted descending by count; ties carry no defined order.
func (r *ReportRepo) TagFrequency(ctx context.Context) ([]report.TagCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT tag FROM visit_tags ORDER BY visit_id, position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return report.CountTags(tags), nil
}

// LifeStatusCounts counts patients per terminal life status. ALIVE is
// excluded by design: the statistic tracks births and deaths only.
func (r *ReportRepo) LifeStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM patients WHERE status IN (?, ?) GROUP BY status",
		model.StatusDeceased, model.StatusBornHere)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// DashboardSummary gathers the headline numbers for the dashboard
// page: totals, the visit count inside the given month window and the
// per-status patient breakdown.
func (r *ReportRepo) DashboardSummary(ctx context.Context, year, month int) (report.Summary, error) {
	s := report.Summary{StatusCounts: map[string]int{}}

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patients").Scan(&s.TotalPatients); err != nil {
		return s, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM visits").Scan(&s.TotalVisits); err != nil {
		return s, err
	}
	start, end := report.MonthBounds(year, month)
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM visits WHERE visit_date BETWEEN ? AND ?",
		start, end).Scan(&s.VisitsThisMonth); err != nil {
		return s, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM patients GROUP BY status")
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return s, err
		}
		s.StatusCounts[status] = n
	}
	return s, rows.Err()
}
