package report

import (
	"context"
	"database/sql"
	"time"

	"hr-ingest/internal/errors"
	"hr-ingest/internal/logging"
)

// QuarterlyHires is one row of the hires-by-quarter report: how many people a
// department hired for a given job in each quarter of 2021.
type QuarterlyHires struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int    `json:"q1"`
	Q2         int    `json:"q2"`
	Q3         int    `json:"q3"`
	Q4         int    `json:"q4"`
}

// DepartmentHires is one row of the above-average report.
type DepartmentHires struct {
	DepartmentID int    `json:"id"`
	Department   string `json:"department"`
	Hired        int    `json:"hired"`
}

// Service runs the read-only reporting queries against the HR store.
type Service struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{db: db, logger: logger}
}

const hiresByQuarterSQL = `
SELECT d.DepartmentName,
       j.JobTitle,
       SUM(QUARTER(h.HireDate) = 1) AS q1,
       SUM(QUARTER(h.HireDate) = 2) AS q2,
       SUM(QUARTER(h.HireDate) = 3) AS q3,
       SUM(QUARTER(h.HireDate) = 4) AS q4
FROM HiredEmployees h
JOIN Departments d ON d.DepartmentID = h.DepartmentID
JOIN Jobs j ON j.JobID = h.JobID
WHERE YEAR(h.HireDate) = 2021
GROUP BY d.DepartmentName, j.JobTitle
ORDER BY d.DepartmentName, j.JobTitle`

const departmentsAboveAverageSQL = `
SELECT d.DepartmentID,
       d.DepartmentName,
       COUNT(*) AS hired
FROM HiredEmployees h
JOIN Departments d ON d.DepartmentID = h.DepartmentID
WHERE YEAR(h.HireDate) = 2021
GROUP BY d.DepartmentID, d.DepartmentName
HAVING COUNT(*) > (
    SELECT AVG(per_department.hired)
    FROM (
        SELECT COUNT(*) AS hired
        FROM HiredEmployees
        WHERE YEAR(HireDate) = 2021
        GROUP BY DepartmentID
    ) per_department
)
ORDER BY hired DESC`

// HiresByQuarter reports hires per department and job per quarter of 2021,
// ordered alphabetically by department then job.
func (s *Service) HiresByQuarter(ctx context.Context) ([]QuarterlyHires, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, hiresByQuarterSQL)
	if err != nil {
		s.logger.LogSQLExecution(hiresByQuarterSQL, time.Since(start), 0, err)
		return nil, errors.WrapError(err, "failed to query hires by quarter")
	}
	defer rows.Close()

	var report []QuarterlyHires
	for rows.Next() {
		var row QuarterlyHires
		if err := rows.Scan(&row.Department, &row.Job, &row.Q1, &row.Q2, &row.Q3, &row.Q4); err != nil {
			return nil, errors.WrapError(err, "failed to scan hires by quarter row")
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, "failed to read hires by quarter rows")
	}

	s.logger.LogSQLExecution(hiresByQuarterSQL, time.Since(start), int64(len(report)), nil)
	return report, nil
}

// DepartmentsAboveAverage reports the departments whose 2021 hire count exceeds
// the mean over all departments, busiest first.
func (s *Service) DepartmentsAboveAverage(ctx context.Context) ([]DepartmentHires, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, departmentsAboveAverageSQL)
	if err != nil {
		s.logger.LogSQLExecution(departmentsAboveAverageSQL, time.Since(start), 0, err)
		return nil, errors.WrapError(err, "failed to query departments above average")
	}
	defer rows.Close()

	var report []DepartmentHires
	for rows.Next() {
		var row DepartmentHires
		if err := rows.Scan(&row.DepartmentID, &row.Department, &row.Hired); err != nil {
			return nil, errors.WrapError(err, "failed to scan department hires row")
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, "failed to read department hires rows")
	}

	s.logger.LogSQLExecution(departmentsAboveAverageSQL, time.Since(start), int64(len(report)), nil)
	return report, nil
}
