package ingest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"hr-ingest/internal/schema"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestValidateRequiredFields(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer db.Close()

	validator := NewValidator(db)

	tests := []struct {
		name   string
		record schema.Record
		reason string
	}{
		{
			name:   "employee missing first name",
			record: &schema.HiredEmployee{},
			reason: "FirstName is missing or null.",
		},
		{
			name: "employee missing last name",
			record: &schema.HiredEmployee{
				FirstName: strPtr("C"),
			},
			reason: "LastName is missing or null.",
		},
		{
			name: "employee missing hire date",
			record: &schema.HiredEmployee{
				FirstName: strPtr("A"),
				LastName:  strPtr("B"),
			},
			reason: "HireDate is missing or null.",
		},
		{
			name: "employee missing job",
			record: &schema.HiredEmployee{
				FirstName: strPtr("A"),
				LastName:  strPtr("B"),
				HireDate:  strPtr("2024-01-01"),
			},
			reason: "JobID is missing or null.",
		},
		{
			name: "employee missing department",
			record: &schema.HiredEmployee{
				FirstName: strPtr("A"),
				LastName:  strPtr("B"),
				HireDate:  strPtr("2024-01-01"),
				JobID:     intPtr(1),
			},
			reason: "DepartmentID is missing or null.",
		},
		{
			name:   "department missing name",
			record: &schema.Department{},
			reason: "DepartmentName is missing or null.",
		},
		{
			name:   "job missing title",
			record: &schema.Job{},
			reason: "JobTitle is missing or null.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(context.Background(), tt.record)
			validationErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v (%T)", err, err)
			}
			if validationErr.Message != tt.reason {
				t.Errorf("reason = %q, want %q", validationErr.Message, tt.reason)
			}
		})
	}
}

func validEmployee() *schema.HiredEmployee {
	return &schema.HiredEmployee{
		FirstName:    strPtr("Maria"),
		LastName:     strPtr("Lopez"),
		HireDate:     strPtr("2021-07-27T16:02:08Z"),
		JobID:        intPtr(4),
		DepartmentID: intPtr(2),
	}
}

func TestValidateDanglingDepartment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM Departments").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err = NewValidator(db).Validate(context.Background(), validEmployee())
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v (%T)", err, err)
	}
	if validationErr.Message != "DepartmentID does not exist in Departments." {
		t.Errorf("unexpected reason: %q", validationErr.Message)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidateDanglingJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM Departments").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM Jobs").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err = NewValidator(db).Validate(context.Background(), validEmployee())
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v (%T)", err, err)
	}
	if validationErr.Message != "JobID does not exist in Jobs." {
		t.Errorf("unexpected reason: %q", validationErr.Message)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidateExistingReferences(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM Departments").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM Jobs").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := NewValidator(db).Validate(context.Background(), validEmployee()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidateNonReferentialKindsSkipLookups(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer db.Close()

	validator := NewValidator(db)

	if err := validator.Validate(context.Background(), &schema.Department{DepartmentName: strPtr("Supply Chain")}); err != nil {
		t.Errorf("unexpected error for department: %v", err)
	}
	if err := validator.Validate(context.Background(), &schema.Job{JobTitle: strPtr("Engineer")}); err != nil {
		t.Errorf("unexpected error for job: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries should have been issued: %v", err)
	}
}
