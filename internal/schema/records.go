package schema

import (
	"encoding/json"
	"fmt"
)

// Record is one decoded transaction of a known kind. Pointer fields
// distinguish a missing or null JSON field from a present zero value, so
// validation can report exactly which field is absent.
type Record interface {
	RecordKind() Kind
}

// HiredEmployee is one hiring transaction.
type HiredEmployee struct {
	FirstName    *string `json:"FirstName"`
	LastName     *string `json:"LastName"`
	HireDate     *string `json:"HireDate"`
	JobID        *int    `json:"JobID"`
	DepartmentID *int    `json:"DepartmentID"`
}

func (*HiredEmployee) RecordKind() Kind { return KindHiredEmployees }

// Department is one department transaction. DepartmentID is accepted on the
// wire but ignored on insert, the store generates it.
type Department struct {
	DepartmentID   *int    `json:"DepartmentID,omitempty"`
	DepartmentName *string `json:"DepartmentName"`
}

func (*Department) RecordKind() Kind { return KindDepartments }

// Job is one job transaction. JobID is accepted on the wire but ignored on
// insert, the store generates it.
type Job struct {
	JobID    *int    `json:"JobID,omitempty"`
	JobTitle *string `json:"JobTitle"`
}

func (*Job) RecordKind() Kind { return KindJobs }

// DecodeRecord decodes one raw transaction into the typed record for kind.
// Unknown fields are tolerated, type mismatches are not.
func DecodeRecord(kind Kind, raw json.RawMessage) (Record, error) {
	var record Record
	switch kind {
	case KindHiredEmployees:
		record = &HiredEmployee{}
	case KindDepartments:
		record = &Department{}
	case KindJobs:
		record = &Job{}
	default:
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}

	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("failed to decode %s transaction: %w", kind, err)
	}
	return record, nil
}
