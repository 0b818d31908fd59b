package api

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"hr-ingest/internal/backup"
	"hr-ingest/internal/report"
	"hr-ingest/internal/schema"
)

type insertDataRequest struct {
	TransactionType *string          `json:"transactionType"`
	Transactions    *json.RawMessage `json:"transactions"`
}

type tableRequest struct {
	TableName string `json:"tableName"`
}

// tableStatus is the wire shape of one backup or restore outcome.
type tableStatus struct {
	Table   string `json:"table"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// insertData handles POST /InsertData. Request-shape problems are 400 and
// nothing is processed; record-level failures are part of the 200 body.
func (s *Service) insertData(ctx *fasthttp.RequestCtx) {
	var request insertDataRequest
	if err := json.Unmarshal(ctx.PostBody(), &request); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ErrInvalidRequestBody)
		return
	}

	if request.TransactionType == nil || *request.TransactionType == "" {
		writeError(ctx, fasthttp.StatusBadRequest, ErrTransactionTypeRequired)
		return
	}
	if request.Transactions == nil {
		writeError(ctx, fasthttp.StatusBadRequest, ErrTransactionsRequired)
		return
	}

	var transactions []json.RawMessage
	if err := json.Unmarshal(*request.Transactions, &transactions); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ErrTransactionsRequired)
		return
	}

	result, err := s.processor.ProcessBatch(requestContext(ctx), *request.TransactionType, transactions)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, result)
}

// backupTables handles POST /Backup: one table by name, or "all" in
// canonical order.
func (s *Service) backupTables(ctx *fasthttp.RequestCtx) {
	tableName, ok := s.parseTableRequest(ctx)
	if !ok {
		return
	}

	if tableName == "all" {
		results := s.backup.BackupAll(requestContext(ctx))
		statuses := make([]tableStatus, 0, len(results))
		for _, result := range results {
			statuses = append(statuses, backupStatus(result))
		}
		writeJSON(ctx, fasthttp.StatusOK, statuses)
		return
	}

	result, err := s.backup.BackupTable(requestContext(ctx), tableName)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusInternalServerError, backupStatus(result))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, backupStatus(result))
}

// restoreTables handles POST /Restore with the same shape as /Backup.
func (s *Service) restoreTables(ctx *fasthttp.RequestCtx) {
	tableName, ok := s.parseTableRequest(ctx)
	if !ok {
		return
	}

	if tableName == "all" {
		results := s.restore.RestoreAll(requestContext(ctx))
		statuses := make([]tableStatus, 0, len(results))
		for _, result := range results {
			statuses = append(statuses, restoreStatus(result))
		}
		writeJSON(ctx, fasthttp.StatusOK, statuses)
		return
	}

	result, err := s.restore.RestoreTable(requestContext(ctx), tableName)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusInternalServerError, restoreStatus(result))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, restoreStatus(result))
}

// parseTableRequest validates the {tableName} body shared by backup and
// restore. The name must be a known table or "all".
func (s *Service) parseTableRequest(ctx *fasthttp.RequestCtx) (string, bool) {
	var request tableRequest
	if err := json.Unmarshal(ctx.PostBody(), &request); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ErrInvalidRequestBody)
		return "", false
	}

	if request.TableName == "" {
		writeError(ctx, fasthttp.StatusBadRequest, ErrTableNameRequired)
		return "", false
	}
	if request.TableName != "all" {
		if _, ok := schema.Lookup(request.TableName); !ok {
			writeError(ctx, fasthttp.StatusBadRequest, ErrUnknownTableName)
			return "", false
		}
	}

	return request.TableName, true
}

func backupStatus(result *backup.TableBackupResult) tableStatus {
	status := tableStatus{Table: result.Table, Status: "success"}
	if !result.Succeeded {
		status.Status = "error"
		status.Message = result.Error
		return status
	}
	status.Message = result.Location
	return status
}

func restoreStatus(result *backup.TableRestoreResult) tableStatus {
	status := tableStatus{Table: result.Table, Status: "success"}
	if !result.Succeeded {
		status.Status = "error"
		status.Message = result.Error
	}
	return status
}

func (s *Service) hiresByQuarter(ctx *fasthttp.RequestCtx) {
	rows, err := s.reports.HiresByQuarter(requestContext(ctx))
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []report.QuarterlyHires{}
	}
	writeJSON(ctx, fasthttp.StatusOK, rows)
}

func (s *Service) departmentsAboveAverage(ctx *fasthttp.RequestCtx) {
	rows, err := s.reports.DepartmentsAboveAverage(requestContext(ctx))
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []report.DepartmentHires{}
	}
	writeJSON(ctx, fasthttp.StatusOK, rows)
}

func (s *Service) health(ctx *fasthttp.RequestCtx) {
	response := healthResponse{Status: "ok", Database: "up"}

	if s.db != nil {
		if err := s.db.PingContext(requestContext(ctx)); err != nil {
			response.Status = "degraded"
			response.Database = "down"
			writeJSON(ctx, fasthttp.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(ctx, fasthttp.StatusOK, response)
}
