package api

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
)

var (
	ErrTransactionTypeRequired = errors.New("transactionType is required")
	ErrTransactionsRequired    = errors.New("transactions is required and must be a list")
	ErrTableNameRequired       = errors.New("tableName is required")
	ErrUnknownTableName        = errors.New("unknown tableName")
	ErrInvalidRequestBody      = errors.New("request body must be a JSON object")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatusCode(statusCode)

	_ = json.NewEncoder(ctx).Encode(body)
}

func writeError(ctx *fasthttp.RequestCtx, httpStatus int, err error) {
	writeJSON(ctx, httpStatus, errorResponse{
		Code:    fasthttp.StatusMessage(httpStatus),
		Message: err.Error(),
	})
}
