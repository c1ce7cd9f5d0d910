// Package handlers implements the HTTP handlers of the molgraph API.
package handlers

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
)

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) common.Pagination {
	p := common.Pagination{}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.PageSize = n
		}
	}
	return p.Normalize()
}

// decodeJSON reads one JSON document into dst. Numbers are kept as
// json.Number so integer fields are checked against the literal.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.InvalidParam("request body too large").WithDetail("limit=" + strconv.FormatInt(tooLarge.Limit, 10))
		}
		return errors.Wrap(err, errors.CodeInvalidParam, "reading request body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request body").WithDetail(err.Error())
	}
	return nil
}

// writeJSON writes data wrapped in the standard success envelope.
func writeJSON[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = chimw.GetReqID(r.Context())
	writeRaw(w, statusCode, resp)
}

func writeRaw(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeAppError maps the error code to an HTTP status. Server-side failures
// are masked; the code is kept.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.CodeOK {
		code = errors.CodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	detail := &common.ErrorDetail{Code: code.String(), Message: errors.DefaultMessageForCode(code)}
	if status < 500 {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			detail.Message = ae.Message
			if ae.Detail != "" {
				detail.Details = map[string]interface{}{"detail": ae.Detail}
			}
		}
	}

	resp := common.APIResponse[any]{
		Success:   false,
		Error:     detail,
		RequestID: chimw.GetReqID(r.Context()),
		Timestamp: common.NewTimestamp(),
	}
	writeRaw(w, status, resp)
}

//Personal.AI order the ending
