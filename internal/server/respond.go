package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/pipeline"
)

// errorBody is the JSON error response. Line and Column are set for parse
// failures.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Line    int         `json:"line,omitempty"`
	Column  int         `json:"column,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var pe *graph.ParseError
	if stderrors.As(err, &pe) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Code:    errors.ErrCodeInvalidJSON,
			Message: pe.Msg,
			Line:    pe.Line,
			Column:  pe.Column,
		})
		return
	}

	body := errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	status := errors.HTTPStatus(err)
	if body.Code == "" || status == http.StatusInternalServerError {
		body.Code = errors.ErrCodeInternal
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "description exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	return data, nil
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:    "image/svg+xml",
	pipeline.FormatJSON:   "application/json",
	pipeline.FormatDOT:    "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatDOTSVG: "image/svg+xml",
	pipeline.FormatPNG:    "image/png",
	pipeline.FormatPDF:    "application/pdf",
	pipeline.FormatASCII:  "text/plain; charset=utf-8",
}
