package handle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"testcasecraft/api/internal/logx"
	"testcasecraft/api/internal/matrix"
)

type exportRequest struct {
	Markdown string `json:"markdown"`
	Format   string `json:"format"`
}

// Export is POST /v1/matrix/export?format=md|csv|xlsx. The markdown comes
// from a form field, a JSON body or a raw text/markdown body.
func (h *Handle) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST only"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	in, err := readExportRequest(r)
	if err != nil {
		writeJSON(w, requestErrStatus(err), errorResponse{Error: err.Error()})
		return
	}
	format, err := matrix.ParseFormat(in.Format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := matrix.Write(&buf, format, in.Markdown); err != nil {
		if errors.Is(err, matrix.ErrConversionUnavailable) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "conversion unavailable: no markdown table found; download the .md instead"})
			return
		}
		logx.From(r.Context(), h.log).Error("export failed", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": format.FileName()}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func readExportRequest(r *http.Request) (exportRequest, error) {
	in := exportRequest{Format: r.URL.Query().Get("format")}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body exportRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, fmt.Errorf("bad json: %w", err)
		}
		in.Markdown = body.Markdown
		if in.Format == "" {
			in.Format = body.Format
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return in, fmt.Errorf("bad form: %w", err)
		}
		in.Markdown = r.FormValue("markdown")
		if in.Format == "" {
			in.Format = r.FormValue("format")
		}
	default:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return in, err
		}
		in.Markdown = string(b)
	}
	if in.Markdown == "" {
		return in, errors.New("markdown is empty")
	}
	return in, nil
}
