package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"testcasecraft/api/internal/matrix"
	"testcasecraft/api/internal/prompt"
	"testcasecraft/api/internal/util"
)

const (
	maxUploadBytes = 20 << 20
	defaultTimeout = 180 * time.Second
)

var errNotPDF = errors.New("uploaded file is not a PDF")

// withDeadline applies X-Request-Timeout or ?timeoutSec (seconds).
func withDeadline(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := defaultTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}

// OptionsInput is the wire form of prompt.Options. Missing toggles keep
// their defaults.
type OptionsInput struct {
	Depth           string   `json:"depth"`
	Framework       string   `json:"framework"`
	Focus           []string `json:"focus"`
	IncludeNegative *bool    `json:"include_negative"`
	IncludeEdge     *bool    `json:"include_edge"`
}

func (in OptionsInput) Options() (prompt.Options, error) {
	o := prompt.DefaultOptions()
	var err error
	if in.Depth != "" {
		if o.Depth, err = prompt.ParseDepth(in.Depth); err != nil {
			return o, err
		}
	}
	if in.Framework != "" {
		if o.Framework, err = prompt.ParseFramework(in.Framework); err != nil {
			return o, err
		}
	}
	if in.Focus != nil {
		if o.Focus, err = prompt.ParseFocus(in.Focus); err != nil {
			return o, err
		}
	}
	if in.IncludeNegative != nil {
		o.IncludeNegative = *in.IncludeNegative
	}
	if in.IncludeEdge != nil {
		o.IncludeEdge = *in.IncludeEdge
	}
	return o, nil
}

// GenerateRequest is the JSON body of /v1/matrix/generate.
type GenerateRequest struct {
	LLMName string       `json:"llm_name"`
	Model   string       `json:"model"`
	PDFB64  string       `json:"pdf_b64"`
	Options OptionsInput `json:"options"`
}

// readGenerateRequest accepts multipart/form-data with a "file" part, or
// a JSON GenerateRequest.
func readGenerateRequest(w http.ResponseWriter, r *http.Request) (matrix.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		return readJSONRequest(r)
	}
	return readMultipartRequest(r)
}

func readJSONRequest(r *http.Request) (matrix.Request, error) {
	var in GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return matrix.Request{}, fmt.Errorf("bad json: %w", err)
	}
	pdf, hint, err := util.DecodeBase64MaybeDataURL(in.PDFB64)
	if err != nil || len(pdf) == 0 {
		return matrix.Request{}, errors.New("bad pdf_b64")
	}
	if m := util.PickMIME("", hint, pdf); m != util.MimePDF || !util.IsPDF(pdf) {
		return matrix.Request{}, errNotPDF
	}
	opts, err := in.Options.Options()
	if err != nil {
		return matrix.Request{}, err
	}
	return matrix.Request{PDF: pdf, Options: opts, LLMName: in.LLMName, Model: in.Model}, nil
}

func readMultipartRequest(r *http.Request) (matrix.Request, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return matrix.Request{}, fmt.Errorf("bad form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return matrix.Request{}, errors.New("upload a BRD PDF in the \"file\" field")
	}
	defer f.Close()
	pdf, err := io.ReadAll(f)
	if err != nil {
		return matrix.Request{}, fmt.Errorf("read upload: %w", err)
	}
	if !util.IsPDF(pdf) {
		return matrix.Request{}, errNotPDF
	}

	in := OptionsInput{
		Depth:           r.FormValue("depth"),
		Framework:       r.FormValue("framework"),
		IncludeNegative: formBool(r.Form["include_negative"]),
		IncludeEdge:     formBool(r.Form["include_edge"]),
	}
	if v, ok := r.Form["focus"]; ok {
		in.Focus = v
	}
	opts, err := in.Options()
	if err != nil {
		return matrix.Request{}, err
	}
	return matrix.Request{
		PDF:     pdf,
		Options: opts,
		LLMName: r.FormValue("llm_name"),
		Model:   r.FormValue("model"),
	}, nil
}

// formBool reads the last value of a toggle. The upload form posts a
// hidden "off" before each checkbox so an unchecked box is explicit.
func formBool(vals []string) *bool {
	if len(vals) == 0 {
		return nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(vals[len(vals)-1])) {
	case "1", "true", "on", "yes":
		b = true
	}
	return &b
}
