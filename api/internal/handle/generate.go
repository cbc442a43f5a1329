package handle

import (
	"errors"
	"net/http"

	"testcasecraft/api/internal/logx"
	"testcasecraft/api/internal/matrix"
)

// GenerateResponse is the JSON success body of /v1/matrix/generate.
type GenerateResponse struct {
	Markdown    string `json:"markdown"`
	Cached      bool   `json:"cached"`
	Engine      string `json:"engine"`
	Model       string `json:"model"`
	Truncated   bool   `json:"truncated"`
	PageCount   int    `json:"page_count"`
	FailedPages []int  `json:"failed_pages,omitempty"`
}

// Generate is POST /v1/matrix/generate.
func (h *Handle) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST only"})
		return
	}
	log := logx.From(r.Context(), h.log)

	req, err := readGenerateRequest(w, r)
	if err != nil {
		writeJSON(w, requestErrStatus(err), errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := withDeadline(r)
	defer cancel()

	out, err := h.gen.Generate(ctx, req)
	if err != nil {
		writeJSON(w, genErrStatus(err), errorResponse{Error: err.Error()})
		return
	}
	if !out.OK() {
		log.Warn("generate failed", "kind", out.Kind, "attempts", out.Attempts, "error", out.Err)
		writeJSON(w, kindStatus(out.Kind), errorResponse{Error: kindMessage(out.Result), Kind: out.Kind})
		return
	}

	log.Info("generate ok", "engine", out.Engine, "model", out.Model, "cached", out.Cached, "truncated", out.Truncated)
	writeJSON(w, http.StatusOK, GenerateResponse{
		Markdown:    out.Text,
		Cached:      out.Cached,
		Engine:      out.Engine,
		Model:       out.Model,
		Truncated:   out.Truncated,
		PageCount:   out.PageCount,
		FailedPages: out.FailedPages,
	})
}

// GeneratePage is POST /generate: same pipeline, rendered as HTML.
func (h *Handle) GeneratePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	log := logx.From(r.Context(), h.log)
	view := pageView{Engines: h.engines}

	req, err := readGenerateRequest(w, r)
	if err != nil {
		view.Error = err.Error()
		h.renderPage(w, requestErrStatus(err), view)
		return
	}
	view.Selected = req.Options

	ctx, cancel := withDeadline(r)
	defer cancel()

	out, err := h.gen.Generate(ctx, req)
	if err != nil {
		view.Error = err.Error()
		h.renderPage(w, genErrStatus(err), view)
		return
	}
	if !out.OK() {
		log.Warn("generate failed", "kind", out.Kind, "attempts", out.Attempts, "error", out.Err)
		view.Error = kindMessage(out.Result)
		h.renderPage(w, kindStatus(out.Kind), view)
		return
	}

	html, err := renderMarkdown(out.Text)
	if err != nil {
		log.Error("render markdown", "error", err)
		view.Error = "could not render the generated matrix"
		h.renderPage(w, http.StatusInternalServerError, view)
		return
	}
	_, tblErr := matrix.ParseTable(out.Text)
	view.Result = &resultView{
		HTML:      html,
		Markdown:  out.Text,
		Engine:    out.Engine,
		Model:     out.Model,
		Cached:    out.Cached,
		Truncated: out.Truncated,
		HasTable:  tblErr == nil,
	}
	h.renderPage(w, http.StatusOK, view)
}

func requestErrStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func genErrStatus(err error) int {
	if errors.Is(err, matrix.ErrBadInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
