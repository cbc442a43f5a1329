package handle

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"testcasecraft/api/internal/prompt"
)

// GFM tables are required for the matrix; raw HTML in model output is
// not rendered (goldmark default).
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type resultView struct {
	HTML      template.HTML
	Markdown  string
	Engine    string
	Model     string
	Cached    bool
	Truncated bool
	HasTable  bool
}

type pageView struct {
	Engines  []string
	Selected prompt.Options
	Error    string
	Result   *resultView
}

func (v pageView) Depths() []prompt.Depth         { return prompt.Depths }
func (v pageView) Frameworks() []prompt.Framework { return prompt.Frameworks }
func (v pageView) FocusAreas() []string           { return prompt.FocusAreas }

func (v pageView) HasFocus(f string) bool {
	for _, s := range v.Selected.Focus {
		if s == f {
			return true
		}
	}
	return false
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>TestcaseCraft</title>
<style>
body{font-family:system-ui,sans-serif;max-width:1100px;margin:2rem auto;padding:0 1rem;color:#222}
fieldset{border:1px solid #ddd;border-radius:6px;margin-bottom:1rem}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:.4rem;vertical-align:top;text-align:left}
th{background:#f3f3f3}
.error{background:#fdecea;border:1px solid #f5c2c0;padding:.75rem;border-radius:6px}
.info{color:#555}
.exports form{display:inline}
</style>
</head>
<body>
<h1>TestcaseCraft</h1>
<p class="info">Turn a Business Requirements Document into a QA test case matrix.</p>

{{with .Error}}<div class="error">⚠️ {{.}}</div>{{end}}

<form method="post" action="/generate" enctype="multipart/form-data">
<fieldset>
<legend>Step 1: Upload BRD (PDF)</legend>
<input type="file" name="file" accept="application/pdf" required>
</fieldset>
<fieldset>
<legend>Step 2: Configure Your Test Strategy</legend>
<p>Priority Focus Areas<br>
<input type="hidden" name="focus" value="">
{{range .FocusAreas}}<label><input type="checkbox" name="focus" value="{{.}}"{{if $.HasFocus .}} checked{{end}}> {{.}}</label> {{end}}
</p>
<p><label>Output Format
<select name="framework">{{range .Frameworks}}<option{{if eq . $.Selected.Framework}} selected{{end}}>{{.}}</option>{{end}}</select>
</label></p>
<p><label>Analysis Depth
<select name="depth">{{range .Depths}}<option{{if eq . $.Selected.Depth}} selected{{end}}>{{.}}</option>{{end}}</select>
</label></p>
<p>
<input type="hidden" name="include_negative" value="off">
<label><input type="checkbox" name="include_negative" value="on"{{if .Selected.IncludeNegative}} checked{{end}}> Include Negative Cases</label>
<input type="hidden" name="include_edge" value="off">
<label><input type="checkbox" name="include_edge" value="on"{{if .Selected.IncludeEdge}} checked{{end}}> Include Edge Analysis</label>
</p>
{{if gt (len .Engines) 1}}<p><label>Engine
<select name="llm_name"><option value="">default</option>{{range .Engines}}<option>{{.}}</option>{{end}}</select>
</label></p>{{end}}
</fieldset>
<button type="submit">Analyze and Generate Matrix</button>
</form>

{{with .Result}}
<hr>
<h2>Generated Test Matrix</h2>
<p class="info">{{.Engine}} / {{.Model}}{{if .Cached}} · cached{{end}}{{if .Truncated}} · document was truncated{{end}}</p>
<div class="exports">
{{$md := .Markdown}}
<form method="post" action="/v1/matrix/export?format=md"><input type="hidden" name="markdown" value="{{$md}}"><button>Export Matrix (.md)</button></form>
{{if .HasTable}}
<form method="post" action="/v1/matrix/export?format=xlsx"><input type="hidden" name="markdown" value="{{$md}}"><button>Export Excel (.xlsx)</button></form>
<form method="post" action="/v1/matrix/export?format=csv"><input type="hidden" name="markdown" value="{{$md}}"><button>Export CSV</button></form>
{{else}}<span class="info">Spreadsheet conversion unavailable for this output.</span>{{end}}
</div>
{{.HTML}}
{{else}}{{if not .Error}}<p class="info">👋 Upload a BRD PDF to start.</p>{{end}}{{end}}
</body>
</html>
`))

func (h *Handle) renderPage(w http.ResponseWriter, code int, v pageView) {
	if v.Selected.Depth == "" {
		v.Selected = prompt.DefaultOptions()
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, v); err != nil {
		h.log.Error("render page", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Index is GET /.
func (h *Handle) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.renderPage(w, http.StatusOK, pageView{Engines: h.engines})
}
