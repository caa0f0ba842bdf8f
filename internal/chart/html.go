package chart

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// EChartsScriptURL is where the page loads the ECharts runtime from.
const EChartsScriptURL = "https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<div id="{{.ID}}" style="width: {{.Width}}px; height: {{.Height}}px;"></div>
{{- if .Option}}
<script>
(function () {
  var chart = echarts.init(document.getElementById({{.ID}}));
  chart.setOption({{.Option}});
  window.addEventListener("pagehide", function () { chart.dispose(); });
})();
</script>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title     string
	ScriptURL string
	ID        string
	Width     int
	Height    int
	Option    template.JS
}

// HTMLEngine renders a standalone page that mounts ECharts on the surface div.
type HTMLEngine struct {
	scriptURL string
}

// NewHTMLEngine creates an HTML engine loading ECharts from the public CDN.
func NewHTMLEngine() *HTMLEngine {
	return &HTMLEngine{scriptURL: EChartsScriptURL}
}

func (e *HTMLEngine) Name() string { return "html" }

func (e *HTMLEngine) Init(surface Surface) (Instance, error) {
	inst := &htmlInstance{scriptURL: e.scriptURL}
	if err := inst.acquire(surface); err != nil {
		return nil, fmt.Errorf("html engine init: %w", err)
	}
	return inst, nil
}

type htmlInstance struct {
	instanceBase
	scriptURL string
}

func (i *htmlInstance) SetOption(opt *Option) error {
	if err := i.checkAlive(); err != nil {
		return err
	}
	if opt == nil {
		return fmt.Errorf("html engine: nil option")
	}
	raw, err := json.Marshal(opt)
	if err != nil {
		return fmt.Errorf("html engine: encode option: %w", err)
	}
	return writePage(i.target, i.surface, opt.Title.Text, i.scriptURL, template.JS(raw))
}

// WriteBlankPage writes the page with an empty surface and no chart, which is
// what a viewer sees before any data has loaded.
func WriteBlankPage(w io.Writer, surface Surface, title string) error {
	return writePage(w, surface, title, EChartsScriptURL, "")
}

func writePage(w io.Writer, surface Surface, title, scriptURL string, option template.JS) error {
	width, height := surface.Size()
	err := pageTemplate.Execute(w, pageData{
		Title:     title,
		ScriptURL: scriptURL,
		ID:        surface.ID(),
		Width:     width,
		Height:    height,
		Option:    option,
	})
	if err != nil {
		return fmt.Errorf("html engine: render page: %w", err)
	}
	return nil
}
