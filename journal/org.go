package journal

import (
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/rebalancer/market"
)

var orgFuncs = template.FuncMap{
	"day":  func(t time.Time) string { return t.Format(market.DateFormat) },
	"join": strings.Join,
	"pct":  func(x float64) float64 { return x * 100 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders run as an org-mode entry.
func WriteOrg(w io.Writer, run Run) error {
	return orgTemplate.Execute(w, run)
}

const RunOrgTemplate = `* BACKTEST: Rebalance {{join .Assets " "}} ({{.Frequency}})
:PROPERTIES:
:RUN_ID:      {{.ID}}
:FREQUENCY:   {{.Frequency}}
:START_DATE:  {{day .Start}}
:END_DATE:    {{day .End}}
:START_BAL:   {{printf "%.2f" .InitialCapital}}
:END_BAL:     {{printf "%.2f" .FinalValue}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDrawdownPct}}
:REBALANCES:  {{.Rebalances}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Target Weights
| Asset | Weight % |
|-------+----------|
{{- range $a := .Assets }}
| {{$a}} | {{printf "%.2f" (index $.Weights $a | pct)}} |
{{- end }}
`
