package outwriter

import (
	"html/template"
	"io"
	"strconv"

	"github.com/cecompare/cecompare/schema"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Tenant}}@{{.Date}} engine comparison</title>
</head>
<body>
<h1>{{.Tenant}} {{.Date}}</h1>
<table border="1" class="dataframe">
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<br>
<hr>
<table border="1">
<thead><tr><th>Name</th><th>Found in prod</th><th>Found in devel</th></tr></thead>
<tbody>
{{- range .Missing}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<br>
<hr>
<table border="1">
<thead><tr><th>Error</th><th>Comparisons</th><th>Avg Error</th></tr></thead>
<tbody>
<tr>{{range .Errors}}<td>{{.}}</td>{{end}}</tr>
</tbody>
</table>
</body>
</html>
`))

type htmlReport struct {
	Tenant  string
	Date    string
	Header  []string
	Rows    [][]string
	Missing [][]string
	Errors  []string
}

// writeHTMLReport writes the endpoint table followed by the missing-endpoint and error tables.
func writeHTMLReport(w io.Writer, report schema.Report, fmtFloat func(float64) string) error {
	data := htmlReport{
		Tenant: report.Tenant,
		Date:   report.Date,
		Header: reportHeader,
		Errors: []string{
			fmtFloat(report.Summary.TotalError),
			strconv.Itoa(report.Summary.Comparisons),
			averageErrorText(report.Summary, fmtFloat),
		},
	}
	for _, key := range keysByAvailabilityDelta(report) {
		rec := report.Endpoints[key]
		data.Rows = append(data.Rows, []string{
			string(key),
			rec.AProd.String(),
			rec.ADevel.String(),
			rec.RProd.String(),
			rec.RDevel.String(),
			rec.DA.String(),
			rec.DR.String(),
		})
	}
	for _, m := range report.Missing {
		data.Missing = append(data.Missing, []string{string(m.Key), yesNo(m.InProd), yesNo(m.InDevel)})
	}
	return reportTemplate.Execute(w, data)
}
