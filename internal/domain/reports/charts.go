package reports

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderCharts writes an HTML page with the patients-per-label bar chart and
// the patients-per-status pie chart.
func RenderCharts(w io.Writer, s Summary) error {
	page := components.NewPage()
	page.PageTitle = "Patient reports"
	page.AddCharts(labelChart(s), statusChart(s))
	return page.Render(w)
}

func labelChart(s Summary) *charts.Bar {
	xAxis := make([]string, 0, len(labelOrder))
	data := make([]opts.BarData, 0, len(labelOrder))
	for _, l := range labelOrder {
		xAxis = append(xAxis, string(l))
		data = append(data, opts.BarData{Value: s.ByLabel[string(l)]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "320px",
			ChartID: "patients_by_label",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Patients by label",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
	)
	bar.SetXAxis(xAxis).AddSeries("Patients", data)
	return bar
}

func statusChart(s Summary) *charts.Pie {
	keys := sortedKeys(s.ByStatus)
	data := make([]opts.PieData, 0, len(keys))
	for _, k := range keys {
		data = append(data, opts.PieData{Name: k, Value: s.ByStatus[k]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "360px",
			ChartID: "patients_by_status",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Patients by status",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	pie.AddSeries("Status", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Formatter: "{b}: {c}",
		}))
	return pie
}
