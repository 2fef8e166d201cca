package showcurves

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"strconv"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/ecfan"
	"github.com/mdouchement/ecfan/cmd/ecfan/env"
	"github.com/spf13/cobra"
)

func Command(e *env.Env) *cobra.Command {
	var resolution int

	cmd := &cobra.Command{
		Use:   "show-curves",
		Short: "Show the duty cycle and RPM tables of each fan",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			codec := sixel.NewEncoder(os.Stdout)

			for _, ch := range e.Controller.Fans() {
				if len(ch.DutyCycle) > 0 {
					opt := dutyCycleChart(ch)
					if err := render(codec, opt, resolution); err != nil {
						return fmt.Errorf("%s: %w", ch.Name(), err)
					}
				}

				opt := rpmChart(ch)
				if err := render(codec, opt, resolution); err != nil {
					return fmt.Errorf("%s: %w", ch.Name(), err)
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of each graph")

	return cmd
}

// dutyCycleChart plots the register value written for every requested percentage.
func dutyCycleChart(ch ecfan.Channel) charts.LineChartOption {
	ls := charts.LineSeries{Name: fmt.Sprintf("0x%02X", ch.PWMRegister)}
	labels := make([]string, 0, 101)

	lo, hi := 255.0, 0.0
	for p := range 101 {
		step, _ := ch.DutyCycle.Closest(p)
		ls.Values = append(ls.Values, float64(step.Value))
		labels = append(labels, strconv.Itoa(p))

		lo, hi = min(lo, float64(step.Value)), max(hi, float64(step.Value))
	}

	opt := lineChart(fmt.Sprintf("%s: duty cycle", ch.Name()), charts.LineSeriesList{ls}, labels, "%")
	opt.YAxis[0].Title = "value"
	opt.YAxis[0].Min = ecfan.ToPtr(lo - 1)
	opt.YAxis[0].Max = ecfan.ToPtr(hi + 1)
	opt.YAxis[0].Unit = 1
	return opt
}

// rpmChart plots the approximate RPM for every raw tachometer byte.
func rpmChart(ch ecfan.Channel) charts.LineChartOption {
	ls := charts.LineSeries{Name: fmt.Sprintf("0x%02X", ch.RPM.Register)}
	labels := make([]string, 0, 256)

	for raw := range 256 {
		ls.Values = append(ls.Values, float64(ch.ToRPM(uint16(raw))))
		labels = append(labels, strconv.Itoa(raw))
	}

	opt := lineChart(fmt.Sprintf("%s: RPM", ch.Name()), charts.LineSeriesList{ls}, labels, "raw")
	opt.YAxis[0].Title = "RPM"
	opt.YAxis[0].Min = ecfan.ToPtr(float64(0))
	return opt
}

func lineChart(title string, set charts.LineSeriesList, labels []string, xtitle string) charts.LineChartOption {
	opt := charts.NewLineChartOptionWithSeries(set)
	opt.Theme = charts.GetTheme(charts.ThemeVividDark)
	opt.Padding = charts.NewBox(20, 20, 20, 20)
	opt.Title.Text = title
	opt.Title.FontStyle.FontSize = 16
	opt.Title.Offset = charts.OffsetLeft
	opt.Legend = charts.LegendOption{
		Show:     ecfan.ToPtr(true),
		Offset:   charts.OffsetCenter,
		Vertical: ecfan.ToPtr(true),
		Padding:  charts.NewBox(0, 0, 0, 20),
	}
	opt.Symbol = charts.SymbolNone
	opt.LineStrokeWidth = 2
	opt.XAxis.Show = ecfan.ToPtr(true)
	opt.XAxis.Title = xtitle
	opt.XAxis.Labels = labels
	opt.XAxis.LabelCount = 10
	opt.YAxis = []charts.YAxisOption{
		{
			Show:                   ecfan.ToPtr(true),
			RangeValuePaddingScale: ecfan.ToPtr(float64(0)),
		},
	}

	return opt
}

func render(codec *sixel.Encoder, opt charts.LineChartOption, resolution int) error {
	p := charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        resolution,
		Height:       int(float64(resolution) / (16.0 / 9.0)),
	})

	err := p.LineChart(opt)
	if err != nil {
		return err
	}

	mPNG, err := p.Bytes()
	if err != nil {
		return err
	}

	m, _, err := image.Decode(bytes.NewReader(mPNG))
	if err != nil {
		return err
	}

	return codec.Encode(m)
}
