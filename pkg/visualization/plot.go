// Package visualization renders the pipeline output for human review:
// the AIF curve as a PNG plot and the final voxel mask as a sequence of
// slice images.
package visualization

import (
	"bytes"
	"os"

	"github.com/wcharczuk/go-chart/v2"
)

// PlotCurve renders the AIF curve against its timeline and writes the
// chart as a PNG to filename
func PlotCurve(filename, title string, timeline, curve []float64) error {
	graph := chart.Chart{
		Title:  title,
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name: "Time [s]",
		},
		YAxis: chart.YAxis{
			Name: "Concentration",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "AIF",
				XValues: timeline,
				YValues: curve,
			},
		},
	}

	// Render to a byte buffer
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return err
	}

	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if _, err := buffer.WriteTo(outFile); err != nil {
		return err
	}
	return nil
}
