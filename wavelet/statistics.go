package wavelet

import "gonum.org/v1/gonum/stat"

// Statistics summarizes the coefficients of one band. The quantizer
// selection consults the counts (an empty band keeps a unit divisor),
// the encoder records them after quantization, and the test suites use
// them as oracles.
type Statistics struct {
	Positive int
	Negative int
	Zero     int
	Min      int16
	Max      int16
	Mean     float64
}

// BandStatistics scans one band and returns its statistics.
func (im *Image) BandStatistics(band int) Statistics {
	stats := Statistics{}
	if im.Height == 0 || im.Width == 0 {
		return stats
	}
	values := make([]float64, 0, im.Width*im.Height)
	stats.Min = im.Row(band, 0)[0]
	stats.Max = stats.Min
	for y := 0; y < im.Height; y++ {
		row := im.Row(band, y)
		for _, v := range row {
			switch {
			case v > 0:
				stats.Positive++
			case v < 0:
				stats.Negative++
			default:
				stats.Zero++
			}
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
			values = append(values, float64(v))
		}
	}
	stats.Mean = stat.Mean(values, nil)
	return stats
}
