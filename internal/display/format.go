package display

import (
	"fmt"
)

var sizeUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes renders a file size in binary units with one decimal
// ("700.0 MiB"). Sizes under 1 KiB are printed in bytes.
func FormatBytes(n int64) string {
	if n < 1024 && n > -1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := 0
	for (v >= 1024 || v <= -1024) && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// FormatBytesWithSign renders a size delta as "+ 1.0 MiB" or "- 1.0 MiB".
func FormatBytesWithSign(n int64) string {
	switch {
	case n > 0:
		return "+ " + FormatBytes(n)
	case n < 0:
		return "- " + FormatBytes(-n)
	default:
		return FormatBytes(0)
	}
}

// SizeRatio is out as a whole percentage of in, the "% of original" of a
// transcode. An unknown input size reports 100.
func SizeRatio(out, in int64) int64 {
	if in <= 0 {
		return 100
	}
	return out * 100 / in
}

// FormatSizeChange summarizes an encode: "1.0 GiB -> 400.0 MiB (39% of original)".
func FormatSizeChange(in, out int64) string {
	return fmt.Sprintf("%s -> %s (%d%% of original)", FormatBytes(in), FormatBytes(out), SizeRatio(out, in))
}
