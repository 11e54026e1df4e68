package ffmpeg

// The encode profile is fixed. It follows the common x265 anime/animation
// tuning: low CRF, limited SAO, eight B-frames, psy-rd and AQ mode 3.
const (
	VideoEncoder = "libx265"
	CRF          = "18"
	X265Params   = "limit-sao:bframes=8:psy-rd=1:aq-mode=3"
	Preset       = "slow"
	AudioEncoder = "aac"
	// Container is the output extension; Matroska is picked from it.
	Container = "mkv"
)

// Build constructs the complete ffmpeg argument slice (argv[0] included)
// for encoding input into output with the fixed profile.
func Build(bin, input, output string, verbose bool) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, bin, "-hide_banner", "-nostdin", "-y")

	// Loglevel: info when verbose, otherwise error.
	if verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args, "-i", input)

	// --- Video codec ---
	args = append(args,
		"-c:v", VideoEncoder,
		"-crf", CRF,
		"-x265-params", X265Params,
		"-preset", Preset,
	)

	// --- Audio codec ---
	args = append(args, "-c:a", AudioEncoder)

	// --- Output ---
	args = append(args, output)

	return args
}
