package converter

// TextConverter normalizes textual values coming out of a Cue Sheet.
type TextConverter interface {
	// TradToSim converts Traditional Chinese text to Simplified.
	TradToSim(text string) string
}
