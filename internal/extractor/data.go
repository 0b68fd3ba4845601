package extractor

// Match is the audio reference found in a page, already made absolute.
type Match struct {
	URL string
	// Strategy names the rule that produced the match.
	Strategy string
}
