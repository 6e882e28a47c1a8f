package rewrite

import "strings"

var preamblePrefixes = []string{
	"here is", "here's", "the rewritten", "below", "following", "this is", "i've",
}

var preambleFragments = []string{"rewritten version", "formal and respectful tone"}

var quoteStripper = strings.NewReplacer(`"`, "", "'", "", "`", "")

// Clean drops the chatter models put around the paragraph: introductory
// lines and quote characters. Remaining lines are joined with single spaces.
func Clean(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(quoteStripper.Replace(line))
		if stripped == "" || isPreamble(strings.ToLower(strings.TrimSpace(line))) || isPreamble(strings.ToLower(stripped)) {
			continue
		}
		kept = append(kept, stripped)
	}
	return strings.Join(kept, " ")
}

func isPreamble(lower string) bool {
	for _, p := range preamblePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, f := range preambleFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
