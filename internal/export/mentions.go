package export

import (
	"regexp"
	"sort"
)

var (
	usernameRE = regexp.MustCompile(`@([A-Za-z0-9_]{3,})`)
	linkRE     = regexp.MustCompile(`https?://[^\s)\]}]+`)
	hashtagRE  = regexp.MustCompile(`#([\p{L}\p{N}_]{2,})`)
)

// ExtractMentions pulls @usernames, URLs and #hashtags out of the body
// text. Results are deduplicated and sorted.
func ExtractMentions(text string) Mentions {
	return Mentions{
		Usernames: matchGroup(usernameRE, text),
		Links:     matchWhole(linkRE, text),
		Hashtags:  matchGroup(hashtagRE, text),
	}
}

func matchGroup(re *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}

func matchWhole(re *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
