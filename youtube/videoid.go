package youtube

import "regexp"

// videoIDRegexp matches the 11 character video id following "v=" or a "/".
var videoIDRegexp = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// ExtractVideoID returns the video id embedded in a watch, share or music URL.
func ExtractVideoID(videoURL string) (string, bool) {
	match := videoIDRegexp.FindStringSubmatch(videoURL)
	if match == nil {
		return "", false
	}
	return match[1], true
}
