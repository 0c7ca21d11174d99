package model

import "strings"

// LiveStatuses are the status codes the LIVE filter matches
var LiveStatuses = []string{"1H", "2H", "HT", "ET", "BT", "P", "LIVE", "INT"}

// StatusLabels maps match status codes to display labels
var StatusLabels = map[string]string{
	"NS":   "Not Started",
	"1H":   "1st Half",
	"HT":   "Half Time",
	"2H":   "2nd Half",
	"ET":   "Extra Time",
	"BT":   "Break",
	"P":    "Penalties",
	"LIVE": "Live",
	"INT":  "Interrupted",
	"FT":   "Finished",
	"PST":  "Postponed",
	"CANC": "Cancelled",
	"ABD":  "Abandoned",
	"SUSP": "Suspended",
	"AWD":  "Awarded",
}

var liveSet = func() map[string]bool {
	set := make(map[string]bool, len(LiveStatuses))
	for _, s := range LiveStatuses {
		set[s] = true
	}
	return set
}()

// IsLive reports whether status is an in-play code
func IsLive(status string) bool {
	return liveSet[strings.ToUpper(strings.TrimSpace(status))]
}

// StatusLabel returns the label for a status code, falling back to the code
func StatusLabel(status string) string {
	code := strings.ToUpper(strings.TrimSpace(status))
	if label, ok := StatusLabels[code]; ok {
		return label
	}
	if code == "" {
		return "-"
	}
	return code
}
