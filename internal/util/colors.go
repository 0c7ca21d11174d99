package util

import (
	"github.com/fatih/color"
	"github.com/vasylcode/matchwatch/internal/model"
)

// ColorMap maps color names to terminal color attributes
var ColorMap = map[string]color.Attribute{
	"red":          color.FgRed,
	"green":        color.FgGreen,
	"yellow":       color.FgYellow,
	"cyan":         color.FgCyan,
	"white":        color.FgWhite,
	"brightred":    color.FgHiRed,
	"brightgreen":  color.FgHiGreen,
	"brightyellow": color.FgHiYellow,
	"brightblack":  color.FgHiBlack,
}

// TagMap holds the tview color tag for each name in ColorMap
var TagMap = map[string]string{
	"red":          "[#FF5555]",
	"green":        "[#00FF00]",
	"yellow":       "[#FFFF00]",
	"cyan":         "[#00FFFF]",
	"white":        "[white]",
	"brightred":    "[#FF0000]",
	"brightgreen":  "[#50FA7B]",
	"brightyellow": "[#FFD700]",
	"brightblack":  "[#888888]",
}

// GetTerminalColor returns a terminal color based on a color name
func GetTerminalColor(colorName string, defaultColor color.Attribute) *color.Color {
	if attr, ok := ColorMap[colorName]; ok {
		return color.New(attr)
	}
	return color.New(defaultColor)
}

// Tag returns the tview color tag for a color name, white if unknown
func Tag(colorName string) string {
	if tag, ok := TagMap[colorName]; ok {
		return tag
	}
	return "[white]"
}

// StatusColor names the color for a match status
func StatusColor(status string) string {
	switch {
	case model.IsLive(status):
		return "brightred"
	case status == "FT" || status == "AET" || status == "PEN":
		return "brightblack"
	case status == "NS" || status == "TBD":
		return "cyan"
	case status == "PST" || status == "CANC" || status == "ABD" || status == "SUSP" || status == "INT":
		return "yellow"
	}
	return "white"
}

// ResultColor names the color for a recommendation result
func ResultColor(r model.Result) string {
	switch r.Normalized() {
	case model.ResultWon:
		return "green"
	case model.ResultLost:
		return "red"
	}
	return "yellow"
}

// ModeColor names the color for a watch mode
func ModeColor(m model.Mode) string {
	switch m {
	case model.ModeA:
		return "brightgreen"
	case model.ModeC:
		return "brightyellow"
	}
	return "cyan"
}
