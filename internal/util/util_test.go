package util

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vasylcode/matchwatch/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1500", "$1.50K"},
		{"2500000", "$2.50M"},
		{"-250", "-$250.00"},
		{"-1200", "-$1.20K"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(decimal.RequireFromString("25.5")); got != "+$25.50" {
		t.Errorf("FormatPnL = %q", got)
	}
	if got := FormatPnL(decimal.RequireFromString("-3")); got != "-$3.00" {
		t.Errorf("FormatPnL = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("66.666")); got != "66.7%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := Truncate("Manchester United", 10); got != "Mancheste…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("Arsenal", 10); got != "Arsenal" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Pad("PSG", 5); got != "PSG  " {
		t.Errorf("Pad = %q", got)
	}
}

func TestColors(t *testing.T) {
	if StatusColor("2H") != "brightred" || StatusColor("FT") != "brightblack" || StatusColor("NS") != "cyan" {
		t.Error("unexpected status colors")
	}
	if ResultColor("WON") != "green" || ResultColor("lost") != "red" || ResultColor("") != "yellow" {
		t.Error("unexpected result colors")
	}
	if Tag(ModeColor(model.ModeA)) != "[#50FA7B]" || Tag("nope") != "[white]" {
		t.Error("unexpected tags")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "match_id", "42")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" || entry["match_id"] != "42" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	w, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	if _, err := w.Write([]byte("x\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	stderr, err := OpenLogFile("")
	if err != nil {
		t.Fatalf("OpenLogFile(\"\"): %v", err)
	}
	if err := stderr.Close(); err != nil {
		t.Errorf("closing stderr writer: %v", err)
	}
}
