package strategy

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rdelaney/powerplay/internal/model"
)

func TestFormatNumbers(t *testing.T) {
	ps := model.PickSet{
		Strategy:    GlobalHot,
		Description: descriptions[GlobalHot],
		Whites:      []int{3, 12, 15, 56, 62},
		Red:         8,
	}

	got := FormatNumbers(ps)
	want := "03 12 15 56 62 R:08"
	if got != want {
		t.Errorf("FormatNumbers = %q, want %q", got, want)
	}
}

func TestFormatIncludesStrategyAndDescription(t *testing.T) {
	ps := model.PickSet{
		Strategy:    Overdue,
		Description: descriptions[Overdue],
		Whites:      []int{1, 2, 3, 4, 5},
		Red:         26,
	}

	got := Format(ps)
	if !strings.HasPrefix(got, "overdue (") {
		t.Errorf("Format should start with the strategy name: %q", got)
	}
	if !strings.HasSuffix(got, "01 02 03 04 05 R:26") {
		t.Errorf("Format should end with the numbers: %q", got)
	}
}

func TestParseNumbersRoundTrip(t *testing.T) {
	ps := model.PickSet{
		Whites: []int{3, 12, 15, 56, 62},
		Red:    8,
	}

	whites, red, err := ParseNumbers(FormatNumbers(ps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(whites, ps.Whites) {
		t.Errorf("round-trip whites = %v, want %v", whites, ps.Whites)
	}
	if red != ps.Red {
		t.Errorf("round-trip red = %d, want %d", red, ps.Red)
	}
}

func TestParseNumbersErrors(t *testing.T) {
	tests := []string{
		"",
		"01 02 03 04 05",     // no red marker
		"01 02 bad 04 R:08",  // non-numeric white
		"01 02 03 04 R:oops", // non-numeric red
	}
	for _, s := range tests {
		if _, _, err := ParseNumbers(s); err == nil {
			t.Errorf("ParseNumbers(%q) should fail", s)
		}
	}
}
