package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n\n   ", ""},
		{"hyphen join", "Spa-\ncious flats", "Spacious flats"},
		{"hyphen chain", "a-\nb-\nc", "abc"},
		{"hyphen not word", "floor -\nplan", "floor -\nplan"},
		{"unicode hyphen join", "Grün-\nfläche", "Grünfläche"},
		{"collapse spaces", "3  BHK\t\tflats  here", "3 BHK flats here"},
		{"collapse newlines", "Tower A\n\n\n\n\nTower B", "Tower A\n\nTower B"},
		{"crlf", "Line one\r\nLine two\r\n", "Line one\nLine two"},
		{"control chars", "Gym\x00\x07 pool\x1b", "Gym pool"},
		{"keeps devanagari", "परियोजना name", "परियोजना name"},
		{"invalid utf8", "Club\xffhouse", "Clubhouse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"  Sky-\nline  Heights \r\n\r\n\r\n\r\nRERA: P123 ",
		"a-\nb-\nc-\nd\n\n\n\n e \t f",
		" Tower B \n\n\n 3 BHK \x01",
		"Spa- \ncious\t-\nroom",
		"€ 1,20,000 onwards\n\n\n",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestStripBoilerplate(t *testing.T) {
	in := "CONFIDENTIAL  Sky Heights\nAll Rights Reserved — Watermark\n3 BHK ₹ 1.2 Cr"
	got := StripBoilerplate(in)
	assert.Equal(t, "Sky Heights 3 BHK 1.2 Cr", got)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, "", StripBoilerplate(""))
}

func TestDedupeLines(t *testing.T) {
	in := "Gym\n  Gym \n\nPool\nGym\n\n  \nClubhouse"
	assert.Equal(t, "Gym\nPool\nClubhouse", DedupeLines(in))
	assert.Equal(t, "", DedupeLines(""))
}

func TestForModel(t *testing.T) {
	assert.Equal(t, "Sky Heights Gym", ForModel("Sky Heights\n\nconfidential\nGym"))
}

func TestMergeOCR(t *testing.T) {
	t.Run("longer text is base and output sorted", func(t *testing.T) {
		short := "Tower B\nGym"
		long := "Gym\nSwimming Pool\n3 BHK 1450 sqft"
		got := MergeOCR(short, long)
		assert.Equal(t, "3 BHK 1450 sqft\nGym\nSwimming Pool\nTower B", got)
	})

	t.Run("self merge yields sorted unique lines", func(t *testing.T) {
		a := "Pool\nGym\n\nPool\n  Clubhouse  "
		assert.Equal(t, "Clubhouse\nGym\nPool", MergeOCR(a, a))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, "", MergeOCR("", "  "))
	})
}

func TestMergeConflicts(t *testing.T) {
	t.Run("every ocr line survives", func(t *testing.T) {
		pdf := "Sky Heights\nPrice 1.2 Cr"
		ocr := "Price 1.2 Cr\nPrice 1.3 Cr\nLobby"
		got := strings.Split(MergeConflicts(pdf, ocr), "\n")
		for _, l := range strings.Split(ocr, "\n") {
			assert.Contains(t, got, l)
		}
		assert.Contains(t, got, "Sky Heights")
	})

	t.Run("exact collision only", func(t *testing.T) {
		pdf := "Price 1.2 Cr"
		ocr := "Price 1.2Cr"
		assert.Equal(t, "Price 1.2 Cr\nPrice 1.2Cr", MergeConflicts(pdf, ocr))
	})

	t.Run("sorted and blanks excluded", func(t *testing.T) {
		assert.Equal(t, "a\nb\nc", MergeConflicts("c\n\na", "\nb\n"))
	})

	t.Run("self merge", func(t *testing.T) {
		a := "Tower 9\nGarden\nGarden"
		assert.Equal(t, "Garden\nTower 9", MergeConflicts(a, a))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Equal(t, "", MergeConflicts("", ""))
	})
}
