package compiler

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  正官  ", "正官"},
		{"“正官”", "正官"},
		{"「华盖」", "华盖"},
		{"'甲子'", "甲子"},
		{"傷官", "伤官"},
		{"劫才", "劫财"},
		{"七煞", "七杀"},
		{"梟神", "枭神"},
		{"驛馬", "驿马"},
		{"乙已", "乙巳"},
		{"正財、偏財", "正财、偏财"},
		{"\t月柱主星是正官\n", "月柱主星是正官"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		" “傷官”见官 ",
		"劫才、七煞",
		"乙已、丁已",
		"月柱主星是正官，且月柱副星有正官",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(%q) not idempotent: %q then %q", in, once, twice)
		}
	}
}
