package domain

import (
	"encoding/json"
	"testing"
)

func TestCorrectAnswerAcceptsIndexOrText(t *testing.T) {
	options := []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi"}
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`1`, 1, true},
		{`"Ribosome"`, 2, true},
		{`" golgi "`, 3, true},
		{`"2"`, 2, true},
		{`"B"`, 1, true},
		{`"Chloroplast"`, -1, false},
		{`7`, 7, false},
	}
	for _, tc := range cases {
		var a CorrectAnswer
		if err := json.Unmarshal([]byte(tc.raw), &a); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.raw, err)
		}
		if ok := a.Resolve(options); ok != tc.ok {
			t.Fatalf("%s: expected resolve=%v, got %v", tc.raw, tc.ok, ok)
		}
		if tc.ok && a.Index != tc.want {
			t.Fatalf("%s: expected index %d, got %d", tc.raw, tc.want, a.Index)
		}
	}
}

func TestCorrectAnswerRejectsFractions(t *testing.T) {
	var a CorrectAnswer
	if err := json.Unmarshal([]byte(`1.5`), &a); err == nil {
		t.Fatalf("expected error for fractional index")
	}
}

func TestQuestionMarshalsIndex(t *testing.T) {
	q := Question{
		Question:      "Powerhouse of the cell?",
		Options:       []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi"},
		CorrectAnswer: CorrectAnswer{Index: 0},
	}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"question":"Powerhouse of the cell?","options":["Mitochondria","Nucleus","Ribosome","Golgi"],"correctAnswer":0}`
	if string(data) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", data, want)
	}
}
