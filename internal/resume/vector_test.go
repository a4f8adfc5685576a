package resume

import "testing"

func TestParseVector(t *testing.T) {
	vector, err := ParseVector("[0.1,-0.25,3]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []float64{0.1, -0.25, 3}
	if len(vector) != len(expected) {
		t.Fatalf("expected %d components, got %d", len(expected), len(vector))
	}
	for i := range expected {
		if vector[i] != expected[i] {
			t.Fatalf("component %d: expected %v, got %v", i, expected[i], vector[i])
		}
	}
}

func TestParseVectorWithWhitespace(t *testing.T) {
	vector, err := ParseVector("  [ 1.5 , 2.5 ]  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vector[0] != 1.5 || vector[1] != 2.5 {
		t.Fatalf("unexpected vector: %v", vector)
	}
}

func TestParseVectorRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "0.1,0.2", "[]", "[1,oops]"} {
		if _, err := ParseVector(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestFormatVectorRoundTrip(t *testing.T) {
	original := []float64{0.125, -1, 42.5}

	parsed, err := ParseVector(FormatVector(original))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range original {
		if parsed[i] != original[i] {
			t.Fatalf("component %d: expected %v, got %v", i, original[i], parsed[i])
		}
	}
}
