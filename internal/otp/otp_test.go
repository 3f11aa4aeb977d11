package otp_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/ErlanBelekov/notes-service/internal/otp"
)

func TestGenerate_SixDigitsInRange(t *testing.T) {
	g := otp.NewGenerator()

	for i := 0; i < 500; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestGenerate_EntropyFailure(t *testing.T) {
	g := otp.NewGeneratorFrom(bytes.NewReader(nil))

	if _, err := g.Generate(); err == nil {
		t.Fatal("expected error from exhausted entropy source")
	}
}
