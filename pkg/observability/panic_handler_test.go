package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "cache warm-up")
		panic("boom")
	}()

	out := buf.String()
	for _, want := range []string{"PANIC recovered", "boom", "cache warm-up"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestMustRecover(t *testing.T) {
	if err := MustRecover(nil); err != nil {
		t.Errorf("MustRecover(nil) = %v, want nil", err)
	}
	if err := MustRecover("boom"); err == nil || err.Error() != "panic: boom" {
		t.Errorf("MustRecover(\"boom\") = %v", err)
	}
}
