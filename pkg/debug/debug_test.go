package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	t.Cleanup(func() { SetEnabled(false) })
	return &buf
}

func TestLogDisabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("hidden %d", 1)
	LogTiming("x", time.Second)
	LogEnterExit("y")()
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := capture(t)

	Log("geocoded %q", "Delhi")
	LogIf(false, "skipped")
	LogIf(true, "kept")
	Section("matrix")
	LogEnterExit("geo.Build")()

	out := buf.String()
	for _, want := range []string{
		`[RP_DEBUG] geocoded "Delhi"`,
		"kept",
		"=== matrix ===",
		"-> geo.Build",
		"<- geo.Build (",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote output:\n%s", out)
	}
}

func TestDump(t *testing.T) {
	buf := capture(t)

	Dump("names", []string{"A", "B"})
	if got := buf.String(); !strings.Contains(got, "names: []string = [A B]") {
		t.Errorf("Dump output = %q", got)
	}
}
