package logs

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLogVRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)
	defer SetVerbose(false)

	SetVerbose(false)
	LogV("[test] hidden %d", 1)
	SetVerbose(true)
	LogV("[test] shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "[test] shown 2") {
		t.Fatalf("unexpected log output %q", out)
	}
}
