package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	saved := Logger
	Logger = logrus.New()
	Logger.SetOutput(&buf)
	Logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	t.Cleanup(func() { Logger = saved })

	WithContext(context.Background()).Info("plain")
	if out := buf.String(); !strings.Contains(out, "msg=plain") || strings.Contains(out, "request_id") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	ctx := NewContext(context.Background(), Logger.WithField("request_id", "r-1"))
	WithContext(ctx).Info("scoped")
	if out := buf.String(); !strings.Contains(out, "request_id=r-1") {
		t.Fatalf("request fields missing: %q", out)
	}
}
