package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	if got := New("debug", "text").GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}
	if got := New("nonsense", "text").GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("unknown level = %v, want info fallback", got)
	}
}

func TestNewFormats(t *testing.T) {
	if _, ok := New("info", "json").Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("json format not applied")
	}
	if _, ok := New("info", "").Formatter.(*logrus.TextFormatter); !ok {
		t.Fatal("text format not the default")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	log := FromEnv()
	if log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("format not read from env")
	}
}
