package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/engine"
)

var allEnvKeys = []string{
	EnvEngine, EnvBinary, EnvAutoInstall, EnvGeoCountry, EnvSocketTimeout, EnvRetries,
	EnvFragmentRetries, EnvPreflight, EnvCancelGrace, EnvOutputDir, EnvLanguage, EnvLogLevel,
}

// clearEnv blanks every option variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadOptionsDefaults(t *testing.T) {
	clearEnv(t)

	opts, err := LoadOptions(missingEnvFile(t))
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Engine != engine.KindYTDLP {
		t.Errorf("Engine = %q, want %q", opts.Engine, engine.KindYTDLP)
	}
	if opts.GeoCountry != "RU" {
		t.Errorf("GeoCountry = %q, want RU", opts.GeoCountry)
	}
	if opts.SocketTimeout != 30*time.Second {
		t.Errorf("SocketTimeout = %s, want 30s", opts.SocketTimeout)
	}
	if opts.Retries != 10 || opts.FragmentRetries != 10 {
		t.Errorf("Retries = %d, FragmentRetries = %d, want 10 and 10", opts.Retries, opts.FragmentRetries)
	}
	if !opts.Preflight {
		t.Error("Preflight should default to true")
	}
	if opts.CancelGrace != 3*time.Second {
		t.Errorf("CancelGrace = %s, want 3s", opts.CancelGrace)
	}
	if opts.LogLevel != "INFO" || opts.Language != "en" {
		t.Errorf("LogLevel = %q, Language = %q", opts.LogLevel, opts.Language)
	}
	if opts.OutputDir == "" {
		t.Error("OutputDir should default to the Downloads directory")
	}
}

func TestLoadOptionsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEngine, "Native")
	t.Setenv(EnvBinary, "/opt/yt-dlp")
	t.Setenv(EnvAutoInstall, "true")
	t.Setenv(EnvGeoCountry, "DE")
	t.Setenv(EnvSocketTimeout, "45")
	t.Setenv(EnvRetries, "3")
	t.Setenv(EnvPreflight, "false")
	t.Setenv(EnvCancelGrace, "1500ms")
	t.Setenv(EnvOutputDir, "/srv/videos")
	t.Setenv(EnvLanguage, "pt")
	t.Setenv(EnvLogLevel, "debug")

	opts, err := LoadOptions(missingEnvFile(t))
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Engine != engine.KindNative {
		t.Errorf("Engine = %q, want %q", opts.Engine, engine.KindNative)
	}
	if opts.Binary != "/opt/yt-dlp" || !opts.AutoInstall {
		t.Errorf("Binary = %q, AutoInstall = %v", opts.Binary, opts.AutoInstall)
	}
	if opts.GeoCountry != "DE" || opts.SocketTimeout != 45*time.Second || opts.Retries != 3 {
		t.Errorf("unexpected engine options: %+v", opts)
	}
	if opts.Preflight {
		t.Error("Preflight should be false")
	}
	if opts.CancelGrace != 1500*time.Millisecond {
		t.Errorf("CancelGrace = %s, want 1.5s", opts.CancelGrace)
	}
	if opts.OutputDir != "/srv/videos" || opts.Language != "pt" || opts.LogLevel != "DEBUG" {
		t.Errorf("unexpected options: %+v", opts)
	}

	dl := opts.DownloadOptions()
	if dl.GeoBypassCountry != "DE" || dl.Retries != 3 || dl.Preflight {
		t.Errorf("DownloadOptions() = %+v", dl)
	}
}

func TestLoadOptionsFromFile(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), ".env")
	content := "YTDL_RETRIES=7\nYTDL_LANGUAGE=ru\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvRetries)
		os.Unsetenv(EnvLanguage)
	})

	opts, err := LoadOptions(file)
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Retries != 7 || opts.Language != "ru" {
		t.Errorf("Retries = %d, Language = %q, want 7 and ru", opts.Retries, opts.Language)
	}
}

func TestLoadOptionsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{EnvEngine, "youtube-dl", EnvEngine},
		{EnvRetries, "many", EnvRetries},
		{EnvPreflight, "maybe", EnvPreflight},
		{EnvSocketTimeout, "soon", EnvSocketTimeout},
		{EnvGeoCountry, "RUS", EnvGeoCountry},
		{EnvLogLevel, "TRACE", "invalid log level"},
		{EnvLanguage, "de", EnvLanguage},
		{EnvCancelGrace, "0", EnvCancelGrace},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadOptions(missingEnvFile(t))
			if err == nil {
				t.Fatalf("LoadOptions() with %s=%s succeeded, want error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestOptionsNewEngine(t *testing.T) {
	opts := DefaultOptions()

	eng, err := opts.NewEngine(zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, ok := eng.(*engine.YTDLP); !ok {
		t.Errorf("default engine = %T, want *engine.YTDLP", eng)
	}

	opts.Engine = engine.KindNative
	eng, err = opts.NewEngine(zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, ok := eng.(*engine.Native); !ok {
		t.Errorf("native engine = %T, want *engine.Native", eng)
	}
}
