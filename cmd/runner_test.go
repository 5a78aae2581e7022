package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/ameztoy/crosstune/internal/shared"
	tu "github.com/ameztoy/crosstune/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlainln", func(t *testing.T) {
		t.Run("surrounds text with blank lines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlainln("%d cached resolutions", 3)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "\n3 cached resolutions\n" {
				t.Errorf("unexpected output %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlainln("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("confirm", func(t *testing.T) {
		t.Run("accepts y", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: &bytes.Buffer{},
				Input:  strings.NewReader("y\n"),
			})

			if !runner.confirm("Proceed?") {
				t.Error("expected y to confirm")
			}
		})

		t.Run("accepts yes with surrounding whitespace", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: &bytes.Buffer{},
				Input:  strings.NewReader("  YES  \n"),
			})

			if !runner.confirm("Proceed?") {
				t.Error("expected yes to confirm")
			}
		})

		t.Run("anything else declines", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: &bytes.Buffer{},
				Input:  strings.NewReader("nope\n"),
			})

			if runner.confirm("Proceed?") {
				t.Error("expected non-yes answer to decline")
			}
		})

		t.Run("closed input declines", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: &bytes.Buffer{},
				Input:  strings.NewReader(""),
			})

			if runner.confirm("Proceed?") {
				t.Error("expected EOF to decline")
			}
		})

		t.Run("consecutive prompts read consecutive lines", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: &bytes.Buffer{},
				Input:  strings.NewReader("y\nn\ny\n"),
			})

			answers := []bool{
				runner.confirm("first?"),
				runner.confirm("second?"),
				runner.confirm("third?"),
			}
			want := []bool{true, false, true}
			for i := range want {
				if answers[i] != want[i] {
					t.Errorf("prompt %d: expected %v, got %v", i+1, want[i], answers[i])
				}
			}
		})
	})

	t.Run("callbackAddr", func(t *testing.T) {
		t.Run("uses configured host and port", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Server.Host = "localhost"
			config.Server.Port = 3000
			runner := NewRunner(RunnerOpts{Config: config})

			if addr := runner.callbackAddr(); addr != "localhost:3000" {
				t.Errorf("expected localhost:3000, got %s", addr)
			}
		})

		t.Run("falls back to loopback defaults", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Server.Host = ""
			config.Server.Port = 0
			runner := NewRunner(RunnerOpts{Config: config})

			if addr := runner.callbackAddr(); addr != "127.0.0.1:8080" {
				t.Errorf("expected 127.0.0.1:8080, got %s", addr)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}
