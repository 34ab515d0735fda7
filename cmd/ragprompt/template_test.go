package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gorewood/ragprompt/internal/output"
	"github.com/gorewood/ragprompt/internal/ragtemplate"
	"github.com/gorewood/ragprompt/internal/templatesvc"
)

func TestTemplateDefault(t *testing.T) {
	isolateConfig(t)

	stdout, stderr, err := execute(t, "", "template", "default")
	if err != nil {
		t.Fatalf("template default error = %v", err)
	}
	if stdout != ragtemplate.DefaultTemplate+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Errorf("default template should have both placeholders, stderr = %q", stderr)
	}
}

func TestTemplateShow(t *testing.T) {
	isolateConfig(t)
	apiURL := startService(t, "Only [query]")

	stdout, stderr, err := execute(t, "", "template", "show", "--api-url", apiURL, "--token", testUserToken)
	if err != nil {
		t.Fatalf("template show error = %v", err)
	}
	if stdout != "Only [query]\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "no [context] placeholder") {
		t.Errorf("stderr = %q, want missing placeholder note", stderr)
	}
}

func TestTemplateShow_ErrorsSurface(t *testing.T) {
	isolateConfig(t)
	apiURL := startService(t, "")

	_, stderr, err := execute(t, "", "template", "show", "--api-url", apiURL, "--token", "wrong")
	if err == nil {
		t.Fatal("template show must report service errors")
	}
	if output.GetExitCode(err) != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", output.GetExitCode(err), output.ExitUserError)
	}
	if !strings.Contains(stderr, "status 401") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestTemplateSettingsAndSet(t *testing.T) {
	isolateConfig(t)
	apiURL := startService(t, "")
	admin := []string{"--api-url", apiURL, "--token", testAdminToken}

	settings := func() map[string]any {
		t.Helper()
		stdout, _, err := execute(t, "", append([]string{"template", "settings", "--json"}, admin...)...)
		if err != nil {
			t.Fatalf("template settings error = %v", err)
		}
		var result map[string]any
		if err := json.Unmarshal([]byte(stdout), &result); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		return result
	}

	if _, _, err := execute(t, "", append([]string{"template", "set", "--k", "8"}, admin...)...); err != nil {
		t.Fatalf("set --k error = %v", err)
	}
	got := settings()
	if got["k"] != float64(8) || got["template"] != templatesvc.DefaultServiceTemplate {
		t.Errorf("after set --k: %v", got)
	}

	if _, _, err := execute(t, "New [context] [query]", append([]string{"template", "set", "--file", "-"}, admin...)...); err != nil {
		t.Fatalf("set --file error = %v", err)
	}
	got = settings()
	if got["k"] != float64(8) || got["template"] != "New [context] [query]" {
		t.Errorf("after set --file: %v", got)
	}

	if _, _, err := execute(t, "", append([]string{"template", "set", "--reset"}, admin...)...); err != nil {
		t.Fatalf("set --reset error = %v", err)
	}
	got = settings()
	if got["k"] != float64(templatesvc.ResetTopK) || got["template"] != templatesvc.DefaultServiceTemplate {
		t.Errorf("after reset: %v", got)
	}
}

func TestTemplateSettings_RequiresAdmin(t *testing.T) {
	isolateConfig(t)
	apiURL := startService(t, "")

	_, stderr, err := execute(t, "", "template", "settings", "--api-url", apiURL, "--token", testUserToken)
	if err == nil {
		t.Fatal("expected error for user token")
	}
	if !strings.Contains(stderr, "status 403") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestTemplateSet_FlagValidation(t *testing.T) {
	isolateConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"nothing", []string{}, "nothing to update"},
		{"reset with k", []string{"--reset", "--k", "3"}, "cannot be combined"},
		{"zero k", []string{"--k", "0"}, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, "", append([]string{"template", "set"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestTemplateSet_HelpNamesResetTopK(t *testing.T) {
	stdout, _, err := execute(t, "", "template", "set", "--help")
	if err != nil {
		t.Fatalf("help error = %v", err)
	}
	if !strings.Contains(stdout, "sets top-k to 4") || !strings.Contains(stdout, "set top-k to 4") {
		t.Errorf("help should say --reset sets top-k to 4:\n%s", stdout)
	}
	if strings.Contains(stdout, "restores\nboth") {
		t.Errorf("help still claims both settings return to defaults:\n%s", stdout)
	}
}
