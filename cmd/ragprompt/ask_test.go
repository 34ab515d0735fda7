package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeChatServer answers chat completions and records the last user message.
func fakeChatServer(t *testing.T, lastPrompt *string) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if n := len(body.Messages); n > 0 {
			*lastPrompt = body.Messages[n-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[{"message":{"content":"Blue."}}]}`))
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestAsk_SendsResolvedPrompt(t *testing.T) {
	isolateConfig(t)
	var prompt string
	t.Setenv("LOCAL_LLM_URL", fakeChatServer(t, &prompt))
	apiURL := startService(t, "C=[context] Q=[query]")

	stdout, _, err := execute(t, "", "ask", "What color?", "--context", "sky is blue",
		"--model", "local", "--api-url", apiURL, "--token", testUserToken)
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	if stdout != "Blue.\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if prompt != "C=sky is blue Q=What color?" {
		t.Errorf("LLM received %q", prompt)
	}
}

func TestAsk_JSONReportsFallback(t *testing.T) {
	isolateConfig(t)
	var prompt string
	t.Setenv("LOCAL_LLM_URL", fakeChatServer(t, &prompt))

	stdout, _, err := execute(t, "", "ask", "q", "--provider", "local", "--api-url", deadURL(), "--json")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if result["content"] != "Blue." || result["model"] != "test-model" || result["source"] != "fallback" {
		t.Errorf("result = %v", result)
	}
	if !strings.Contains(prompt, "Query: q") {
		t.Errorf("LLM received %q, want default template", prompt)
	}
}

func TestValidateAskFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   askFlags
		wantErr bool
	}{
		{"defaults", askFlags{timeout: 120}, false},
		{"temperature too high", askFlags{temperature: 2.5, timeout: 120}, true},
		{"negative temperature", askFlags{temperature: -1, timeout: 120}, true},
		{"zero timeout", askFlags{timeout: 0}, true},
		{"negative max tokens", askFlags{maxTokens: -1, timeout: 120}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAskFlags(tt.flags)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAskFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
