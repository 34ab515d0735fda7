//nolint:bodyclose // Test file uses mock responses with NopCloser bodies
package templateapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gorewood/ragprompt/internal/output"
	"github.com/gorewood/ragprompt/internal/ragtemplate"
)

// mockHTTPDoer implements HTTPDoer for testing and records the last request.
type mockHTTPDoer struct {
	response *http.Response
	err      error
	request  *http.Request
	body     string
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.body = string(data)
	}
	return m.response, m.err
}

// mockResponse creates a mock HTTP response with the given status and body.
func mockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// errReader fails every read.
type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestGetTemplate_Success(t *testing.T) {
	doer := &mockHTTPDoer{
		response: mockResponse(200, `{"status": true, "template": "Q: [query] / C: [context]"}`),
	}
	client := New("http://rag.local/rag/api/v1/", WithHTTPDoer(doer))

	got, err := client.GetTemplate(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if got != "Q: [query] / C: [context]" {
		t.Errorf("template = %q", got)
	}

	if doer.request.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", doer.request.Method)
	}
	if doer.request.URL.String() != "http://rag.local/rag/api/v1/template" {
		t.Errorf("url = %s", doer.request.URL)
	}
	if auth := doer.request.Header.Get("Authorization"); auth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestGetTemplate_EmptyTemplateIsValid(t *testing.T) {
	client := New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{
		response: mockResponse(200, `{"status": true, "template": ""}`),
	}))

	got, err := client.GetTemplate(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if got != "" {
		t.Errorf("template = %q, want empty", got)
	}
}

func TestGetTemplate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doer     *mockHTTPDoer
		wantErr  string
		wantCode int
	}{
		{
			name:     "transport failure",
			doer:     &mockHTTPDoer{err: errors.New("dial tcp: connection refused")},
			wantErr:  "request failed",
			wantCode: output.ExitSystemError,
		},
		{
			name:     "unauthorized with detail",
			doer:     &mockHTTPDoer{response: mockResponse(401, `{"detail": "invalid token"}`)},
			wantErr:  "status 401): invalid token",
			wantCode: output.ExitUserError,
		},
		{
			name:     "forbidden",
			doer:     &mockHTTPDoer{response: mockResponse(403, `{"detail": "admin only"}`)},
			wantErr:  "admin only",
			wantCode: output.ExitUserError,
		},
		{
			name:     "server error plain body",
			doer:     &mockHTTPDoer{response: mockResponse(502, "Bad Gateway")},
			wantErr:  "status 502): Bad Gateway",
			wantCode: output.ExitSystemError,
		},
		{
			name:     "invalid JSON",
			doer:     &mockHTTPDoer{response: mockResponse(200, "<html>login</html>")},
			wantErr:  "parse template response",
			wantCode: output.ExitSystemError,
		},
		{
			name:     "missing template field",
			doer:     &mockHTTPDoer{response: mockResponse(200, `{"status": true}`)},
			wantErr:  "no template field",
			wantCode: output.ExitSystemError,
		},
		{
			name:     "template of wrong type",
			doer:     &mockHTTPDoer{response: mockResponse(200, `{"status": true, "template": 7}`)},
			wantErr:  "parse template response",
			wantCode: output.ExitSystemError,
		},
		{
			name: "body read failure",
			doer: &mockHTTPDoer{response: &http.Response{
				StatusCode: 200,
				Body:       io.NopCloser(errReader{}),
			}},
			wantErr:  "failed to read response",
			wantCode: output.ExitSystemError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New("http://rag.local", WithHTTPDoer(tt.doer))

			_, err := client.GetTemplate(context.Background(), "tok")
			if err == nil {
				t.Fatal("GetTemplate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
			if code := output.GetExitCode(err); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestGetTemplate_TruncatesLongErrorBody(t *testing.T) {
	long := strings.Repeat("x", 2000)
	client := New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{response: mockResponse(500, long)}))

	_, err := client.GetTemplate(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "x") != maxErrorBody {
		t.Errorf("error body not truncated to %d bytes: len=%d", maxErrorBody, len(err.Error()))
	}
}

func TestGetTemplate_TruncatedErrorKeepsValidUTF8(t *testing.T) {
	// 499 ASCII bytes put the cut in the middle of a three-byte rune.
	long := strings.Repeat("x", maxErrorBody-1) + strings.Repeat("错", 100)
	client := New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{response: mockResponse(502, long)}))

	_, err := client.GetTemplate(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if !utf8.ValidString(err.Error()) {
		t.Errorf("error text is not valid UTF-8: %q", err.Error())
	}
	if strings.Contains(err.Error(), "错") {
		t.Errorf("partial rune should be dropped entirely: %q", err.Error())
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"a错b", 2, "a"},
		{"a错b", 4, "a错"},
		{"错", 0, ""},
	}

	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestGetTemplate_ResponseReadIsBounded(t *testing.T) {
	huge := `{"template": "` + strings.Repeat("a", maxResponseBody) + `"}`
	client := New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{response: mockResponse(200, huge)}))

	if _, err := client.GetTemplate(context.Background(), "tok"); err == nil {
		t.Error("expected a decode error once the body exceeds the read limit")
	}
}

func TestGetTemplate_NoTokenSendsNoAuthorization(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(200, `{"template": "x"}`)}
	client := New("http://rag.local", WithHTTPDoer(doer))

	if _, err := client.GetTemplate(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := doer.request.Header["Authorization"]; ok {
		t.Error("Authorization header should be absent for an empty token")
	}
}

func TestClient_IsFetcher(t *testing.T) {
	var fetcher ragtemplate.Fetcher = New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{
		response: mockResponse(200, `{"status": true, "template": "[query]!"}`),
	}))

	got := ragtemplate.NewResolver(fetcher).Resolve(context.Background(), "tok", "c", "hello")
	if got != "hello!" {
		t.Errorf("Resolve() = %q, want %q", got, "hello!")
	}

	failing := New("http://rag.local", WithHTTPDoer(&mockHTTPDoer{response: mockResponse(401, `{"detail":"nope"}`)}))
	res := ragtemplate.NewResolver(failing).ResolveDetailed(context.Background(), "bad", "c", "q")
	if res.Source != ragtemplate.SourceFallback {
		t.Errorf("Source = %v, want fallback", res.Source)
	}
	if !strings.Contains(res.FallbackReason(), "nope") {
		t.Errorf("FallbackReason() = %q", res.FallbackReason())
	}
}

func TestQuerySettings(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(200, `{"status": true, "template": "T [context]", "k": 4}`)}
	client := New("http://rag.local/rag/api/v1", WithHTTPDoer(doer))

	settings, err := client.QuerySettings(context.Background(), "admin")
	if err != nil {
		t.Fatalf("QuerySettings() error = %v", err)
	}
	if settings.Template != "T [context]" || settings.K != 4 {
		t.Errorf("settings = %+v", settings)
	}
	if doer.request.URL.Path != "/rag/api/v1/query/settings" {
		t.Errorf("path = %s", doer.request.URL.Path)
	}
}

func TestUpdateQuerySettings(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(200, `{"status": true, "template": "new [query]"}`)}
	client := New("http://rag.local", WithHTTPDoer(doer))

	k := 6
	tmpl := "new [query]"
	got, err := client.UpdateQuerySettings(context.Background(), "admin", QuerySettingsUpdate{K: &k, Template: &tmpl})
	if err != nil {
		t.Fatalf("UpdateQuerySettings() error = %v", err)
	}
	if got != "new [query]" {
		t.Errorf("template = %q", got)
	}

	if doer.request.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", doer.request.Method)
	}
	if ct := doer.request.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if doer.body != `{"k":6,"template":"new [query]"}` {
		t.Errorf("body = %s", doer.body)
	}
}

func TestUpdateQuerySettings_ResetOmitsFields(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(200, `{"status": true, "template": "default"}`)}
	client := New("http://rag.local", WithHTTPDoer(doer))

	if _, err := client.UpdateQuerySettings(context.Background(), "admin", QuerySettingsUpdate{}); err != nil {
		t.Fatal(err)
	}
	if doer.body != `{}` {
		t.Errorf("body = %s, want {}", doer.body)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	if got := New("http://rag.local/api///").BaseURL(); got != "http://rag.local/api" {
		t.Errorf("BaseURL() = %q", got)
	}
}
