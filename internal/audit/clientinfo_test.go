package audit

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP_HeaderPriority(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name: "cloudflare header wins over everything",
			headers: map[string]string{
				"CF-Connecting-IP": "203.0.113.1",
				"X-Real-IP":        "203.0.113.2",
				"X-Forwarded-For":  "203.0.113.3, 10.0.0.1",
			},
			want: "203.0.113.1",
		},
		{
			name: "real ip beats forwarded-for",
			headers: map[string]string{
				"X-Real-IP":       "203.0.113.2",
				"X-Forwarded-For": "203.0.113.3",
			},
			want: "203.0.113.2",
		},
		{
			name: "forwarded-for takes first hop",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3, 10.0.0.1, 10.0.0.2",
			},
			want: "203.0.113.3",
		},
		{
			name: "forwarded-for single value",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
			},
			want: "203.0.113.3",
		},
		{
			name: "whitespace trimmed",
			headers: map[string]string{
				"X-Forwarded-For": "  203.0.113.3 , 10.0.0.1",
			},
			want: "203.0.113.3",
		},
		{
			name:    "no headers means absent",
			headers: map[string]string{},
			want:    "",
		},
		{
			name: "blank cloudflare header falls through",
			headers: map[string]string{
				"CF-Connecting-IP": "   ",
				"X-Real-IP":        "203.0.113.2",
			},
			want: "203.0.113.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := UserAgent(r); got != "" {
		t.Errorf("UserAgent() = %q, want empty", got)
	}

	r.Header.Set("User-Agent", "curl/8.0")
	if got := UserAgent(r); got != "curl/8.0" {
		t.Errorf("UserAgent() = %q, want curl/8.0", got)
	}
}
