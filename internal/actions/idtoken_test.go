package actions

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TokenMockHandler(t *testing.T, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer runtime-token" {
			t.Errorf("got Authorization %q, wanted the bearer token", got)
		}
		if got := r.URL.Query().Get("audience"); got != "sts.amazonaws.com" {
			t.Errorf("got audience %q, wanted sts.amazonaws.com", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func Test_GetIDToken_with(t *testing.T) {
	ttests := map[string]struct {
		handler   func(t *testing.T) http.Handler
		env       func(url string) map[string]string
		expect    string
		expectErr bool
		errTyp    error
	}{
		"success": {
			handler: func(t *testing.T) http.Handler {
				return TokenMockHandler(t, http.StatusOK, `{"value":"eyJ.oidc.token"}`)
			},
			env: func(url string) map[string]string {
				return map[string]string{IdTokenRequestUrlVar: url + "/token?api-version=2.0", IdTokenRequestTokenVar: "runtime-token"}
			},
			expect: "eyJ.oidc.token",
		},
		"missing request url": {
			handler: func(t *testing.T) http.Handler { return http.NotFoundHandler() },
			env: func(url string) map[string]string {
				return map[string]string{IdTokenRequestTokenVar: "runtime-token"}
			},
			expectErr: true,
			errTyp:    ErrMissingEnvVar,
		},
		"missing request token": {
			handler: func(t *testing.T) http.Handler { return http.NotFoundHandler() },
			env: func(url string) map[string]string {
				return map[string]string{IdTokenRequestUrlVar: url + "/token?api-version=2.0"}
			},
			expectErr: true,
			errTyp:    ErrMissingEnvVar,
		},
		"server error": {
			handler: func(t *testing.T) http.Handler {
				return TokenMockHandler(t, http.StatusInternalServerError, `oops`)
			},
			env: func(url string) map[string]string {
				return map[string]string{IdTokenRequestUrlVar: url + "/token?api-version=2.0", IdTokenRequestTokenVar: "runtime-token"}
			},
			expectErr: true,
			errTyp:    ErrIdToken,
		},
		"no value in body": {
			handler: func(t *testing.T) http.Handler {
				return TokenMockHandler(t, http.StatusOK, `{}`)
			},
			env: func(url string) map[string]string {
				return map[string]string{IdTokenRequestUrlVar: url + "/token?api-version=2.0", IdTokenRequestTokenVar: "runtime-token"}
			},
			expectErr: true,
			errTyp:    ErrIdToken,
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler(t))
			defer ts.Close()
			out := &bytes.Buffer{}
			tk := New(WithWriter(out), WithLookup(lookupFrom(tt.env(ts.URL))), WithHTTPClient(ts.Client()))

			got, err := tk.GetIDToken(context.TODO(), "sts.amazonaws.com")
			if tt.expectErr {
				if err == nil {
					t.Fatal("got <nil>, wanted error")
				}
				if !errors.Is(err, tt.errTyp) {
					t.Errorf("got %s, wanted %s", err, tt.errTyp)
				}
				return
			}
			if err != nil {
				t.Fatalf("got %s, wanted <nil>", err)
			}
			if got != tt.expect {
				t.Errorf("got %s, wanted %s", got, tt.expect)
			}
			if !strings.Contains(out.String(), "::add-mask::"+tt.expect) {
				t.Errorf("token was not masked, output %q", out.String())
			}
		})
	}
}
