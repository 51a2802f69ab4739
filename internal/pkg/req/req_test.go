package req

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
)

func init() {
	logx.InitWriterLogger(io.Discard, zerolog.Disabled)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newJSONRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

func TestBindJSON_OK(t *testing.T) {
	var dst loginBody
	err := BindJSON(httptest.NewRecorder(), newJSONRequest(`{"email":"a@x.com","password":"secret1"}`), &dst)

	require.Nil(t, err)
	assert.Equal(t, "a@x.com", dst.Email)
	assert.Equal(t, "secret1", dst.Password)
}

func TestBindJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"email":`, errs.ErrInvalidJSONFormat},
		{"unknown field", `{"email":"a@x.com","admin":true}`, errs.ErrInvalidJSONFormat},
		{"trailing data", `{"email":"a@x.com"} {"email":"b@x.com"}`, errs.ErrExtraContentInBody},
		{"too large", `{"email":"` + strings.Repeat("a", int(MaxJSONBodySize)) + `"}`, errs.ErrRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst loginBody
			err := BindJSON(httptest.NewRecorder(), newJSONRequest(tt.body), &dst)
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestBindJSON_RequiresJSONContentType(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")

	var dst loginBody
	err := BindJSON(httptest.NewRecorder(), r, &dst)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrUnsupportedMediaType, err.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), tt.header)
	}
}
