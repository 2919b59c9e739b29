package validate

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
)

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=medical_staff resident"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" msg:"Valid email is required"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type stockInput struct {
	StockLevel *int `json:"stockLevel" validate:"required,gte=0"`
}

func details(t *testing.T, err error) []string {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	return ae.Details
}

func TestStruct_Valid(t *testing.T) {
	in := registerInput{Email: "resident@medical.com", Password: "resident123", Name: "Resident"}
	if err := Struct(in); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStruct_CollectsEveryField(t *testing.T) {
	err := Struct(registerInput{Email: "nope", Password: "123", Role: "admin"})
	got := details(t, err)
	want := []string{
		"email must be a valid email address",
		"password must be at least 6 characters",
		"name is required",
		"role must be one of: medical_staff, resident",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d details, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("detail %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestStruct_MessageOverride(t *testing.T) {
	got := details(t, Struct(&loginInput{Email: "x"}))
	if len(got) != 2 || got[0] != "Valid email is required" || got[1] != "Password is required" {
		t.Errorf("unexpected details %v", got)
	}
}

func TestStruct_NegativeStock(t *testing.T) {
	n := -1
	got := details(t, Struct(stockInput{StockLevel: &n}))
	if got[0] != "stockLevel must be greater than or equal to 0" {
		t.Errorf("unexpected detail %q", got[0])
	}
	got = details(t, Struct(stockInput{}))
	if got[0] != "stockLevel is required" {
		t.Errorf("unexpected detail %q", got[0])
	}
}

func TestBind_MalformedJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var in registerInput
	if err := Bind(c, &in); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// cappedBody yields prefix and then fails the way the body limit does.
type cappedBody struct{ r io.Reader }

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	return n, err
}

func TestDecode_BodyTooLarge(t *testing.T) {
	cases := []struct {
		name, contentType, prefix string
	}{
		{"json", echo.MIMEApplicationJSON, `{"email":"a@b.c","name":"`},
		{"multipart", "multipart/form-data; boundary=xyz", "--xyz\r\nContent-Disposition: form-data; name=\"attachment\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\n\x89PNG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/complaints", nil)
			req.Body = io.NopCloser(&cappedBody{r: strings.NewReader(tc.prefix)})
			req.ContentLength = -1
			req.Header.Set(echo.HeaderContentType, tc.contentType)
			c := e.NewContext(req, httptest.NewRecorder())

			var in registerInput
			err := Decode(c, &in)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413, got %v", err)
			}
			if he.Message != "File too large" {
				t.Errorf("unexpected message %v", he.Message)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Broken AC unit  ", "Broken AC unit"},
		{"<script>alert(1)</script>Leaking tap", "Leaking tap"},
		{"<b>Bold</b> & plain", "Bold & plain"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;x", "x"},
		{"&amp;lt;img src=x onerror=alert(1)&amp;gt;Door", "Door"},
		{"5 &lt; 7 rooms", "5 < 7 rooms"},
		{"line1\nline2\x00\x07", "line1\nline2"},
		{"Émergence — café", "Émergence — café"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanOptional(t *testing.T) {
	if CleanOptional(nil) != nil {
		t.Error("expected nil for nil input")
	}
	blank := "  <i></i> "
	if CleanOptional(&blank) != nil {
		t.Error("expected nil for blank input")
	}
	s := " Ward 3 "
	if got := CleanOptional(&s); got == nil || *got != "Ward 3" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestParamUUID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if _, err := ParamUUID(c, "id"); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	c.SetParamValues("6f1c2f43-9d7e-4a53-9d52-7d3c5b0c1a10")
	id, err := ParamUUID(c, "id")
	if err != nil || id.String() != "6f1c2f43-9d7e-4a53-9d52-7d3c5b0c1a10" {
		t.Errorf("unexpected result %v, %v", id, err)
	}
}
