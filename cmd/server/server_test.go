package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Simplici0/costcalc/internal/calculator"
	"github.com/Simplici0/costcalc/internal/config"
	"github.com/Simplici0/costcalc/internal/db"
	"github.com/Simplici0/costcalc/internal/migrations"
	"github.com/Simplici0/costcalc/internal/qr"
	"github.com/Simplici0/costcalc/internal/seed"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		Port:              "0",
		LogLevel:          "error",
		LogFormat:         "json",
		DBPath:            ":memory:",
		SessionSecret:     "test-session-secret",
		PublicURL:         "https://clinic.example",
		Locale:            "en-IN",
		Currency:          "INR",
		QRMode:            qr.ModeLocal,
		QRSize:            qr.DefaultSize,
		QRCacheEntries:    4,
		PractitionerName:  calculator.DefaultPractitioner,
		RateLimitRate:     1000,
		RateLimitCapacity: 10000,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *server {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:       testAdminEmail,
		AdminPassword:    testAdminPassword,
		PractitionerName: cfg.PractitionerName,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv, err := newServer(cfg, zerolog.Nop(), database)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	srv.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return srv
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHomeRendersPlaceholdersWithoutInput(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`id="medicineOut">—<`,
		`id="prepPctOut">—<`,
		`id="totalOut">₹0.00<`,
		`src="/qr.png"`,
		`href="/qr.png?download=1"`,
		`download="dr-ayisha-page-qr.png"`,
		"2026",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page missing %q", want)
		}
	}
}

func TestHomeRendersBreakdownFromQuery(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/?medicine=500&fees=1000&prepPercent=10&transportPercent=5", nil)
	rec := do(t, srv.routes(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`id="prepOut">₹100.00<`,
		`id="transOut">₹50.00<`,
		`id="totalOut">₹1,650.00<`,
		`value="500"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page missing %q", want)
		}
	}
}

func TestHomeUsesServiceURLInRemoteMode(t *testing.T) {
	cfg := testConfig()
	cfg.QRMode = qr.ModeRemote
	srv := newTestServer(t, cfg)

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "chl=https%3A%2F%2Fclinic.example%2F") {
		t.Fatalf("expected remote qr image url in page, got %s", body)
	}
}

func TestCalculateJSON(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/calculate",
		strings.NewReader(`{"medicine":"500","fees":"1000","prepPercent":"10","transportPercent":"5"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, srv.routes(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res calculator.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Amounts.Total != 1650 {
		t.Fatalf("expected total 1650, got %v", res.Amounts.Total)
	}
	if res.Display.Total != "₹1,650.00" || res.Display.PreparationPercent != "10%" {
		t.Fatalf("unexpected display: %+v", res.Display)
	}
}

func TestCalculateFormBodyTreatsJunkAsZero(t *testing.T) {
	srv := newTestServer(t, testConfig())

	form := url.Values{"medicine": {"abc"}, "fees": {"200"}}
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, srv.routes(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res calculator.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Display.Medicine != calculator.Placeholder {
		t.Fatalf("expected placeholder medicine, got %q", res.Display.Medicine)
	}
	if res.Display.Preparation != "₹0.00" || res.Display.Total != "₹200.00" {
		t.Fatalf("unexpected display: %+v", res.Display)
	}
}

func TestCalculateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{"medicine":`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, srv.routes(), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"invalid_body"`) {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestSummaryText(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/summary?medicine=500&fees=1000&prepPercent=10&transportPercent=5", nil)
	rec := do(t, srv.routes(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	want := strings.Join([]string{
		"Dr. J Ayisha • Cost Summary",
		"Medicine: ₹500.00",
		"Fees: ₹1,000.00",
		"Preparation (10% of Fees): ₹100.00",
		"Transport & Packaging (5% of Fees): ₹50.00",
		"Total: ₹1,650.00",
	}, "\n")
	if got := rec.Body.String(); got != want {
		t.Fatalf("unexpected summary:\n%s\nwant:\n%s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestQRImageAndDownload(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.routes()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/qr.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Fatal("body is not a png")
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatal("inline image must not be an attachment")
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/qr.png?download=1", nil))
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=dr-ayisha-page-qr.png` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if srv.qrCache.Len() != 1 {
		t.Fatalf("expected one cached qr image, got %d", srv.qrCache.Len())
	}
}

func TestQRPrintPage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/qr/print", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>QR • Dr. J Ayisha</title>",
		"Scan to open: https://clinic.example/",
		"window.print()",
		"300",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("print page missing %q", want)
		}
	}
}

func TestQRPrintPDF(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/qr/print.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatal("body is not a pdf")
	}
}

func TestPageURLFallsBackToRequestHost(t *testing.T) {
	cfg := testConfig()
	cfg.PublicURL = ""
	srv := &server{cfg: cfg}

	req := httptest.NewRequest(http.MethodGet, "/?medicine=5", nil)
	req.Host = "calc.local:8080"
	if got := srv.pageURL(req); got != "http://calc.local:8080/" {
		t.Fatalf("unexpected page url %q", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https")
	if got := srv.pageURL(req); got != "http://calc.local:8080/" {
		t.Fatalf("forwarded proto honoured without a trusted proxy: %q", got)
	}

	srv.cfg.TrustProxy = true
	if got := srv.pageURL(req); got != "https://calc.local:8080/" {
		t.Fatalf("unexpected forwarded page url %q", got)
	}
}

func TestQRCacheStaysBoundedAcrossHosts(t *testing.T) {
	cfg := testConfig()
	cfg.PublicURL = ""
	srv := newTestServer(t, cfg)
	h := srv.routes()

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/qr.png", nil)
		req.Host = fmt.Sprintf("host-%d.example", i)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := do(t, h, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	if got := srv.qrCache.Len(); got != cfg.QRCacheEntries {
		t.Fatalf("expected cache bounded at %d entries, got %d", cfg.QRCacheEntries, got)
	}
}

func TestForwardedForIgnoredWithoutTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRate = 0.001
	cfg.RateLimitCapacity = 5
	srv := newTestServer(t, cfg)
	h := srv.routes()

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/qr.png", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		last = do(t, h, req).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("spoofed X-Forwarded-For escaped the limiter: status %d", last)
	}
}

func TestPageScriptDropsStaleCalculations(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	script := rec.Body.String()
	for _, want := range []string{"const seq = ++latest;", "seq !== latest"} {
		if !strings.Contains(script, want) {
			t.Fatalf("page script missing response ordering guard %q", want)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestAdminProfileRequiresLogin(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), httptest.NewRequest(http.MethodGet, "/admin/profile", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv.routes(), loginRequest(testAdminEmail, "nope"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password.") {
		t.Fatal("expected error message in login page")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a session cookie")
	}
}

func TestAdminUpdatesProfileUsedBySummary(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.routes()

	rec := do(t, h, loginRequest(testAdminEmail, testAdminPassword))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d", rec.Code)
	}
	session := sessionCookie(t, rec)
	if !session.Secure || !session.HttpOnly {
		t.Fatalf("session cookie must be Secure and HttpOnly outside dev: %+v", session)
	}

	form := url.Values{"practitioner_name": {"  Dr. R Kumar "}, "qr_filename": {"kumar-qr.png"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(session)
	rec = do(t, h, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/profile?saved=1" {
		t.Fatalf("expected redirect after save, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	firstLine, _, _ := strings.Cut(rec.Body.String(), "\n")
	if firstLine != "Dr. R Kumar • Cost Summary" {
		t.Fatalf("unexpected summary title %q", firstLine)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/qr.png?download=1", nil))
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=kumar-qr.png" {
		t.Fatalf("unexpected content disposition %q", got)
	}
}

func TestAdminRejectsInvalidProfile(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.routes()

	session := sessionCookie(t, do(t, h, loginRequest(testAdminEmail, testAdminPassword)))

	form := url.Values{"practitioner_name": {"Dr. X"}, "qr_filename": {"../qr.jpg"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(session)
	rec := do(t, h, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "QRFilename is invalid") {
		t.Fatalf("expected validation message, got %s", rec.Body.String())
	}
}

func TestSessionValueRejectsTamperingAndExpiry(t *testing.T) {
	auth := newAuthService(nil, "secret", true)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return now }

	value := auth.createSessionValue(testAdminEmail)
	if email, ok := auth.verifySessionValue(value); !ok || email != testAdminEmail {
		t.Fatalf("expected valid session, got %q %v", email, ok)
	}

	if _, ok := auth.verifySessionValue("x" + value); ok {
		t.Fatal("tampered session accepted")
	}
	if _, ok := newAuthService(nil, "other", true).verifySessionValue(value); ok {
		t.Fatal("session signed with another secret accepted")
	}

	now = now.Add(sessionTTL + time.Second)
	if _, ok := auth.verifySessionValue(value); ok {
		t.Fatal("expired session accepted")
	}
}

func loginRequest(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	body, _ := io.ReadAll(rec.Result().Body)
	t.Fatalf("no session cookie in response (%d): %s", rec.Code, body)
	return nil
}
