package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/Simplici0/costcalc/internal/calculator"
	"github.com/Simplici0/costcalc/internal/metrics"
	"github.com/Simplici0/costcalc/internal/profile"
	"github.com/Simplici0/costcalc/internal/qr"
)

const maxInputBody = 16 << 10

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
	Year           int
	Profile        profile.Profile
}

type homeViewData struct {
	baseViewData
	Raw         calculator.RawInputs
	Display     calculator.Display
	QR          qr.Reference
	QRSize      int
	DownloadURL string
}

func (s *server) baseView(r *http.Request) baseViewData {
	return baseViewData{
		Year:    s.now().Year(),
		Profile: s.currentProfile(r),
	}
}

// currentProfile falls back to the default profile when the store fails, so
// the calculator keeps working without its database.
func (s *server) currentProfile(r *http.Request) profile.Profile {
	p, err := s.profiles.GetOrDefault(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load clinic profile")
		return profile.Default()
	}
	return p
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	raw := rawFromValues(r.URL.Query())
	res := calculator.Compute(raw, s.formatter)
	metrics.Calculations.Inc()

	ref := s.pageQR(r)
	downloadURL := "/qr.png?download=1"
	if s.cfg.QRMode == qr.ModeRemote {
		downloadURL = ref.ImageURL
	}

	s.renderTemplate(w, "home.html", homeViewData{
		baseViewData: s.baseView(r),
		Raw:          raw,
		Display:      res.Display,
		QR:           ref,
		QRSize:       s.cfg.QRSize,
		DownloadURL:  downloadURL,
	})
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	raw, err := readRawInputs(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res := calculator.Compute(raw, s.formatter)
	metrics.Calculations.Inc()
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	raw, err := readRawInputs(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	in := raw.Normalize()
	text := calculator.Summary(s.currentProfile(r).PractitionerName, in, calculator.Derive(in), s.formatter)
	metrics.Summaries.Inc()
	writeText(w, http.StatusOK, text)
}

func rawFromValues(v url.Values) calculator.RawInputs {
	return calculator.RawInputs{
		Medicine:           v.Get(calculator.FieldMedicine),
		Fees:               v.Get(calculator.FieldFees),
		PreparationPercent: v.Get(calculator.FieldPreparationPercent),
		TransportPercent:   v.Get(calculator.FieldTransportPercent),
	}
}

// readRawInputs accepts the four raw fields from the query string on GET, or
// from a JSON or form-encoded body otherwise.
func readRawInputs(w http.ResponseWriter, r *http.Request) (calculator.RawInputs, error) {
	if r.Method == http.MethodGet {
		return rawFromValues(r.URL.Query()), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxInputBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw calculator.RawInputs
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return calculator.RawInputs{}, fmt.Errorf("decode json body: %w", err)
		}
		return raw, nil
	}

	if err := r.ParseForm(); err != nil {
		return calculator.RawInputs{}, fmt.Errorf("parse form: %w", err)
	}
	return rawFromValues(r.Form), nil
}

// pageURL is the address the page QR code encodes. It never carries the query
// string, so entered values do not end up in printed codes.
func (s *server) pageURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL + "/"
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if s.cfg.TrustProxy {
		if proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return scheme + "://" + r.Host + "/"
}

func (s *server) pageQR(r *http.Request) qr.Reference {
	return qr.NewReference(s.cfg.QRMode, s.pageURL(r), "/qr.png", s.cfg.QRSize)
}
