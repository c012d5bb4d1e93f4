package main

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/costcalc/internal/metrics"
	"github.com/Simplici0/costcalc/internal/qr"
)

// printDelayMillis gives the QR image time to load before the print dialog opens.
const printDelayMillis = 300

type printViewData struct {
	Title            string
	QR               qr.Reference
	QRSize           int
	Caption          string
	PrintDelayMillis int
}

func (s *server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	png, err := s.qrCache.PNG(s.pageURL(r))
	if err != nil {
		s.log.Error().Err(err).Msg("encode page qr")
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}
	metrics.QRRenders.WithLabelValues("png").Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if r.URL.Query().Get("download") == "1" {
		filename := s.currentProfile(r).QRFilename
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (s *server) handleQRPrint(w http.ResponseWriter, r *http.Request) {
	ref := s.pageQR(r)
	metrics.QRRenders.WithLabelValues("print").Inc()

	s.renderTemplate(w, "print.html", printViewData{
		Title:            s.currentProfile(r).PrintTitle(),
		QR:               ref,
		QRSize:           s.cfg.QRSize,
		Caption:          qr.Caption(ref.PageURL),
		PrintDelayMillis: printDelayMillis,
	})
}

func (s *server) handleQRPrintPDF(w http.ResponseWriter, r *http.Request) {
	pageURL := s.pageURL(r)
	png, err := s.qrCache.PNG(pageURL)
	if err != nil {
		s.log.Error().Err(err).Msg("encode page qr")
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	p := s.currentProfile(r)
	var buf bytes.Buffer
	if err := qr.WritePDF(&buf, png, p.PrintTitle(), pageURL); err != nil {
		s.log.Error().Err(err).Msg("render qr pdf")
		http.Error(w, "failed to render qr pdf", http.StatusInternalServerError)
		return
	}
	metrics.QRRenders.WithLabelValues("pdf").Inc()

	filename := strings.TrimSuffix(p.QRFilename, ".png") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
