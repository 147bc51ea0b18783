// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// ── withTraceID ──────────────────────────────────────────────────────────────

func TestWithTraceID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "incoming id is reused", incoming: "my-trace", wantSame: true},
		{name: "missing id is generated"},
		{name: "oversized id is replaced", incoming: strings.Repeat("x", maxTraceIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestRouter(t)

			var buf bytes.Buffer
			h.logger = &logger.Logger{Logger: zerolog.New(&buf)}

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.FromRequest(r).Info().Msg("inside")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(traceIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.withTraceID(next).ServeHTTP(rec, req)

			got := rec.Header().Get(traceIDHeader)
			if tt.wantSame {
				assert.Equal(t, tt.incoming, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, got, line["trace_id"])
		})
	}
}

// ── withLogging ──────────────────────────────────────────────────────────────

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"implicit ok", 0, "hello", "info"},
		{"client error", http.StatusBadRequest, "bad", "info"},
		{"server error", http.StatusBadGateway, "", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zerolog.New(&buf)

			h := &Handler{logger: logger.Nop()}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body))
			})

			req := httptest.NewRequest(http.MethodPost, "/api/actions/batch", nil)
			req.Header.Set(utils.DeviceIDHeader, testDevice)
			req = req.WithContext(log.WithContext(req.Context()))
			h.withLogging(next).ServeHTTP(httptest.NewRecorder(), req)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

			wantStatus := tt.status
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, float64(wantStatus), line["status"])
			assert.Equal(t, float64(len(tt.body)), line["size"])
			assert.Equal(t, http.MethodPost, line["method"])
			assert.Equal(t, testDevice, line["device_id"])
		})
	}
}

func TestResponseWriter_WriteHeaderOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusTeapot)
	n, err := w.Write([]byte("abc"))

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, http.StatusAccepted, w.status)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 3, w.size)
	assert.Same(t, rec, w.Unwrap())
}

// ── withGZip ─────────────────────────────────────────────────────────────────

func TestWithGZip(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	gzipped := func(s string) []byte {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte(s))
		zw.Close()
		return buf.Bytes()
	}

	tests := []struct {
		name            string
		body            []byte
		contentEncoding string
		acceptEncoding  string
		wantStatus      int
		wantGzip        bool
	}{
		{name: "plain in plain out", body: []byte("payload"), wantStatus: http.StatusOK},
		{name: "plain in gzip out", body: []byte("payload"), acceptEncoding: "deflate, gzip", wantStatus: http.StatusOK, wantGzip: true},
		{name: "gzip in plain out", body: gzipped("payload"), contentEncoding: "gzip", wantStatus: http.StatusOK},
		{name: "gzip in gzip out", body: gzipped("payload"), contentEncoding: "gzip", acceptEncoding: "gzip", wantStatus: http.StatusOK, wantGzip: true},
		{name: "broken gzip body", body: []byte("not gzip"), contentEncoding: "gzip", wantStatus: http.StatusBadRequest},
	}

	h := &Handler{logger: logger.Nop()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(tt.body))
			if tt.contentEncoding != "" {
				req.Header.Set("Content-Encoding", tt.contentEncoding)
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			rec := httptest.NewRecorder()
			h.withGZip(echo).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			body := rec.Body.Bytes()
			if tt.wantGzip {
				assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
				zr, err := gzip.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(zr)
				require.NoError(t, err)
			} else {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
			}
			assert.Equal(t, "payload", string(body))
		})
	}
}

// ── body limit ───────────────────────────────────────────────────────────────

func TestBodyLimit_BatchHashing(t *testing.T) {
	gzipped := func(b []byte) []byte {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write(b)
		zw.Close()
		return buf.Bytes()
	}
	oversized := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	items := []byte(`[1]`)
	valid := []byte(`{"items":[1],"hash":"` + hex.EncodeToString(utils.Hash(items)) + `"}`)

	tests := []struct {
		name            string
		body            []byte
		contentEncoding string
		wantStatus      int
		wantCalled      bool
	}{
		{name: "batch within limit", body: valid, wantStatus: http.StatusOK, wantCalled: true},
		{name: "oversized body", body: oversized, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "small gzip inflating past limit", body: gzipped(oversized), contentEncoding: "gzip", wantStatus: http.StatusRequestEntityTooLarge},
	}

	h := &Handler{logger: logger.Nop()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodPost, "/api/actions/batch", bytes.NewReader(tt.body))
			if tt.contentEncoding != "" {
				req.Header.Set("Content-Encoding", tt.contentEncoding)
			}
			rec := httptest.NewRecorder()
			h.withGZip(middleware.RequestSize(maxBodyBytes)(h.batchHashing(next))).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestBodyLimit_CapsHandlerReads(t *testing.T) {
	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(bytes.Repeat([]byte("x"), maxBodyBytes+1)))
	middleware.RequestSize(maxBodyBytes)(next).ServeHTTP(httptest.NewRecorder(), req)

	require.Error(t, readErr)
	assert.True(t, isBodyTooLarge(readErr))
}

// ── withDevice ───────────────────────────────────────────────────────────────

func TestWithDevice(t *testing.T) {
	tests := []struct {
		name       string
		deviceID   string
		wantStatus int
		wantCalled bool
	}{
		{"registered device", testDevice, http.StatusOK, true},
		{"unregistered device is let through", "ghost", http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, h := newTestRouter(t)

			var seen string
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen, _ = utils.GetDeviceIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.deviceID != "" {
				req.Header.Set(utils.DeviceIDHeader, tt.deviceID)
			}
			rec := httptest.NewRecorder()
			h.withDevice(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, tt.deviceID, seen)
				assert.Equal(t, []string{tt.deviceID}, ts.registry.touched)
			}
		})
	}
}

// ── errors ───────────────────────────────────────────────────────────────────

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", service.ErrInvalidDataProvided), http.StatusBadRequest},
		{service.ErrDeviceMismatch, http.StatusForbidden},
		{ErrIntegrityCheckFailed, http.StatusBadRequest},
		{ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		{ErrEmptyDeviceIDHeader, http.StatusUnauthorized},
		{errDeviceNotFound("x"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}
