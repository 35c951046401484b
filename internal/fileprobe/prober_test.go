package fileprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(2 * time.Second)
	ctx := context.Background()

	assert.NoError(t, p.Probe(ctx, srv.URL+"/ok"))
	assert.Error(t, p.Probe(ctx, srv.URL+"/gone"))
	assert.Error(t, p.Probe(ctx, srv.URL+"/error"))
}

func TestProbe_ConnectionRefused(t *testing.T) {
	p := NewHTTPProber(time.Second)
	assert.Error(t, p.Probe(context.Background(), "http://127.0.0.1:1/x"))
}

func TestProbe_MethodIsHead(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer srv.Close()

	p := NewHTTPProber(time.Second)
	assert.NoError(t, p.Probe(context.Background(), srv.URL))
	assert.Equal(t, http.MethodHead, method)
}
