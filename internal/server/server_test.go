package server

import (
	"bytes"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
)

// biasedModel returns a network with zero weights whose output biases make
// class always win.
func biasedModel(t *testing.T, inputs, outputs, class int) *net.MLP {
	t.Helper()
	m, err := net.New(inputs, outputs, []int{2}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	in, err := matrix.Zeros(2, inputs)
	require.NoError(t, err)
	hw, err := matrix.Zeros(outputs, 2)
	require.NoError(t, err)
	require.NoError(t, m.SetWeights(in, []*matrix.Matrix{hw}))

	ob := make([]float64, outputs)
	ob[class] = 5
	out, err := matrix.Column(ob)
	require.NoError(t, err)
	hb, err := matrix.Zeros(2, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetBiases(out, []*matrix.Matrix{hb}))
	return m
}

func newTestServer(t *testing.T, m *net.MLP) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	s, err := New(Config{
		Normalizer:   dataset.Normalizer{Divisor: dataset.PixelDivisor},
		MaxBodyBytes: 256,
		Logger:       log.New(&logs, "", 0),
	}, m)
	require.NoError(t, err)
	return s, &logs
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", h.Get("Access-Control-Allow-Headers"))
}

func TestPredict(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 2))

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("[0, 128, 255]"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Body.String())
	assertCORS(t, rec.Header())
}

// TestPredictNormalizesInput checks that the served class matches Classify on
// the normalized input rather than the raw one.
func TestPredictNormalizesInput(t *testing.T) {
	m, err := net.New(2, 3, []int{4}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	s, _ := newTestServer(t, m)

	raw := []float64{200, 30}
	norm, err := matrix.Column([]float64{200.0 / 255, 30.0 / 255})
	require.NoError(t, err)
	want, err := m.Classify(norm)
	require.NoError(t, err)

	body := "[" + strconv.FormatFloat(raw[0], 'g', -1, 64) + "," + strconv.FormatFloat(raw[1], 'g', -1, 64) + "]"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strconv.Itoa(want), rec.Body.String())
}

func TestPreflight(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 2))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/predict", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec.Header())
}

func TestPredictBadRequests(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 2))

	tests := []struct {
		name string
		body string
	}{
		{"malformed", "[1, 2"},
		{"not an array", `{"a": 1}`},
		{"strings", `["a", "b", "c"]`},
		{"too short", "[1, 2]"},
		{"too long", "[1, 2, 3, 4]"},
		{"trailing data", "[1, 2, 3] [4]"},
		{"null values", "[null, null, null]"},
		{"one null", "[1, null, 3]"},
		{"null body", "null"},
		{"oversized", "[" + strings.Repeat("1,", 300) + "1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assertCORS(t, rec.Header())
		})
	}
}

func TestPredictMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 2))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Allow"))
	assertCORS(t, rec.Header())
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 2))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok inputs=3 outputs=4\n", rec.Body.String())
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Normalizer: dataset.Normalizer{Divisor: 1}}, nil)
	assert.Error(t, err)

	_, err = New(Config{}, biasedModel(t, 3, 4, 2))
	assert.ErrorIs(t, err, dataset.ErrDivisor)
}

func TestSwap(t *testing.T) {
	first := biasedModel(t, 3, 4, 1)
	s, _ := newTestServer(t, first)

	prev, err := s.Swap(biasedModel(t, 3, 4, 3))
	require.NoError(t, err)
	assert.Same(t, first, prev)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("[1,2,3]")))
	assert.Equal(t, "3", rec.Body.String())

	_, err = s.Swap(biasedModel(t, 5, 4, 0))
	assert.ErrorIs(t, err, net.ErrArchitectureMismatch)
	_, err = s.Swap(nil)
	assert.Error(t, err)
}

// TestConcurrentPredictAndSwap serves requests while models are swapped.
func TestConcurrentPredictAndSwap(t *testing.T) {
	s, _ := newTestServer(t, biasedModel(t, 3, 4, 0))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	models := []*net.MLP{biasedModel(t, 3, 4, 0), biasedModel(t, 3, 4, 1)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader("[1,2,3]"))
				if !assert.NoError(t, err) {
					return
				}
				b, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, []string{"0", "1"}, string(b))
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_, err := s.Swap(models[j%2])
		require.NoError(t, err)
	}
	wg.Wait()
}
