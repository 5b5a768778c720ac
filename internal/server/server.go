// Package server exposes a trained perceptron over HTTP.
//
// POST /predict takes a JSON array of InputSize numbers and answers with the
// index of the class of maximum confidence as plain text. The model can be
// replaced while requests are in flight with Swap; every request reads one
// immutable model.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
)

// DefaultMaxBodyBytes bounds a request body when Config.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 1 << 20

// Config configures a Server.
type Config struct {
	// Normalizer is applied to every request before prediction. It must
	// match the one used for training.
	Normalizer   dataset.Normalizer
	MaxBodyBytes int64
	// Logger defaults to the standard logger.
	Logger *log.Logger
}

// Server serves predictions from the current model.
type Server struct {
	cfg   Config
	model atomic.Pointer[net.MLP]
}

// New returns a server for m. The server never mutates m.
func New(cfg Config, m *net.MLP) (*Server, error) {
	if m == nil {
		return nil, errors.New("server: nil model")
	}
	if err := cfg.Normalizer.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{cfg: cfg}
	s.model.Store(m)
	return s, nil
}

// Swap installs m as the model for subsequent requests and returns the
// previous one. The caller must not mutate m afterwards.
func (s *Server) Swap(m *net.MLP) (*net.MLP, error) {
	if m == nil {
		return nil, errors.New("server: nil model")
	}
	cur := s.model.Load()
	if m.InputSize() != cur.InputSize() {
		return nil, fmt.Errorf("%w: new model takes %d inputs, current takes %d",
			net.ErrArchitectureMismatch, m.InputSize(), cur.InputSize())
	}
	return s.model.Swap(m), nil
}

// Model returns the model currently served.
func (s *Server) Model() *net.MLP {
	return s.model.Load()
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m := s.model.Load()
	x, err := s.decode(w, r, m.InputSize())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	class, err := m.Classify(x)
	if err != nil {
		s.cfg.Logger.Printf("predict: %v", err)
		http.Error(w, "prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, strconv.Itoa(class))
}

// decode reads the request body as a normalized inputSize x 1 column.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, inputSize int) (*matrix.Matrix, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer body.Close()

	var raw []*float64
	dec := json.NewDecoder(body)
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON array: %v", err)
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON array")
	}
	if len(raw) != inputSize {
		return nil, fmt.Errorf("got %d values, want %d", len(raw), inputSize)
	}
	values := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("value %d is null", i)
		}
		values[i] = *v
	}

	x, err := matrix.Column(values)
	if err != nil {
		return nil, err
	}
	return s.cfg.Normalizer.Apply(x)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m := s.model.Load()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok inputs=%d outputs=%d\n", m.InputSize(), m.OutputSize())
}
