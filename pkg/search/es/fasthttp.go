package es

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const defaultRequestTimeout = 10 * time.Second

// Transport is an http.RoundTripper for the ES client backed by a pooled
// fasthttp client. Result documents are small, so request bodies are
// buffered rather than streamed.
type Transport struct {
	Client  *fasthttp.Client
	Timeout time.Duration
}

func NewTransport(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Transport{
		Client: &fasthttp.Client{
			Name:                     "combinerbench",
			MaxIdleConnDuration:      30 * time.Second,
			NoDefaultUserAgentHeader: true,
		},
		Timeout: timeout,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	freq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(freq)

	fres := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(fres)

	if err := toFastRequest(freq, req); err != nil {
		return nil, err
	}

	timeout := t.Timeout
	if deadline, ok := req.Context().Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, errors.Errorf("deadline passed before sending %s %s", req.Method, req.URL.Path)
	}

	if err := t.Client.DoTimeout(freq, fres, timeout); err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}

	return fromFastResponse(req, fres), nil
}

// toFastRequest fills dst from src, consuming its body but leaving its
// method as is. fasthttp drops
// bodies on GET, so a GET with a body (ES search) is sent as POST.
func toFastRequest(dst *fasthttp.Request, src *http.Request) error {
	method := src.Method
	if src.Body != nil && src.Body != http.NoBody {
		body, err := io.ReadAll(src.Body)
		src.Body.Close()
		if err != nil {
			return errors.Wrap(err, "reading request body")
		}
		dst.SetBody(body)
		if method == http.MethodGet {
			method = http.MethodPost
		}
	}

	dst.Header.SetMethod(method)
	dst.SetRequestURI(src.URL.String())
	if src.Host != "" {
		dst.SetHost(src.Host)
	}

	for k, vv := range src.Header {
		for i, v := range vv {
			if i == 0 {
				dst.Header.Set(k, v)
			} else {
				dst.Header.Add(k, v)
			}
		}
	}

	return nil
}

// fromFastResponse copies src since it goes back to the pool on return.
func fromFastResponse(req *http.Request, src *fasthttp.Response) *http.Response {
	body := append([]byte(nil), src.Body()...)

	res := &http.Response{
		Status:        http.StatusText(src.StatusCode()),
		StatusCode:    src.StatusCode(),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(bytes.NewReader(body)),
		Request:       req,
	}

	src.Header.VisitAll(func(k, v []byte) {
		res.Header.Add(string(k), string(v))
	})

	return res
}

// RequestLogger logs method, path, status and latency of the first Limit
// requests at debug level, or of every request when Limit is 0.
type RequestLogger struct {
	seen   int64 // first for 64-bit atomic alignment
	Next   http.RoundTripper
	Logger zerolog.Logger
	Limit  int64
}

func NewRequestLogger(next http.RoundTripper, limit int64) *RequestLogger {
	return &RequestLogger{Next: next, Logger: log.Logger, Limit: limit}
}

func (l *RequestLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	n := atomic.AddInt64(&l.seen, 1)
	if l.Limit > 0 && n > l.Limit {
		return l.Next.RoundTrip(req)
	}

	timer := time.Now()
	res, err := l.Next.RoundTrip(req)

	ev := l.Logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Dur("took", time.Since(timer)).
		Int64("request", n)
	if err != nil {
		ev.Err(err).Msg("ES request failed")
		return nil, err
	}
	ev.Int("status", res.StatusCode).Msg("ES request")

	return res, nil
}

// Seen is the number of requests sent through l so far.
func (l *RequestLogger) Seen() int64 {
	return atomic.LoadInt64(&l.seen)
}

func newRoundTripper(verbose bool) http.RoundTripper {
	t := NewTransport(0)
	if !verbose {
		return t
	}
	return NewRequestLogger(t, 2)
}
