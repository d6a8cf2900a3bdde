package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientDoSendsHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %s", got)
		}
		if got := r.Header.Get("User-Agent"); got != "restcall-test" {
			t.Errorf("User-Agent = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"a":1}` {
			t.Errorf("unexpected body %q", raw)
		}
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := NewRestyClientWithOptions(Options{Timeout: 2 * time.Second, UserAgent: "restcall-test"})
	resp, err := client.Do(context.Background(), &Request{
		Method:  http.MethodPatch,
		URL:     srv.URL + "/things/1",
		Headers: map[string]string{"X-Test": "1", "Content-Type": "application/json"},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if string(resp.Body()) != "ok" {
		t.Fatalf("body = %q", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "yes" {
		t.Fatalf("missing response header")
	}
}

func TestRestyClientSendsGetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if r.Method != http.MethodGet || string(raw) != `{"q":"chips"}` {
			t.Errorf("unexpected %s body %q", r.Method, raw)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewRestyClient(2*time.Second).Do(context.Background(), &Request{
		Method:  http.MethodGet,
		URL:     srv.URL + "/search",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{"q":"chips"}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestRestyClientReturnsResponseOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}

func TestRestyClientRaiseForStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewRestyClientWithOptions(Options{Timeout: time.Second, RaiseForStatus: true})
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", statusErr.Code)
	}
	if string(statusErr.Body) != "nope\n" {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestRestyClientHonoursContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewRestyClient(5*time.Second).Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
	if err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Code: 418}
	if err.Error() != "unexpected response status 418 I'm a teapot" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
