package client_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/fluenthttp/client"
	"github.com/adamwoolhether/fluenthttp/client/kv"
	"github.com/adamwoolhether/fluenthttp/client/multipart"
)

func TestBuilder_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*client.Builder) *client.Builder
		expErr error
	}{
		{
			name:   "blank uri",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("  ") },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "unparsable uri",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://[::1") },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "query before uri",
			build:  func(b *client.Builder) *client.Builder { return b.AddQueryParameter("a", "1") },
			expErr: client.ErrInvalidState,
		},
		{
			name:   "nil query source",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").AddQueryParameters(nil) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "non object query source",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").AddQueryParameters([]int{1}) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "blank header key",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").SetHeader("", "v") },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "blank method",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").SetMethod("") },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "method with space",
			build:  func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").SetMethod("GET ME") },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "nil json body",
			build:  func(b *client.Builder) *client.Builder { return b.Post("http://x.test").SetJSONBody(nil) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "unencodable json body",
			build:  func(b *client.Builder) *client.Builder { return b.Post("http://x.test").SetJSONBody(make(chan int)) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "nil form body",
			build:  func(b *client.Builder) *client.Builder { return b.Post("http://x.test").SetFormURLEncodedBody(nil) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "nil multipart configuration",
			build:  func(b *client.Builder) *client.Builder { return b.Post("http://x.test").SetMultipartBody(nil) },
			expErr: client.ErrInvalidArgument,
		},
		{
			name: "multipart part error",
			build: func(b *client.Builder) *client.Builder {
				return b.Post("http://x.test").SetMultipartBody(func(mb *multipart.Builder) {
					mb.AddText("", "v")
				})
			},
			expErr: client.ErrInvalidArgument,
		},
		{
			name:   "no uri at build",
			build:  func(b *client.Builder) *client.Builder { return b.SetHeader("a", "b") },
			expErr: client.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(client.NewBuilder(nil))

			if _, err := b.Build(); !errors.Is(err, tt.expErr) {
				t.Errorf("Build: expected %v, got %v", tt.expErr, err)
			}
		})
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	b := client.NewBuilder(nil).
		AddQueryParameter("a", "1").
		SetURI("").
		SetHeader("", "x")

	if !errors.Is(b.Err(), client.ErrInvalidState) {
		t.Fatalf("expected first error to be ErrInvalidState, got %v", b.Err())
	}

	// Later valid calls do not clear it.
	b.SetURI("http://x.test")
	if b.Err() == nil {
		t.Fatal("expected sticky error")
	}

	b.Reset()
	if err := b.Err(); err != nil {
		t.Fatalf("expected reset to clear error, got %v", err)
	}
}

func TestBuilder_ConfigurationErrorDispatchesNothing(t *testing.T) {
	var hits atomic.Int32
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	b := client.NewBuilder(nil).Get(ts.URL).SetHeader(" ", "v")

	res, err := b.SendString(t.Context())
	if !errors.Is(err, client.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no dispatch, got %d hits", n)
	}

	// The builder was reset by the send.
	if err := b.Err(); err != nil {
		t.Errorf("expected builder reset after send, got %v", err)
	}
}

func TestBuilder_QueryParameters(t *testing.T) {
	type search struct {
		Query  string   `json:"q"`
		Page   int      `json:"page"`
		Tags   []string `json:"tag"`
		Filter *string  `json:"filter"`
	}

	tests := []struct {
		name string
		src  any
		want string
	}{
		{
			name: "struct in field order",
			src:  search{Query: "a b&c", Page: 2, Tags: []string{"x", "y"}},
			want: "q=a+b%26c&page=2&tag=x&tag=y",
		},
		{
			name: "map sorted",
			src:  map[string]string{"z": "1", "a": "2"},
			want: "a=2&z=1",
		},
		{
			name: "map with nil dropped",
			src:  map[string]any{"keep": "v", "drop": nil},
			want: "keep=v",
		},
		{
			name: "pairs",
			src:  kv.Pairs{{Key: "b", Value: "1"}, {Key: "a", Value: "2"}},
			want: "b=1&a=2",
		},
		{
			name: "url values",
			src:  url.Values{"k": {"v1", "v2"}},
			want: "k=v1&k=v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := client.NewBuilder(nil).
				SetURI("http://x.test/search?fixed=1").
				AddQueryParameters(tt.src).
				Build()
			if err != nil {
				t.Fatal(err)
			}

			want := "fixed=1&" + tt.want
			if req.URL.RawQuery != want {
				t.Errorf("expected query %q, got %q", want, req.URL.RawQuery)
			}
		})
	}
}

func TestBuilder_QueryRoundTrip(t *testing.T) {
	params := map[string]string{
		"name":  "John Doe",
		"q&a":   "a=b/c?",
		"emoji": "🙂",
	}

	req, err := client.NewBuilder(nil).SetURI("http://x.test").AddQueryParameters(params).Build()
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]string)
	for k, v := range req.URL.Query() {
		got[k] = v[0]
	}

	if diff := cmp.Diff(params, got); diff != "" {
		t.Errorf("query round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_SetURIDiscardsQuery(t *testing.T) {
	req, err := client.NewBuilder(nil).
		SetURI("http://x.test/a").
		AddQueryParameter("old", "1").
		SetURI("http://x.test/b").
		AddQueryParameter("new", "2").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if got := req.URL.String(); got != "http://x.test/b?new=2" {
		t.Errorf("unexpected url %q", got)
	}
}

func TestBuilder_HeadersLastWriteWins(t *testing.T) {
	req, err := client.NewBuilder(nil).
		Get("http://x.test").
		SetHeader("X-Trace", "one").
		SetHeader("x-trace", "two").
		SetHeaders(map[string]string{"Accept": "text/plain"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	want := http.Header{
		"X-Trace": {"two"},
		"Accept":  {"text/plain"},
	}
	if diff := cmp.Diff(want, req.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Methods(t *testing.T) {
	tests := []struct {
		name  string
		build func(*client.Builder) *client.Builder
		want  string
	}{
		{name: "default", build: func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test") }, want: http.MethodGet},
		{name: "post", build: func(b *client.Builder) *client.Builder { return b.Post("http://x.test") }, want: http.MethodPost},
		{name: "put", build: func(b *client.Builder) *client.Builder { return b.Put("http://x.test") }, want: http.MethodPut},
		{name: "patch", build: func(b *client.Builder) *client.Builder { return b.Patch("http://x.test") }, want: http.MethodPatch},
		{name: "delete", build: func(b *client.Builder) *client.Builder { return b.Delete("http://x.test") }, want: http.MethodDelete},
		{name: "head", build: func(b *client.Builder) *client.Builder { return b.Head("http://x.test") }, want: http.MethodHead},
		{name: "options", build: func(b *client.Builder) *client.Builder { return b.Options("http://x.test") }, want: http.MethodOptions},
		{name: "custom", build: func(b *client.Builder) *client.Builder { return b.SetURI("http://x.test").SetMethod("PURGE") }, want: "PURGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build(client.NewBuilder(nil)).Build()
			if err != nil {
				t.Fatal(err)
			}
			if req.Method != tt.want {
				t.Errorf("expected %s, got %s", tt.want, req.Method)
			}
		})
	}
}

func TestBuilder_HeaderSplit(t *testing.T) {
	t.Run("with body", func(t *testing.T) {
		req, err := client.NewBuilder(nil).
			Post("http://x.test").
			SetJSONBody(map[string]int{"n": 1}).
			SetHeader("Content-Language", "en").
			SetHeader("X-Content-Type-Options", "nosniff").
			SetHeader("Authorization", "Bearer t").
			Build()
		if err != nil {
			t.Fatal(err)
		}

		wantEnvelope := http.Header{
			"X-Content-Type-Options": {"nosniff"},
			"Authorization":          {"Bearer t"},
		}
		if diff := cmp.Diff(wantEnvelope, req.Header); diff != "" {
			t.Errorf("envelope mismatch (-want +got):\n%s", diff)
		}

		wantContent := http.Header{
			"Content-Type":     {client.ContentTypeJSON},
			"Content-Length":   {"7"},
			"Content-Language": {"en"},
		}
		if diff := cmp.Diff(wantContent, req.Body.Header); diff != "" {
			t.Errorf("content mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("without body", func(t *testing.T) {
		req, err := client.NewBuilder(nil).
			Get("http://x.test").
			SetHeader("Content-Type", "text/plain").
			Build()
		if err != nil {
			t.Fatal(err)
		}

		if req.Body != nil {
			t.Fatal("expected no body")
		}
		if got := req.Header.Get("Content-Type"); got != "text/plain" {
			t.Errorf("expected content header on envelope, got %q", got)
		}
	})
}

func TestBuilder_BuildIsIdempotent(t *testing.T) {
	b := client.NewBuilder(nil).
		Put("http://x.test/items/1").
		AddQueryParameter("v", "2").
		SetHeader("X-A", "1").
		SetFormURLEncodedBody(map[string]string{"name": "n"})

	first, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatal("expected distinct descriptors")
	}
	if !first.Equal(second) {
		t.Error("expected equal descriptors")
	}

	// Mutating one descriptor leaves the other and the builder untouched.
	first.Header.Set("X-A", "changed")
	if first.Equal(second) {
		t.Error("expected descriptors to diverge after mutation")
	}

	third, _ := b.Build()
	if !third.Equal(second) {
		t.Error("builder state leaked through a descriptor")
	}
}

func TestBuilder_Bodies(t *testing.T) {
	type echo struct {
		ContentType string
		Body        string
	}

	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echo{ContentType: r.Header.Get("Content-Type"), Body: string(data)})
	})

	tests := []struct {
		name     string
		build    func(*client.Builder) *client.Builder
		wantType string
		wantBody string
	}{
		{
			name:     "json",
			build:    func(b *client.Builder) *client.Builder { return b.SetJSONBody(map[string]string{"a": "b"}) },
			wantType: client.ContentTypeJSON,
			wantBody: `{"a":"b"}`,
		},
		{
			name: "form",
			build: func(b *client.Builder) *client.Builder {
				return b.SetFormURLEncodedBody(struct {
					Name string `json:"name"`
					Age  int    `json:"age"`
				}{Name: "Jo Jo", Age: 3})
			},
			wantType: client.ContentTypeForm,
			wantBody: "name=Jo+Jo&age=3",
		},
		{
			name: "raw",
			build: func(b *client.Builder) *client.Builder {
				return b.SetRawContent(client.NewContent([]byte("plain"), "text/plain"))
			},
			wantType: "text/plain",
			wantBody: "plain",
		},
		{
			name: "stream",
			build: func(b *client.Builder) *client.Builder {
				return b.SetRawContent(client.NewStreamContent(strings.NewReader("streamed"), "text/plain"))
			},
			wantType: "text/plain",
			wantBody: "streamed",
		},
		{
			name: "last setter wins",
			build: func(b *client.Builder) *client.Builder {
				return b.SetJSONBody(1).SetRawContent(client.NewContent([]byte("last"), "text/plain"))
			},
			wantType: "text/plain",
			wantBody: "last",
		},
		{
			name: "explicit content type override",
			build: func(b *client.Builder) *client.Builder {
				return b.SetJSONBody([]int{1}).SetHeader("Content-Type", "application/vnd.api+json")
			},
			wantType: "application/vnd.api+json",
			wantBody: "[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := client.SendAs[echo](t.Context(), tt.build(client.NewBuilder(nil).Post(ts.URL)))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsSuccess() {
				t.Fatalf("expected success, got %s", res.Message)
			}

			want := echo{ContentType: tt.wantType, Body: tt.wantBody}
			if diff := cmp.Diff(want, res.Value); diff != "" {
				t.Errorf("echo mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilder_MultipartBody(t *testing.T) {
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f, fh, err := r.FormFile("upload")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)

		io.WriteString(w, r.FormValue("title")+"|"+fh.Filename+"|"+string(data))
	})

	res, err := client.NewBuilder(nil).
		Post(ts.URL).
		SetMultipartBody(func(mb *multipart.Builder) {
			mb.AddText("title", "report")
			mb.AddBytes("upload", "r.txt", []byte("contents"), "text/plain")
		}).
		SendString(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsSuccess() {
		t.Fatalf("expected success, got %s", res.Message)
	}
	if res.Value != "report|r.txt|contents" {
		t.Errorf("unexpected echo %q", res.Value)
	}
}

func TestBuilder_ResetAfterSend(t *testing.T) {
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Method+" "+r.Header.Get("X-Once"))
	})

	b := client.NewBuilder(nil)

	res, err := b.Post(ts.URL).SetHeader("X-Once", "yes").SendString(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "POST yes" {
		t.Errorf("unexpected first echo %q", res.Value)
	}

	if _, err := b.Build(); !errors.Is(err, client.ErrInvalidState) {
		t.Fatalf("expected builder reset to no uri, got %v", err)
	}

	res, err = b.SetURI(ts.URL).SendString(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "GET " {
		t.Errorf("expected defaults after reset, got %q", res.Value)
	}
}

func TestBuilder_ZeroValue(t *testing.T) {
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Method+" "+r.Header.Get("X-A"))
	})

	var b client.Builder
	if err := b.Err(); err != nil {
		t.Fatalf("expected no error on zero value, got %v", err)
	}

	res, err := b.SetHeader("X-A", "1").Put(ts.URL).SendString(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "PUT 1" {
		t.Errorf("expected %q, got %q", "PUT 1", res.Value)
	}

	var unset client.Builder
	if _, err := unset.SetURI("relative/path").Build(); err != nil {
		t.Errorf("expected relative uri without base url to build, got %v", err)
	}
	if _, err := new(client.Builder).Build(); !errors.Is(err, client.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState without uri, got %v", err)
	}
}
