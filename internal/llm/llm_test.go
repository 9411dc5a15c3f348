package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubProvider struct {
	err   error
	panic bool
}

func (s stubProvider) Generate(context.Context, []Message, Options) (string, error) {
	if s.panic {
		panic("boom")
	}
	return "pong", s.err
}
func (stubProvider) Describe() Info { return Info{Name: "stub"} }
func (s stubProvider) HealthCheck(ctx context.Context) bool { return Probe(ctx, s) }

func TestRegistry_BuildKnownAndUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("Stub", func(d Descriptor) (Provider, error) {
		if d.Model == "" {
			return nil, ErrMissingModel
		}
		return stubProvider{}, nil
	})

	p, err := r.Build(Descriptor{Name: "stub", Model: "m"})
	if err != nil || p == nil {
		t.Fatalf("Build(stub) = %v, %v", p, err)
	}
	if _, err := r.Build(Descriptor{Name: "nope"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("Build(nope) err = %v; want ErrUnknownProvider", err)
	}
	if _, err := r.Build(Descriptor{Name: "stub"}); !errors.Is(err, ErrMissingModel) {
		t.Fatalf("Build(no model) err = %v; want ErrMissingModel", err)
	}
	if got := r.Names(); len(got) != 1 || got[0] != "stub" {
		t.Fatalf("Names() = %v", got)
	}
}

func TestProbe_FoldsFailures(t *testing.T) {
	ctx := context.Background()
	if !(stubProvider{}).HealthCheck(ctx) {
		t.Fatalf("healthy stub reported unhealthy")
	}
	if (stubProvider{err: errors.New("down")}).HealthCheck(ctx) {
		t.Fatalf("failing stub reported healthy")
	}
	if (stubProvider{panic: true}).HealthCheck(ctx) {
		t.Fatalf("panicking stub reported healthy")
	}
}

func TestDecodeJSON(t *testing.T) {
	type out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	cases := []struct {
		name string
		in   string
		want out
		err  error
	}{
		{"bare", `{"intent":"expense","confidence":0.9}`, out{"expense", 0.9}, nil},
		{"fenced", "```json\n{\"intent\":\"reminder\",\"confidence\":0.7}\n```", out{"reminder", 0.7}, nil},
		{"prose around", `Sure! Here it is: {"intent":"summary","confidence":1} hope that helps {`, out{"summary", 1}, nil},
		{"skips broken first", `{oops} then {"intent":"general","confidence":0.2}`, out{"general", 0.2}, nil},
		{"nested braces in string", `{"intent":"greeting","confidence":0.5,"reasoning":"said {hi}"}`, out{"greeting", 0.5}, nil},
		{"none", `I cannot help with that`, out{}, ErrNoJSON},
		{"empty", ``, out{}, ErrNoJSON},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var got out
			err := DecodeJSON(c.in, &got)
			if !errors.Is(err, c.err) {
				t.Fatalf("err = %v; want %v", err, c.err)
			}
			if got != c.want {
				t.Fatalf("got %+v; want %+v", got, c.want)
			}
		})
	}
}

func TestNumber_Flexible(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	if err := DecodeJSON(`{"a":4.5,"b":"$1,200.75","c":null,"d":"lots"}`, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.A.Set || v.A.Float(0) != 4.5 {
		t.Fatalf("a = %+v", v.A)
	}
	if !v.B.Set || v.B.Raw != "1200.75" {
		t.Fatalf("b = %+v", v.B)
	}
	if v.C.Set || v.D.Set || v.E.Set {
		t.Fatalf("c/d/e should be unset: %+v %+v %+v", v.C, v.D, v.E)
	}
	if v.E.Float(0.8) != 0.8 {
		t.Fatalf("default not applied")
	}
}

func TestNumber_Separators(t *testing.T) {
	cases := []struct {
		in      string
		raw     string
		wantSet bool
	}{
		{`"4,50"`, "4.50", true},
		{`"R$ 4,50"`, "4.50", true},
		{`"1.234,56"`, "1234.56", true},
		{`"1,200"`, "1200", true},
		{`"$1,200.75"`, "1200.75", true},
		{`"1.234.567"`, "1234567", true},
		{`"-3,5"`, "-3.5", true},
		{`"4.50 EUR"`, "4.50", true},
		{`"1,2345"`, "", false},
		{`"12,34,5"`, "", false},
		{`"1.2.3"`, "", false},
		{`"1,234.5,6"`, "", false},
		{`"€"`, "", false},
	}
	for _, tc := range cases {
		var n Number
		if err := json.Unmarshal([]byte(tc.in), &n); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if n.Set != tc.wantSet || n.Raw != tc.raw {
			t.Errorf("%s: got Raw=%q Set=%v; want Raw=%q Set=%v", tc.in, n.Raw, n.Set, tc.raw, tc.wantSet)
		}
	}
}

func TestPostJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Key") != "k" {
			t.Errorf("missing header")
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out map[string]any
	err := PostJSON(context.Background(), srv.Client(), "test", srv.URL, map[string]string{"X-Key": "k"}, map[string]string{"a": "b"}, &out)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v; want StatusError 429", err)
	}
}

func TestOptionsMerge(t *testing.T) {
	got := Options{MaxTokens: 5}.Merge(Options{Temperature: 0.2, MaxTokens: 100})
	if got.Temperature != 0.2 || got.MaxTokens != 5 {
		t.Fatalf("Merge = %+v", got)
	}
}
