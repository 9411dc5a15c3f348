package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-assistant-backend/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

var testBuild = Build{Version: "v1.2.3", Instance: "host-a", Provider: "ollama"}

func TestSetup_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prevTP := otel.GetTracerProvider()

	cfg := enabled("svc", true)
	cfg.Enabled = false
	shutdown, err := Setup(context.Background(), cfg, testBuild)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup replaced the tracer provider")
	}
}

func TestSetup_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)

		shutdown, err := Setup(context.Background(), enabled("svc", insecure), testBuild)
		if err != nil {
			t.Fatalf("insecure=%v: unexpected err: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: expected *sdktrace.TracerProvider", insecure)
		}

		ctx, span := otel.Tracer("test").Start(context.Background(), "span")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("insecure=%v: traceparent not injected", insecure)
		}

		ct, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(ct)
		cancel()
	}
}

func TestSetup_CanceledContext_StillSucceeds(t *testing.T) {
	preserveOTelGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // exporter creation is lazy

	shutdown, err := Setup(ctx, enabled("svc-canceled", true), testBuild)
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetup_Failures_LeaveGlobalsIntact(t *testing.T) {
	cases := map[string]func(){
		"exporter": func() {
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func() {
			newServiceResourceFn = func(context.Context, string, Build) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			preserveOTelGlobals(t)
			origExp, origRes := newOTLPExporterFn, newServiceResourceFn
			t.Cleanup(func() { newOTLPExporterFn, newServiceResourceFn = origExp, origRes })
			breakIt()

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()
			if _, err := Setup(context.Background(), enabled("svc", true), testBuild); err == nil {
				t.Fatalf("expected error, got nil")
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestBuild_Attributes(t *testing.T) {
	got := map[string]string{}
	for _, kv := range testBuild.attributes("assistant") {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"service.name":        "assistant",
		"service.version":     "v1.2.3",
		"service.instance.id": "host-a",
		"llm.provider":        "ollama",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %q; want %q", k, got[k], v)
		}
	}

	if n := len(Build{Version: "v"}.attributes("s")); n != 2 {
		t.Fatalf("optional attributes should be omitted, got %d", n)
	}
}

func TestSampleRatio_Clamps(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 7: 1} {
		if got := sampleRatio(in); got != want {
			t.Fatalf("sampleRatio(%v) = %v; want %v", in, got, want)
		}
	}
}
