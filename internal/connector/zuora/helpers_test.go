package zuora

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
)

// =============================================================================
// FAKE ZUORA
// Serves canned describe payloads and records probe submissions.
// =============================================================================

type fakeField struct {
	name     string
	typ      string
	required string
	contexts []string
}

func field(name, typ string, required bool, contexts ...string) fakeField {
	return fakeField{name: name, typ: typ, required: fmt.Sprint(required), contexts: contexts}
}

func (f fakeField) xml() string {
	var b strings.Builder
	b.WriteString("<field>")
	fmt.Fprintf(&b, "<name>%s</name><label>%s</label>", f.name, f.name)
	fmt.Fprintf(&b, "<type>%s</type>", f.typ)
	fmt.Fprintf(&b, "<required>%s</required>", f.required)
	b.WriteString("<contexts>")
	for _, c := range f.contexts {
		fmt.Fprintf(&b, "<context>%s</context>", c)
	}
	b.WriteString("</contexts></field>")
	return b.String()
}

type fakeZuora struct {
	t       *testing.T
	order   []string
	objects map[string]string

	mu     sync.Mutex
	probes []string
	// exportSuccess answers REST export probes; missing streams fail.
	exportSuccess map[string]bool
	// aqua answers AQuA probes: "deleted", "plain" or "none".
	aqua map[string]string
}

func newFakeZuora(t *testing.T) *fakeZuora {
	return &fakeZuora{
		t:             t,
		objects:       make(map[string]string),
		exportSuccess: make(map[string]bool),
		aqua:          make(map[string]string),
	}
}

func (z *fakeZuora) addStream(name string, fields ...fakeField) {
	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"UTF-8\"?><object><name>%s</name><label>%s</label><fields>", name, name)
	for _, f := range fields {
		b.WriteString(f.xml())
	}
	b.WriteString("</fields><related-objects/></object>")
	z.order = append(z.order, name)
	z.objects[name] = b.String()
}

func (z *fakeZuora) describeAll() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><objects>`)
	for _, name := range z.order {
		fmt.Fprintf(&b, `<object href="https://rest.zuora.com/v1/describe/%s"><name>%s</name><label>%s</label></object>`, name, name, name)
	}
	b.WriteString("</objects>")
	return b.String()
}

func (z *fakeZuora) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == describePath:
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, z.describeAll())
	case strings.HasPrefix(path, describePath+"/"):
		name := strings.TrimPrefix(path, describePath+"/")
		body, ok := z.objects[name]
		if !ok {
			http.Error(w, "unknown object", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, body)
	case path == restExportPath:
		data, _ := io.ReadAll(r.Body)
		stream := z.recordProbe(string(data))
		fmt.Fprintf(w, `{"Success":%t,"Id":"export-1"}`, z.exportSuccess[stream])
	case path == aquaBatchQueryPath:
		data, _ := io.ReadAll(r.Body)
		stream := z.recordProbe(string(data))
		withDeleted := strings.Contains(string(data), `"deleted"`)
		switch mode := z.aqua[stream]; {
		case mode == "deleted":
			_, _ = io.WriteString(w, `{"id":"job-1","status":"submitted"}`)
		case mode == "plain" && !withDeleted:
			_, _ = io.WriteString(w, `{"id":"job-2","status":"submitted"}`)
		default:
			_, _ = io.WriteString(w, `{"errorCode":"90000011","message":"invalid query"}`)
		}
	default:
		http.NotFound(w, r)
	}
}

// recordProbe extracts the stream name from a probe body.
func (z *fakeZuora) recordProbe(body string) string {
	z.mu.Lock()
	defer z.mu.Unlock()
	for name := range z.objects {
		if strings.Contains(body, "from "+name+" ") {
			z.probes = append(z.probes, name)
			return name
		}
	}
	z.t.Errorf("probe for unknown stream: %s", body)
	return ""
}

func (z *fakeZuora) probeCount() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return len(z.probes)
}

func (z *fakeZuora) serve(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(z)
	t.Cleanup(srv.Close)
	return srv.URL
}

func (z *fakeZuora) client(t *testing.T) *uclhttp.Client {
	t.Helper()
	return uclhttp.NewClient(fastClientConfig(z.serve(t)))
}

func fastClientConfig(baseURL string) *uclhttp.ClientConfig {
	cfg := uclhttp.DefaultClientConfig()
	cfg.BaseURL = baseURL
	cfg.RateLimit = 1000
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

// =============================================================================
// STUB PROBER
// =============================================================================

type stubProber struct {
	mu       sync.Mutex
	statuses map[string]Status
	errs     map[string]error
	delays   map[string]time.Duration
	calls    []string
}

func (p *stubProber) StreamStatus(ctx context.Context, stream string) (Status, error) {
	p.mu.Lock()
	p.calls = append(p.calls, stream)
	delay := p.delays[stream]
	err := p.errs[stream]
	status, ok := p.statuses[stream]
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return StatusAvailable, nil
	}
	return status, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accountFields() []fakeField {
	return []fakeField{
		field("Id", "text", true, "export"),
		field("Name", "text", false, "export"),
		field("UpdatedDate", "datetime", true, "export"),
		field("InternalFlag", "unknownxyz", false, "export"),
	}
}
