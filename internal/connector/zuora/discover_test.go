package zuora

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
	"github.com/nucleus/ucl-zuora/internal/core"
)

func newTestDiscoverer(t *testing.T, z *fakeZuora, prober Prober, concurrency int, streams ...string) *Discoverer {
	t.Helper()
	return NewDiscoverer(z.client(t), Options{
		Prober:      prober,
		Concurrency: concurrency,
		Streams:     streams,
		Logger:      quietLogger(),
	})
}

func TestDiscoverer_StreamNames(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", accountFields()...)
	z.addStream("Invoice", field("Id", "text", true, "export"))
	z.addStream("Amendment", field("Id", "text", true, "export"))

	names, err := newTestDiscoverer(t, z, &stubProber{}, 1).StreamNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Invoice", "Amendment"}, names)
}

func TestDiscoverer_AccountScenario(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", accountFields()...)
	d := newTestDiscoverer(t, z, &stubProber{}, 1)

	catalog, err := d.DiscoverStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 1)

	account := catalog.Stream("Account")
	require.NotNil(t, account)
	assert.Equal(t, []string{"Id"}, account.KeyProperties)
	assert.Equal(t, "UpdatedDate", account.ReplicationKey)
	assert.Len(t, account.Schema.Properties, 3)
	assert.Nil(t, account.Property("InternalFlag"))
	assert.Nil(t, account.Property(DeletedProperty))
	assert.Equal(t, []string{"string", "null"}, account.Property("Name").Type)
}

func TestDiscoverer_FieldCatalogReportsDrops(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", append(accountFields(), field("Notes", "text", false, "soap"))...)
	d := newTestDiscoverer(t, z, &stubProber{}, 1)

	catalog, err := d.FieldCatalog(context.Background(), "Account")
	require.NoError(t, err)
	assert.Len(t, catalog.Fields, 3)
	assert.ElementsMatch(t, []DroppedField{
		{Name: "InternalFlag", ProviderType: "unknownxyz", Reason: DropUnsupportedType},
		{Name: "Notes", ProviderType: "text", Reason: DropNotExportable},
	}, catalog.Dropped)
}

func TestDiscoverer_PreservesOrderAndSkipsUnavailable(t *testing.T) {
	z := newFakeZuora(t)
	for _, name := range []string{"Zeta", "Account", "Secret", "Invoice"} {
		z.addStream(name, field("Id", "text", true, "export"))
	}
	prober := &stubProber{statuses: map[string]Status{
		"Secret":  StatusUnavailable,
		"Invoice": StatusAvailableWithDeleted,
	}}

	catalog, err := newTestDiscoverer(t, z, prober, 1).DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Account", "Invoice"}, catalog.Names())
	assert.Nil(t, catalog.Stream("Secret"))
	assert.NotNil(t, catalog.Stream("Invoice").Property(DeletedProperty))
	assert.Equal(t, []string{"Zeta", "Account", "Secret", "Invoice"}, prober.calls)
}

func TestDiscoverer_ConcurrentKeepsOrder(t *testing.T) {
	z := newFakeZuora(t)
	names := []string{"A", "B", "C", "D", "E", "F"}
	for _, name := range names {
		z.addStream(name, field("Id", "text", true, "export"))
	}
	// Earlier streams finish last.
	prober := &stubProber{
		statuses: map[string]Status{"C": StatusUnavailable},
		delays: map[string]time.Duration{
			"A": 40 * time.Millisecond,
			"B": 30 * time.Millisecond,
			"D": 10 * time.Millisecond,
		},
	}

	catalog, err := newTestDiscoverer(t, z, prober, 4).DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D", "E", "F"}, catalog.Names())
	assert.ElementsMatch(t, names, prober.calls)
}

func TestDiscoverer_StreamFilter(t *testing.T) {
	z := newFakeZuora(t)
	for _, name := range []string{"Account", "Invoice", "Payment"} {
		z.addStream(name, field("Id", "text", true, "export"))
	}
	prober := &stubProber{}

	catalog, err := newTestDiscoverer(t, z, prober, 1, "Payment", "Account", "Missing").
		DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Payment"}, catalog.Names())
	assert.Equal(t, []string{"Account", "Payment"}, prober.calls)
}

func TestDiscoverer_ProbeErrorIsFatal(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", field("Id", "text", true, "export"))
	z.addStream("Invoice", field("Id", "text", true, "export"))
	boom := errors.New("connection reset")
	prober := &stubProber{errs: map[string]error{"Invoice": boom}}

	for _, concurrency := range []int{1, 3} {
		catalog, err := newTestDiscoverer(t, z, prober, concurrency).DiscoverStreams(context.Background())
		require.Error(t, err)
		assert.Nil(t, catalog)
		assert.ErrorIs(t, err, boom)

		var stageErr *StageError
		require.True(t, errors.As(err, &stageErr))
		assert.Equal(t, StageProbe, stageErr.Stage)
		assert.Equal(t, "Invoice", stageErr.Stream)
	}
}

func TestDiscoverer_ParseErrorIsFatal(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", field("Id", "text", true, "export"))
	z.addStream("Broken", field("Id", "text", true, "export"))
	z.objects["Broken"] = `<object><name>Broken</name><fields><field><name>Id</name><type>text</type><contexts><context>export</context></contexts></field></fields></object>`

	_, err := newTestDiscoverer(t, z, &stubProber{}, 1).DiscoverStreams(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageFields, stageErr.Stage)
	assert.Equal(t, "Broken", stageErr.Stream)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "missing required", perr.Reason)
}

func TestDiscoverer_DescribeFailure(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", field("Id", "text", true, "export"))
	z.order = append(z.order, "Ghost")

	_, err := newTestDiscoverer(t, z, &stubProber{}, 1).DiscoverStreams(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "Ghost", stageErr.Stream)

	var httpErr *uclhttp.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 404, httpErr.StatusCode)
}

func TestDiscoverer_MissingPrimaryKey(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Odd", field("Id", "text", true, "soap"), field("Name", "text", false, "export"))

	_, err := newTestDiscoverer(t, z, &stubProber{}, 1).DiscoverStream(context.Background(), "Odd")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PrimaryKey, perr.Field)
}

func TestDiscoverer_UnavailableStreamIsNil(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Secret", field("Id", "text", true, "export"))
	prober := &stubProber{statuses: map[string]Status{"Secret": StatusUnavailable}}

	schema, err := newTestDiscoverer(t, z, prober, 1).DiscoverStream(context.Background(), "Secret")
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestDiscoverer_EmptyAccount(t *testing.T) {
	z := newFakeZuora(t)
	catalog, err := newTestDiscoverer(t, z, &stubProber{}, 2).DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Empty(t, catalog.Streams)
}

func TestDiscoverer_RestProbingEndToEnd(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", accountFields()...)
	z.addStream("Secret", field("Id", "text", true, "export"))
	z.exportSuccess["Account"] = true

	d := NewDiscoverer(z.client(t), Options{ForceREST: true, Logger: quietLogger()})
	catalog, err := d.DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account"}, catalog.Names())
	assert.Nil(t, catalog.Stream("Account").Property(DeletedProperty))
}

func TestDiscoverer_AquaProbingEndToEnd(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", accountFields()...)
	z.addStream("Invoice", field("Id", "text", true, "export"), field("UpdatedDate", "datetime", true, "export"))
	z.aqua["Account"] = "plain"
	z.aqua["Invoice"] = "deleted"

	d := NewDiscoverer(z.client(t), Options{Concurrency: 2, Logger: quietLogger()})
	catalog, err := d.DiscoverStreams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Invoice"}, catalog.Names())
	assert.Nil(t, catalog.Stream("Account").Property(DeletedProperty))
	assert.Equal(t, &core.PropertySchema{Type: []string{core.TypeBoolean}},
		catalog.Stream("Invoice").Property(DeletedProperty))
}

func TestDiscoverer_ContextCancelled(t *testing.T) {
	z := newFakeZuora(t)
	z.addStream("Account", field("Id", "text", true, "export"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestDiscoverer(t, z, &stubProber{}, 1).DiscoverStreams(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
