package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/discovery"
)

const describeXML = `<?xml version="1.0" encoding="UTF-8"?>
<objects><object><name>Account</name></object><object><name>Secret</name></object></objects>`

const accountXML = `<?xml version="1.0" encoding="UTF-8"?>
<object><name>Account</name><fields>
<field><name>Id</name><type>text</type><required>true</required><contexts><context>export</context></contexts></field>
<field><name>Name</name><type>text</type><required>false</required><contexts><context>export</context></contexts></field>
<field><name>UpdatedDate</name><type>datetime</type><required>true</required><contexts><context>export</context></contexts></field>
</fields></object>`

const secretXML = `<?xml version="1.0" encoding="UTF-8"?>
<object><name>Secret</name><fields>
<field><name>Id</name><type>text</type><required>true</required><contexts><context>export</context></contexts></field>
</fields></object>`

// newZuoraServer serves describe payloads; REST exports succeed for Account only.
func newZuoraServer(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/describe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, describeXML)
	})
	mux.HandleFunc("/v1/describe/Account", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, accountXML)
	})
	mux.HandleFunc("/v1/describe/Secret", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, secretXML)
	})
	mux.HandleFunc("/v1/object/export", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "from Account ") {
			_, _ = io.WriteString(w, `{"Success":true,"Id":"e1"}`)
			return
		}
		_, _ = io.WriteString(w, `{"Success":false}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestClient(t *testing.T, defaults map[string]any) *Client {
	t.Helper()
	return NewClient(newTestConn(t, defaults))
}

func newTestConn(t *testing.T, defaults map[string]any) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := catalogstore.Open(context.Background(), catalogstore.Config{Root: t.TempDir()})
	require.NoError(t, err)
	runner := discovery.NewRunner(nil, store, defaults, logger)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterDiscoveryServer(srv, NewService(runner, logger))
	reflection.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestDiscover_EndToEnd(t *testing.T) {
	client := newTestClient(t, map[string]any{"baseUrl": newZuoraServer(t), "accessToken": "tok"})
	ctx := context.Background()

	resp, err := client.Discover(ctx, mustStruct(t, map[string]any{
		"runId":     "run-1",
		"forceRest": true,
	}))
	require.NoError(t, err)

	out := resp.AsMap()
	assert.Equal(t, "run-1", out["runId"])
	assert.Equal(t, "local://zuora-catalogs/run-1/catalog.json", out["uri"])
	assert.Equal(t, float64(1), out["streamCount"])

	catalog := out["catalog"].(map[string]any)
	streams := catalog["streams"].([]any)
	require.Len(t, streams, 1)
	account := streams[0].(map[string]any)
	assert.Equal(t, "Account", account["stream"])
	assert.Equal(t, "UpdatedDate", account["replication_key"])
	props := account["schema"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, []any{"string", "null"}, props["Name"].(map[string]any)["type"])
	assert.Equal(t, "date-time", props["UpdatedDate"].(map[string]any)["format"])

	saved, err := client.GetCatalog(ctx, mustStruct(t, map[string]any{"uri": out["uri"]}))
	require.NoError(t, err)
	assert.Equal(t, catalog, saved.AsMap()["catalog"])
}

func TestDiscover_StreamsShortcut(t *testing.T) {
	client := newTestClient(t, map[string]any{"baseUrl": newZuoraServer(t), "accessToken": "tok", "forceRest": true})

	resp, err := client.Discover(context.Background(), mustStruct(t, map[string]any{
		"streams": []any{"Secret"},
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.AsMap()["streamCount"])
	assert.NotEmpty(t, resp.AsMap()["runId"])
}

func TestListCatalogs(t *testing.T) {
	client := newTestClient(t, map[string]any{"baseUrl": newZuoraServer(t), "accessToken": "tok", "forceRest": true})
	ctx := context.Background()

	resp, err := client.ListCatalogs(ctx, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	assert.Empty(t, resp.AsMap()["uris"])

	for _, id := range []string{"run-1", "run-2"} {
		_, err := client.Discover(ctx, mustStruct(t, map[string]any{"runId": id}))
		require.NoError(t, err)
	}

	resp, err = client.ListCatalogs(ctx, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		"local://zuora-catalogs/run-1/catalog.json",
		"local://zuora-catalogs/run-2/catalog.json",
	}, resp.AsMap()["uris"])
}

func TestListDatasets(t *testing.T) {
	client := newTestClient(t, map[string]any{"baseUrl": newZuoraServer(t), "accessToken": "tok", "forceRest": true})

	resp, err := client.ListDatasets(context.Background(), mustStruct(t, map[string]any{}))
	require.NoError(t, err)

	datasets := resp.AsMap()["datasets"].([]any)
	require.Len(t, datasets, 1)
	assert.Equal(t, map[string]any{
		"id":                  "Account",
		"name":                "Account",
		"kind":                "entity",
		"supportsIncremental": true,
		"ingestionStrategy":   "scd1",
		"incrementalColumn":   "UpdatedDate",
		"primaryKeys":         []any{"Id"},
	}, datasets[0])
}

func TestValidate(t *testing.T) {
	url := newZuoraServer(t)
	client := newTestClient(t, map[string]any{"baseUrl": url})
	ctx := context.Background()

	resp, err := client.Validate(ctx, mustStruct(t, map[string]any{"config": map[string]any{"accessToken": "tok"}}))
	require.NoError(t, err)
	assert.Equal(t, true, resp.AsMap()["valid"])

	resp, err = client.Validate(ctx, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, false, resp.AsMap()["valid"])
	assert.Contains(t, resp.AsMap()["message"], "accessToken")
}

func TestErrorCodes(t *testing.T) {
	client := newTestClient(t, map[string]any{"baseUrl": newZuoraServer(t), "accessToken": "tok"})
	ctx := context.Background()

	_, err := client.Discover(ctx, mustStruct(t, map[string]any{"templateId": "jdbc.nope"}))
	requireCode(t, err, codes.NotFound)

	_, err = client.Discover(ctx, mustStruct(t, map[string]any{"config": map[string]any{"accessToken": ""}}))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.GetCatalog(ctx, mustStruct(t, map[string]any{}))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.GetCatalog(ctx, mustStruct(t, map[string]any{"uri": "local://zuora-catalogs/none/catalog.json"}))
	requireCode(t, err, codes.NotFound)

	_, err = client.GetCatalog(ctx, mustStruct(t, map[string]any{"uri": "s3://elsewhere/x"}))
	requireCode(t, err, codes.InvalidArgument)
}

func TestDiscover_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, map[string]any{"baseUrl": srv.URL, "accessToken": "bad"})
	_, err := client.Discover(context.Background(), mustStruct(t, map[string]any{}))
	requireCode(t, err, codes.Unauthenticated)
}

func TestServiceDescriptorRegistered(t *testing.T) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	require.NoError(t, err)

	service, ok := desc.(protoreflect.ServiceDescriptor)
	require.True(t, ok)
	assert.Equal(t, ServiceDesc.Metadata, service.ParentFile().Path())
	require.Equal(t, len(ServiceDesc.Methods), service.Methods().Len())
	for i, m := range ServiceDesc.Methods {
		method := service.Methods().Get(i)
		assert.Equal(t, m.MethodName, string(method.Name()))
		assert.Equal(t, protoreflect.FullName("google.protobuf.Struct"), method.Input().FullName())
		assert.Equal(t, protoreflect.FullName("google.protobuf.Struct"), method.Output().FullName())
	}
}

func TestReflection_DescribesService(t *testing.T) {
	conn := newTestConn(t, map[string]any{"accessToken": "tok"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	var services []string
	for _, s := range resp.GetListServicesResponse().GetService() {
		services = append(services, s.GetName())
	}
	assert.Contains(t, services, ServiceName)

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: ServiceName},
	}))
	resp, err = stream.Recv()
	require.NoError(t, err)
	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files, "reflection error: %v", resp.GetErrorResponse())

	var file descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &file))
	assert.Equal(t, ServiceDesc.Metadata, file.GetName())
	require.Len(t, file.GetService(), 1)

	var methods []string
	for _, m := range file.GetService()[0].GetMethod() {
		methods = append(methods, m.GetName())
	}
	assert.Equal(t, []string{"Discover", "Validate", "ListDatasets", "GetCatalog", "ListCatalogs"}, methods)
}
