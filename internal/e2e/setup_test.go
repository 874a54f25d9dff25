package e2e

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/CareMeds-Health/medication-service/internal/auth"
	httpserver "github.com/CareMeds-Health/medication-service/internal/http"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
	"github.com/CareMeds-Health/medication-service/internal/testutil"
)

// TestServer is a complete in-process test environment: real router and
// services over in-memory storage, mock event publisher, real JWT auth.
type TestServer struct {
	Server        *httptest.Server
	Store         *store.Store
	MockPublisher *testutil.MockPublisher
}

// SetupE2ETest builds the full service stack against in-memory storage.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}

	mockPublisher := testutil.NewMockPublisher()

	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}

	verifier := testutil.CreateTestVerifier(t)

	router := httpserver.SetupRouter(st, mockPublisher, verifier, perms, nil)
	server := httptest.NewServer(router)

	return &TestServer{
		Server:        server,
		Store:         st,
		MockPublisher: mockPublisher,
	}
}

// Cleanup shuts the test server down.
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()
	ts.Server.Close()
}

// NewClient creates an HTTP test client authenticated with the given token.
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}

// AdminClient creates a client with full permissions.
func (ts *TestServer) AdminClient(t *testing.T) *testutil.HTTPTestClient {
	t.Helper()
	return ts.NewClient(testutil.GenerateAdminToken(t))
}
