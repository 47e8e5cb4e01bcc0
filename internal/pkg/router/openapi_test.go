package router

import (
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIFile = "../../../public/docs/v1/openapi.yml"

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIFile)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))
	return doc
}

// Every /api/v1 route must be documented, with the fiber :param syntax
// mapped onto OpenAPI templates.
func TestOpenAPIDocumentsEveryRoute(t *testing.T) {
	doc := loadOpenAPI(t)
	app := newTestApp(t)

	checked := 0
	for _, r := range app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/api/v1/") || r.Method == http.MethodHead {
			continue
		}
		p := strings.TrimSuffix(strings.TrimPrefix(r.Path, "/api/v1"), "/")
		p = strings.ReplaceAll(p, ":id", "{id}")

		item := doc.Paths.Value(p)
		if !assert.NotNil(t, item, "path %s is not documented", p) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.Method), "%s %s is not documented", r.Method, p)
		checked++
	}
	assert.Greater(t, checked, 40)
}

func TestOpenAPIOperationIDsAreUnique(t *testing.T) {
	doc := loadOpenAPI(t)

	seen := map[string]string{}
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			require.NotEmpty(t, op.OperationID, "%s %s", method, path)
			prev, dup := seen[op.OperationID]
			assert.False(t, dup, "operationId %s used by %s and %s %s", op.OperationID, prev, method, path)
			seen[op.OperationID] = method + " " + path
		}
	}
}
