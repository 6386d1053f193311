// controller/policy_controller_test.go
package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/controller"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/model"
)

// stubPolicyService implements service.IPolicyService with canned
// responses per method.
type stubPolicyService struct {
	createResult *model.Policy
	createErr    error
	updateResult *model.Policy
	updateErr    error
	deleteErr    error
	getResult    *model.Policy
	getErr       error
	listResult   []model.Policy
	listErr      error
	searchResult []model.Policy
	searchErr    error
	lastCriteria model.PolicySearchCriteria
}

func (s *stubPolicyService) CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	return s.createResult, s.createErr
}

func (s *stubPolicyService) UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	return s.updateResult, s.updateErr
}

func (s *stubPolicyService) DeletePolicy(ctx context.Context, policyID string, userID string) error {
	return s.deleteErr
}

func (s *stubPolicyService) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	return s.getResult, s.getErr
}

func (s *stubPolicyService) ListPolicies(ctx context.Context) ([]model.Policy, error) {
	return s.listResult, s.listErr
}

func (s *stubPolicyService) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]model.Policy, error) {
	s.lastCriteria = criteria
	return s.searchResult, s.searchErr
}

func setupRouter(stub *stubPolicyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "test-admin")
		c.Next()
	})
	api := r.Group("/")
	controller.NewPolicyController(stub).RegisterRoutes(api)
	return r
}

func TestPolicyController(t *testing.T) {
	t.Run("CreatePolicy_Success", func(t *testing.T) {
		stub := &stubPolicyService{createResult: &model.Policy{ID: "1", Name: "Test Policy"}}
		router := setupRouter(stub)

		body := strings.NewReader(`{"name":"Test Policy","effect":"allow","priority":10}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var created model.Policy
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "1", created.ID)
	})

	t.Run("CreatePolicy_Conflict", func(t *testing.T) {
		stub := &stubPolicyService{createErr: arbiter_errors.ErrPolicyConflict}
		router := setupRouter(stub)

		body := strings.NewReader(`{"name":"Conflicting"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CreatePolicy_BadJSON", func(t *testing.T) {
		router := setupRouter(&stubPolicyService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", strings.NewReader(`{`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UpdatePolicy_NotFound", func(t *testing.T) {
		stub := &stubPolicyService{updateErr: arbiter_errors.ErrPolicyNotFound}
		router := setupRouter(stub)

		body := strings.NewReader(`{"name":"Updated"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/policies/missing", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeletePolicy_Success", func(t *testing.T) {
		router := setupRouter(&stubPolicyService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("GetPolicy_Success", func(t *testing.T) {
		stub := &stubPolicyService{getResult: &model.Policy{ID: "1", Name: "Found"}}
		router := setupRouter(stub)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ListPolicies_Success", func(t *testing.T) {
		stub := &stubPolicyService{listResult: []model.Policy{{ID: "1"}, {ID: "2"}}}
		router := setupRouter(stub)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var listed []model.Policy
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
		assert.Len(t, listed, 2)
	})

	t.Run("SearchPolicies_Success", func(t *testing.T) {
		stub := &stubPolicyService{searchResult: []model.Policy{{ID: "1", Effect: model.EffectDeny}}}
		router := setupRouter(stub)

		body := strings.NewReader(`{"effect":"deny","min_priority":50}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies/search", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.EffectDeny, stub.lastCriteria.Effect)
		assert.Equal(t, 50, stub.lastCriteria.MinPriority)
		var found []model.Policy
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
		assert.Len(t, found, 1)
	})

	t.Run("SearchPolicies_InvalidCriteria", func(t *testing.T) {
		stub := &stubPolicyService{searchErr: arbiter_errors.ErrInvalidSearchCriteria}
		router := setupRouter(stub)

		body := strings.NewReader(`{"effect":"sometimes"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies/search", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingSubject_Unauthorized", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		api := r.Group("/")
		controller.NewPolicyController(&stubPolicyService{}).RegisterRoutes(api)

		body := strings.NewReader(`{"name":"No Subject"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
