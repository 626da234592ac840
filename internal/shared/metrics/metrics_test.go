package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(upstreamDegradedTotal.WithLabelValues("categorize"))
	IncUpstreamDegraded("categorize")
	after := testutil.ToFloat64(upstreamDegradedTotal.WithLabelValues("categorize"))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}

	IncSubmission("")
	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues("unknown")); got < 1 {
		t.Fatalf("expected unknown variant to be counted, got %v", got)
	}
}

func TestHandlerExposesRouteMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping/abc", nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `triage_http_requests_total{method="GET",route="/ping/:id",status="204"}`) {
		t.Fatalf("expected templated route label in metrics output:\n%s", body)
	}
}
