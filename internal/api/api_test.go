package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/cache"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/dataset"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline/pricing"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `Store Name,Item_Code,Description,Category,Section,Sub-Department,Supplier,Quantity,Total Sales,RRP,Date Of Sale
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,2,160,100,2025-01-06
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,4,320,100,2025-01-07
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,1,100,100,2025-01-14
A,2,Fresh Fri 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,5,500,110,2025-01-06
`

func init() {
	gin.SetMode(gin.TestMode)
}

// outlierCSV prices item 1 at KSh 20 in store E against KSh 100 everywhere else.
const outlierCSV = `Store Name,Item_Code,Description,Category,Section,Sub-Department,Supplier,Quantity,Total Sales,RRP,Date Of Sale
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,1,100,100,2025-01-06
B,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,2,200,100,2025-01-06
C,1,Golden Fry 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,1,100,100,2025-01-06
D,1,Golden Fry 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,1,100,100,2025-01-06
G,1,Golden Fry 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,1,100,100,2025-01-06
H,1,Golden Fry 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,1,100,100,2025-01-06
E,1,Golden Fry 1L,Food,Oils,Grocery,CHEAP CO,1,20,100,2025-01-06
E,1,Golden Fry 1L,Food,Oils,Grocery,CHEAP CO,1,20,100,2025-01-07
`

func newTestRouter(t *testing.T, refresh bool) (*gin.Engine, *service.PricingService) {
	t.Helper()
	return newRouterFor(t, "week2.csv", salesCSV, nil, refresh)
}

func newRouterFor(t *testing.T, name, csv string, rc cache.ReportCache, refresh bool) (*gin.Engine, *service.PricingService) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	svc := service.NewPricingService(pricing.NewAnalyzer(pricing.DefaultConfig()), dataset.FileSource{Path: path}, rc)
	if refresh {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}
	return NewRouter(&Services{Pricing: svc, UploadDir: t.TempDir()}, nil), svc
}

func do(router http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestKPIsJSONContract(t *testing.T) {
	router, _ := newTestRouter(t, true)

	w := do(router, http.MethodGet, "/api/v1/kpis/json")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 8)
	for _, key := range []string{
		"total_revenue_ksh", "units_sold", "avg_discount_pct", "price_index",
		"promo_coverage_pct", "promo_uplift_pct", "weekly_gain_ksh", "data_health",
	} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, float64(580), body["total_revenue_ksh"])
	assert.Equal(t, float64(7), body["units_sold"])
	assert.Equal(t, 0.829, body["price_index"])
	assert.Equal(t, "100/100", body["data_health"])
}

func TestEndpointsBeforeRefresh(t *testing.T) {
	router, _ := newTestRouter(t, false)

	for _, path := range []string{"/api/v1/kpis/json", "/api/v1/sections", "/api/v1/stores", "/api/v1/market"} {
		w := do(router, http.MethodGet, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "report not ready", path)
	}

	w := do(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","ready":false}`, w.Body.String())
}

func TestRefreshEndpoint(t *testing.T) {
	router, svc := newTestRouter(t, false)

	w := do(router, http.MethodPost, "/api/v1/refresh")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Dataset string `json:"dataset"`
		Rows    int    `json:"rows"`
		Cached  bool   `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "week2", body.Dataset)
	assert.Equal(t, 4, body.Rows)
	assert.False(t, body.Cached)

	_, err := svc.Report()
	assert.NoError(t, err)
}

func TestRefreshEndpointInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewReportCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	router, _ := newRouterFor(t, "week2.csv", salesCSV, rc, false)

	cached := func(target string) bool {
		t.Helper()
		w := do(router, http.MethodPost, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		var body struct {
			Cached bool `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Cached
	}

	assert.False(t, cached("/api/v1/refresh"))
	assert.True(t, cached("/api/v1/refresh"))
	assert.False(t, cached("/api/v1/refresh?invalidate=true"))
	assert.True(t, cached("/api/v1/refresh?invalidate=false"))

	w := do(router, http.MethodPost, "/api/v1/refresh?invalidate=maybe")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid invalidate flag")
}

func TestOutliersItemDrillDown(t *testing.T) {
	router, _ := newRouterFor(t, "drill.csv", outlierCSV, nil, true)

	w := do(router, http.MethodGet, "/api/v1/outliers")
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		PriceOutliers []map[string]interface{} `json:"price_outliers"`
		Items         []string                 `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all.PriceOutliers, 2)
	assert.Equal(t, []string{"1"}, all.Items)

	w = do(router, http.MethodGet, "/api/v1/outliers?item=1")
	require.Equal(t, http.StatusOK, w.Code)
	var drill struct {
		Item             string `json:"item"`
		SupplierExtremes []struct {
			Label string `json:"label"`
		} `json:"supplier_extremes"`
		StoreOutliers []struct {
			Label  string  `json:"label"`
			Value  float64 `json:"value"`
			Status string  `json:"status"`
		} `json:"store_outliers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drill))
	assert.Equal(t, "1", drill.Item)
	assert.Empty(t, drill.SupplierExtremes)
	require.Len(t, drill.StoreOutliers, 1)
	assert.Equal(t, "E", drill.StoreOutliers[0].Label)
	assert.Equal(t, 20.0, drill.StoreOutliers[0].Value)
	assert.Equal(t, "Low Price Outlier", drill.StoreOutliers[0].Status)

	w = do(router, http.MethodGet, "/api/v1/outliers?item=404")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store_outliers":[]`)
	assert.Contains(t, w.Body.String(), `"supplier_extremes":[]`)
}

func TestDetailEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, true)

	w := do(router, http.MethodGet, "/api/v1/price-index?store=a&section=oils")
	require.Equal(t, http.StatusOK, w.Code)
	var index struct {
		Rows []struct {
			StoreName  string  `json:"store_name"`
			PriceIndex float64 `json:"price_index"`
		} `json:"rows"`
		HasCompetitors bool `json:"has_competitors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &index))
	require.Len(t, index.Rows, 1)
	assert.Equal(t, "A", index.Rows[0].StoreName)
	assert.True(t, index.HasCompetitors)

	w = do(router, http.MethodGet, "/api/v1/price-index?store=Z")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":[]`)

	w = do(router, http.MethodGet, "/api/v1/sections")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"section":"Oils"`)

	w = do(router, http.MethodGet, "/api/v1/promotions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"weeks"`)
	w = do(router, http.MethodGet, "/api/v1/promotions?include_weeks=true")
	assert.Contains(t, w.Body.String(), `"weeks"`)

	for _, path := range []string{"/api/v1/stores", "/api/v1/health", "/api/v1/outliers", "/api/v1/market"} {
		w := do(router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestUploadEndpoint(t *testing.T) {
	router, svc := newTestRouter(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(salesCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report, err := svc.Report()
	require.NoError(t, err)
	assert.Equal(t, "upload", report.Dataset)

	w = do(router, http.MethodPost, "/api/v1/upload")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDriveRoutesMounted(t *testing.T) {
	drive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.URL.Path))
	})
	router := NewRouter(&Services{Drive: drive}, nil)

	w := do(router, http.MethodGet, "/api/drive/files?folderId=x")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "/api/drive/files", w.Body.String())
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
