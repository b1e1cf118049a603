package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-backend/config"
	"property-backend/internal/db"
	"property-backend/internal/service"
	"property-backend/internal/store"
	"property-backend/internal/upload"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	handler   http.Handler
	uploadDir string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.Database.LogLevel = "silent"
	cfg.Upload.Dir = filepath.Join(t.TempDir(), "uploads")
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 60
	if mutate != nil {
		mutate(cfg)
	}

	gormDB, err := db.Init(&cfg.Database, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	uploader, err := upload.New(context.Background(), cfg.Upload, zap.NewNop())
	require.NoError(t, err)

	svc := service.New(store.NewGormStore(gormDB), zap.NewNop())
	router := NewRouter(cfg.Server, svc, uploader, zap.NewNop())
	return &testServer{handler: NewServerHandler(router, cfg.Server), uploadDir: cfg.Upload.Dir}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type propertyJSON struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	PropertyNumber  string         `json:"property_number"`
	DeclarationFile *string        `json:"declaration_file"`
	BuildingCount   int            `json:"building_count"`
	UnitCount       int            `json:"unit_count"`
	Buildings       []buildingJSON `json:"buildings"`
	Units           []unitJSON     `json:"units"`
}

type buildingJSON struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"property_id"`
	Street      string  `json:"street"`
	HouseNumber string  `json:"house_number"`
	City        *string `json:"city"`
	Country     string  `json:"country"`
}

type unitJSON struct {
	ID         string   `json:"id"`
	BuildingID string   `json:"building_id"`
	UnitNumber string   `json:"unit_number"`
	Type       string   `json:"type"`
	Floor      *int     `json:"floor"`
	SizeSqm    *float64 `json:"size_sqm"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w, env := s.do(t, "GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	h := decodeData[HealthResponse](t, env)
	assert.Equal(t, "healthy", h.Status)
	assert.NotEmpty(t, h.Timestamp)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	w, env := s.do(t, "GET", "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route GET /api/nothing not found", env.Error.Message)
}

func TestPropertyEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, "GET", "/api/properties", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = s.do(t, "POST", "/api/properties", `{
		"name": "Test", "type": "WEG", "property_manager": "Alice",
		"buildings": [{"tempId": "t1", "street": "A", "house_number": "1", "construction_year": ""}],
		"units": [{"building_id": "t1", "unit_number": "01", "type": "Apartment", "floor": "2", "size_sqm": 71.5}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[propertyJSON](t, env)
	assert.Regexp(t, `^PROP-\d{4}-00001$`, created.PropertyNumber)
	assert.Nil(t, created.Buildings)

	// The cached empty list must not survive the create.
	_, env = s.do(t, "GET", "/api/properties", "")
	list := decodeData[[]propertyJSON](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].BuildingCount)
	assert.Equal(t, 1, list[0].UnitCount)

	w, env = s.do(t, "GET", "/api/properties/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeData[propertyJSON](t, env)
	require.Len(t, detail.Buildings, 1)
	require.Len(t, detail.Units, 1)
	assert.Equal(t, detail.Buildings[0].ID, detail.Units[0].BuildingID)
	assert.Equal(t, "Germany", detail.Buildings[0].Country)
	assert.Equal(t, 2, *detail.Units[0].Floor)

	w, env = s.do(t, "PUT", "/api/properties/"+created.ID, `{"name":"Renamed","type":"MV"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeData[propertyJSON](t, env)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.PropertyNumber, updated.PropertyNumber)

	w, _ = s.do(t, "PUT", "/api/properties/missing", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, "DELETE", "/api/properties/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w, env = s.do(t, "GET", "/api/properties/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Property not found", env.Error.Message)
	w, _ = s.do(t, "GET", "/api/buildings/"+detail.Buildings[0].ID+"/units", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, "DELETE", "/api/properties/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePropertyValidation(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "Empty body", body: "", message: "Name and type are required"},
		{name: "Bad type", body: `{"name":"X","type":"Condo"}`, message: "Type must be either WEG or MV"},
		{name: "Bad unit type", body: `{"name":"X","type":"MV","units":[{"unit_number":"1","type":"Loft"}]}`, message: "Type must be one of: Apartment, Office, Garden, Parking"},
		{name: "Malformed number", body: `{"name":"X","type":"MV","units":[{"unit_number":"1","type":"Office","floor":"second"}]}`, message: `invalid integer "second"`},
	}

	s := newTestServer(t, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/properties", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w, env := s.serve(t, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error.Message, tc.message)
			assert.NotEmpty(t, env.Error.Stack)
		})
	}

	_, env := s.do(t, "GET", "/api/properties", "")
	assert.JSONEq(t, `[]`, string(env.Data))
}

// multipartProperty builds a browser-style create form.
func multipartProperty(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, declarationField, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/properties", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreatePropertyMultipart(t *testing.T) {
	s := newTestServer(t, nil)

	fields := map[string]string{
		"name":             "Form Property",
		"type":             "MV",
		"accountant":       "Bob",
		"property_manager": "",
		"buildings":        `[{"tempId":1699999999999,"street":"Ring","house_number":"3","city":"Hamburg"}]`,
		"units":            `[{"building_id":1699999999999,"unit_number":"P1","type":"Parking","size_sqm":""}]`,
	}
	w, env := s.serve(t, multipartProperty(t, fields, "decl.pdf", "application/pdf", []byte("%PDF-1.7 test")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[propertyJSON](t, env)
	require.NotNil(t, created.DeclarationFile)
	assert.Regexp(t, `^\d+-\d+\.pdf$`, *created.DeclarationFile)

	stored, err := os.ReadFile(filepath.Join(s.uploadDir, *created.DeclarationFile))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(stored))

	static := httptest.NewRecorder()
	s.handler.ServeHTTP(static, httptest.NewRequest("GET", "/uploads/"+*created.DeclarationFile, nil))
	assert.Equal(t, http.StatusOK, static.Code)

	_, env = s.do(t, "GET", "/api/properties/"+created.ID, "")
	detail := decodeData[propertyJSON](t, env)
	require.Len(t, detail.Units, 1)
	assert.Equal(t, detail.Buildings[0].ID, detail.Units[0].BuildingID)
	assert.Nil(t, detail.Units[0].SizeSqm)

	_, env = s.do(t, "GET", "/api/suggestions/staff", "")
	assert.JSONEq(t, `{"managers":[],"accountants":["Bob"]}`, string(env.Data))
}

func TestCreatePropertyMultipartRejections(t *testing.T) {
	testCases := []struct {
		name        string
		fields      map[string]string
		filename    string
		contentType string
		message     string
	}{
		{name: "Wrong file type", fields: map[string]string{"name": "X", "type": "WEG"}, filename: "x.png", contentType: "image/png", message: "Invalid file type. Only PDF and DOC files are allowed."},
		{name: "Invalid payload skips upload", fields: map[string]string{"name": "X", "type": "ZZ"}, filename: "x.pdf", contentType: "application/pdf", message: "Type must be either WEG or MV"},
		{name: "Malformed buildings", fields: map[string]string{"name": "X", "type": "WEG", "buildings": "{not json"}, message: "buildings must be a JSON array"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			w, env := s.serve(t, multipartProperty(t, tc.fields, tc.filename, tc.contentType, []byte("data")))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, env.Error.Message, tc.message)

			entries, err := os.ReadDir(s.uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestCreatePropertyFileTooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Upload.MaxFileSizeBytes = 8 })
	w, env := s.serve(t, multipartProperty(t, map[string]string{"name": "X", "type": "WEG"}, "a.pdf", "application/pdf", []byte("%PDF-1.7 too long")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Message, "File too large")
}

func TestBuildingAndUnitEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := s.do(t, "POST", "/api/properties", `{"name":"P","type":"WEG"}`)
	p := decodeData[propertyJSON](t, env)

	w, env := s.do(t, "POST", "/api/properties/missing/buildings", `{"street":"A","house_number":"1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Property not found", env.Error.Message)

	w, env = s.do(t, "POST", "/api/properties/"+p.ID+"/buildings", `{"street":"Main St","house_number":"5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	b := decodeData[buildingJSON](t, env)
	assert.Equal(t, "Germany", b.Country)
	assert.Equal(t, p.ID, b.PropertyID)

	w, env = s.do(t, "PUT", "/api/buildings/"+b.ID, `{"city":"Bonn"}`)
	require.Equal(t, http.StatusOK, w.Code)
	b = decodeData[buildingJSON](t, env)
	assert.Equal(t, "Main St", b.Street)
	assert.Equal(t, "Bonn", *b.City)

	_, env = s.do(t, "GET", "/api/properties/"+p.ID+"/buildings", "")
	assert.Len(t, decodeData[[]buildingJSON](t, env), 1)

	w, env = s.do(t, "POST", "/api/buildings/"+b.ID+"/units", `{"unit_number":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unit number and type are required", env.Error.Message)

	w, env = s.do(t, "POST", "/api/buildings/"+b.ID+"/units", `{"unit_number":"1","type":"Office","floor":0}`)
	require.Equal(t, http.StatusCreated, w.Code)
	u := decodeData[unitJSON](t, env)
	assert.Equal(t, 0, *u.Floor)

	w, env = s.do(t, "POST", "/api/buildings/"+b.ID+"/units/bulk", `{"units":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Units array is required and must not be empty", env.Error.Message)

	w, env = s.do(t, "POST", "/api/buildings/"+b.ID+"/units/bulk", `{"units":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Units array is required and must not be empty", env.Error.Message)

	w, env = s.do(t, "POST", "/api/buildings/"+b.ID+"/units/bulk", `{"units":[{"unit_number":"2","type":"Garden"},{"unit_number":"3","type":"Parking"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	bulk := decodeData[[]unitJSON](t, env)
	require.Len(t, bulk, 2)
	assert.Equal(t, "2", bulk[0].UnitNumber)
	assert.Equal(t, b.ID, bulk[1].BuildingID)

	_, env = s.do(t, "GET", "/api/buildings/"+b.ID+"/units", "")
	assert.Len(t, decodeData[[]unitJSON](t, env), 3)

	w, env = s.do(t, "PUT", "/api/units/"+u.ID, `{"type":"Apartment"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Apartment", decodeData[unitJSON](t, env).Type)

	w, _ = s.do(t, "PUT", "/api/units/"+u.ID, `{"type":"Castle"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, "DELETE", "/api/units/"+u.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = s.do(t, "DELETE", "/api/units/"+u.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, "DELETE", "/api/buildings/"+b.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, env = s.do(t, "GET", "/api/properties", "")
	list := decodeData[[]propertyJSON](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].BuildingCount)
	assert.Equal(t, 0, list[0].UnitCount)
}

func TestProductionHidesInternals(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.Env = "production" })

	w, env := s.do(t, "POST", "/api/properties", `{"name":"X"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name and type are required", env.Error.Message)
	assert.Empty(t, env.Error.Stack)
}

func TestFailHidesInternalErrorsInProduction(t *testing.T) {
	testCases := []struct {
		name       string
		production bool
		message    string
		withStack  bool
	}{
		{name: "Development", production: false, message: "disk on fire", withStack: true},
		{name: "Production", production: true, message: "Internal Server Error", withStack: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := &Handler{log: zap.NewNop(), production: tc.production}
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { h.fail(c, fmt.Errorf("disk on fire")) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var env envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Error.Message)
			assert.Equal(t, tc.withStack, env.Error.Stack != "")
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.CORSOrigins = []string{"http://localhost:5173"} })

	req := httptest.NewRequest("OPTIONS", "/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
