// Package apitest runs an in-process stand-in for the hotel REST service.
// Accounts sign in with email and password and receive HS256 bearer tokens;
// every resource collection is kept in memory.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Resource describes one REST collection and the JSON keys it answers with.
type Resource struct {
	Path    string
	ListKey string
	ItemKey string
}

// Resources lists the collections served under the API prefix.
var Resources = []Resource{
	{Path: "clients", ListKey: "clients", ItemKey: "client"},
	{Path: "rooms", ListKey: "rooms", ItemKey: "room"},
	{Path: "room-types", ListKey: "roomTypes", ItemKey: "roomType"},
	{Path: "room-status", ListKey: "roomStatus", ItemKey: "roomStatus"},
	{Path: "bookings", ListKey: "bookings", ItemKey: "booking"},
	{Path: "admins", ListKey: "admins", ItemKey: "admin"},
}

// Prefix is the path under which the API is mounted.
const Prefix = "/api/v1"

// Request is a request observed by the service.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type failure struct {
	status  int
	message string
}

// Service is the fake REST service.
type Service struct {
	signingKey []byte

	mutex       sync.Mutex
	accounts    map[string]account
	collections map[string][]gin.H
	failures    map[string]failure
	requests    []Request
	fixedToken  string

	server *httptest.Server
}

// NewService builds an empty service.
func NewService() *Service {
	collections := make(map[string][]gin.H, len(Resources))
	for _, resource := range Resources {
		collections[resource.Path] = nil
	}
	return &Service{
		signingKey:  []byte("apitest-signing-key"),
		accounts:    make(map[string]account),
		collections: collections,
		failures:    make(map[string]failure),
	}
}

// Start runs the service on a local listener until the test ends.
func Start(t testing.TB) *Service {
	t.Helper()
	service := NewService()
	service.server = httptest.NewServer(service.Handler())
	t.Cleanup(service.server.Close)
	return service
}

// BaseURL returns the API address of a started service.
func (service *Service) BaseURL() string {
	if service.server == nil {
		return ""
	}
	return service.server.URL + Prefix
}

// Close stops a started service early, making every later call a transport failure.
func (service *Service) Close() {
	if service.server != nil {
		service.server.Close()
	}
}

// AddAccount registers an account that can sign in.
func (service *Service) AddAccount(name string, email string, password string) string {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	identifier := uuid.NewString()
	service.accounts[strings.ToLower(email)] = account{ID: identifier, Name: name, Email: email, Password: password}
	return identifier
}

// IssueToken mints a valid bearer token for a registered account.
func (service *Service) IssueToken(email string) (string, error) {
	service.mutex.Lock()
	registered, ok := service.accounts[strings.ToLower(email)]
	service.mutex.Unlock()
	if !ok {
		return "", errAccountNotFound
	}
	return mintToken(registered.ID, registered.Email, service.signingKey, defaultTokenTTL)
}

// UseFixedToken makes /login and /register answer with token instead of a minted JWT.
// The fixed token is also accepted by the bearer check.
func (service *Service) UseFixedToken(token string) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.fixedToken = token
}

// Fail forces method and path (relative to the prefix, e.g. "me") to answer with status.
func (service *Service) Fail(method string, path string, status int, message string) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.failures[failureKey(method, path)] = failure{status: status, message: message}
}

// Seed inserts a record into a collection and returns its id.
func (service *Service) Seed(path string, record gin.H) string {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	clone := cloneRecord(record)
	identifier, _ := clone["id"].(string)
	if identifier == "" {
		identifier = uuid.NewString()
		clone["id"] = identifier
	}
	service.collections[path] = append(service.collections[path], clone)
	return identifier
}

// Records returns a copy of a collection.
func (service *Service) Records(path string) []gin.H {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	records := make([]gin.H, 0, len(service.collections[path]))
	for _, record := range service.collections[path] {
		records = append(records, cloneRecord(record))
	}
	return records
}

// Requests returns the requests observed so far.
func (service *Service) Requests() []Request {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	clone := make([]Request, len(service.requests))
	copy(clone, service.requests)
	return clone
}

// CountRequests returns how many requests hit method and path.
func (service *Service) CountRequests(method string, path string) int {
	total := 0
	for _, request := range service.Requests() {
		if request.Method == method && request.Path == path {
			total++
		}
	}
	return total
}

// Handler returns the HTTP handler for the service.
func (service *Service) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group(Prefix)
	api.Use(service.observe())

	api.POST("/login", service.handleLogin)
	api.POST("/register", service.handleRegister)

	protected := api.Group("")
	protected.Use(service.requireBearer())
	protected.GET("/me", service.handleMe)
	for _, resource := range Resources {
		resource := resource
		protected.GET("/"+resource.Path, service.handleList(resource))
		protected.GET("/"+resource.Path+"/:id", service.handleGet(resource))
		protected.POST("/"+resource.Path, service.handleCreate(resource))
		protected.PATCH("/"+resource.Path, service.handleUpdate(resource))
		protected.DELETE("/"+resource.Path+"/:id", service.handleDelete(resource))
	}
	return router
}

func (service *Service) observe() gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		relative := strings.TrimPrefix(strings.TrimPrefix(contextGin.Request.URL.Path, Prefix), "/")
		service.mutex.Lock()
		service.requests = append(service.requests, Request{
			Method:        contextGin.Request.Method,
			Path:          relative,
			Authorization: contextGin.GetHeader("Authorization"),
		})
		forced, failing := service.failures[failureKey(contextGin.Request.Method, relative)]
		service.mutex.Unlock()
		if failing {
			if forced.message == "" {
				contextGin.AbortWithStatus(forced.status)
				return
			}
			contextGin.AbortWithStatusJSON(forced.status, gin.H{"message": forced.message})
			return
		}
		contextGin.Next()
	}
}

func (service *Service) requireBearer() gin.HandlerFunc {
	validate := requireBearer(service.signingKey)
	return func(contextGin *gin.Context) {
		service.mutex.Lock()
		fixedToken := service.fixedToken
		service.mutex.Unlock()
		if fixedToken != "" && contextGin.GetHeader("Authorization") == "Bearer "+fixedToken {
			contextGin.Next()
			return
		}
		validate(contextGin)
	}
}

func (service *Service) handleLogin(contextGin *gin.Context) {
	var inbound struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := contextGin.ShouldBindJSON(&inbound); err != nil {
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	service.mutex.Lock()
	registered, ok := service.accounts[strings.ToLower(inbound.Email)]
	service.mutex.Unlock()
	if !ok || registered.Password != inbound.Password {
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid email or password"})
		return
	}
	service.respondWithToken(contextGin, registered)
}

func (service *Service) handleRegister(contextGin *gin.Context) {
	var inbound struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := contextGin.ShouldBindJSON(&inbound); err != nil || strings.TrimSpace(inbound.Email) == "" {
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	service.mutex.Lock()
	if _, exists := service.accounts[strings.ToLower(inbound.Email)]; exists {
		service.mutex.Unlock()
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
		return
	}
	registered := account{ID: uuid.NewString(), Name: inbound.Name, Email: inbound.Email, Password: inbound.Password}
	service.accounts[strings.ToLower(inbound.Email)] = registered
	service.mutex.Unlock()
	service.respondWithToken(contextGin, registered)
}

func (service *Service) respondWithToken(contextGin *gin.Context, registered account) {
	service.mutex.Lock()
	fixedToken := service.fixedToken
	service.mutex.Unlock()
	if fixedToken != "" {
		contextGin.JSON(http.StatusOK, gin.H{"token": fixedToken})
		return
	}
	token, err := mintToken(registered.ID, registered.Email, service.signingKey, defaultTokenTTL)
	if err != nil {
		contextGin.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	contextGin.JSON(http.StatusOK, gin.H{"token": token})
}

func (service *Service) handleMe(contextGin *gin.Context) {
	claimsValue, found := contextGin.Get(claimsKey)
	claims, ok := claimsValue.(*accountClaims)
	if !found || !ok {
		contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown account"})
		return
	}
	service.mutex.Lock()
	registered, exists := service.accounts[strings.ToLower(claims.Email)]
	service.mutex.Unlock()
	if !exists {
		contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown account"})
		return
	}
	contextGin.JSON(http.StatusOK, gin.H{"me": gin.H{
		"id":    registered.ID,
		"name":  registered.Name,
		"email": registered.Email,
	}})
}

func (service *Service) handleList(resource Resource) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		records := service.Records(resource.Path)
		sort.SliceStable(records, func(left, right int) bool {
			return idOf(records[left]) < idOf(records[right])
		})
		contextGin.JSON(http.StatusOK, gin.H{resource.ListKey: records, "count": len(records)})
	}
}

func (service *Service) handleGet(resource Resource) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		identifier := contextGin.Param("id")
		for _, record := range service.Records(resource.Path) {
			if idOf(record) == identifier {
				contextGin.JSON(http.StatusOK, gin.H{resource.ItemKey: record})
				return
			}
		}
		contextGin.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": resource.ItemKey + " not found"})
	}
}

func (service *Service) handleCreate(resource Resource) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		var inbound gin.H
		if err := contextGin.ShouldBindJSON(&inbound); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		delete(inbound, "id")
		identifier := service.Seed(resource.Path, inbound)
		inbound["id"] = identifier
		contextGin.JSON(http.StatusCreated, gin.H{resource.ItemKey: inbound})
	}
}

func (service *Service) handleUpdate(resource Resource) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		var inbound gin.H
		if err := contextGin.ShouldBindJSON(&inbound); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		identifier := idOf(inbound)
		service.mutex.Lock()
		defer service.mutex.Unlock()
		for index, record := range service.collections[resource.Path] {
			if idOf(record) != identifier {
				continue
			}
			for key, value := range inbound {
				record[key] = value
			}
			service.collections[resource.Path][index] = record
			contextGin.JSON(http.StatusOK, gin.H{resource.ItemKey: cloneRecord(record)})
			return
		}
		contextGin.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": resource.ItemKey + " not found"})
	}
}

func (service *Service) handleDelete(resource Resource) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		identifier := contextGin.Param("id")
		service.mutex.Lock()
		defer service.mutex.Unlock()
		records := service.collections[resource.Path]
		for index, record := range records {
			if idOf(record) == identifier {
				service.collections[resource.Path] = append(records[:index:index], records[index+1:]...)
				contextGin.Status(http.StatusNoContent)
				return
			}
		}
		contextGin.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": resource.ItemKey + " not found"})
	}
}

func failureKey(method string, path string) string {
	return strings.ToUpper(method) + " " + strings.TrimPrefix(path, "/")
}

func idOf(record gin.H) string {
	switch value := record["id"].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

func cloneRecord(record gin.H) gin.H {
	clone := make(gin.H, len(record))
	for key, value := range record {
		clone[key] = value
	}
	return clone
}
