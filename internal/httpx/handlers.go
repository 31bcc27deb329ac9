// Package httpx is the ingest surface for server-side tagging: it plays the
// page runtime's role, binding the cookie jar to the request/response pair
// and scoping durable state per visitor.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/dispatch"
	"github.com/topekalabs/beacon/internal/ident"
	"github.com/topekalabs/beacon/internal/metrics"
	"github.com/topekalabs/beacon/internal/store"
)

var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00,
}

// sessionCookie scopes durable state per visitor on the shared backend.
const sessionCookie = "_bsid"

type Handler struct {
	bridge     *dispatch.Bridge
	backing    store.Store
	dntRespect bool
	metrics    *metrics.Metrics
	router     *gin.Engine
	log        *zap.Logger
}

func NewHandler(bridge *dispatch.Bridge, backing store.Store, dntRespect bool, m *metrics.Metrics, log *zap.Logger) *Handler {
	h := &Handler{
		bridge:     bridge,
		backing:    backing,
		dntRespect: dntRespect,
		metrics:    m,
		router:     gin.New(),
		log:        log,
	}
	h.router.Use(gin.Recovery())
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/collect", h.collect)
	h.router.GET("/track.gif", h.trackPixel)
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// collect accepts a PageContext document and runs the matching lifecycle flow.
func (h *Handler) collect(c *gin.Context) {
	var pc dispatch.PageContext
	if err := c.ShouldBindJSON(&pc); err != nil {
		h.log.Warn("invalid collect request", zap.Error(err))
		h.countRequest("/collect", http.StatusBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}

	if h.tracking(c) {
		h.bridge.Handle(c.Request.Context(), h.session(c), pc)
	}
	h.countRequest("/collect", http.StatusAccepted)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// trackPixel emits a page view from query parameters alone and answers with a
// 1x1 GIF.
func (h *Handler) trackPixel(c *gin.Context) {
	if h.tracking(c) {
		pageURL := c.Query("url")
		if pageURL == "" {
			pageURL = c.Request.Referer()
		}
		pc := dispatch.PageContext{
			URL:     pageURL,
			Title:   c.Query("title"),
			Trigger: dispatch.TriggerPageView,
		}
		h.bridge.Handle(c.Request.Context(), h.session(c), pc)
	}
	h.countRequest("/track.gif", http.StatusOK)

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/gif", pixelGIF)
}

// tracking reports whether this request may be tracked at all.
func (h *Handler) tracking(c *gin.Context) bool {
	return !(h.dntRespect && c.GetHeader("DNT") == "1")
}

// session binds a visitor session to the request: cookies flow through the
// response, durable state lives under the visitor's session scope.
func (h *Handler) session(c *gin.Context) dispatch.Session {
	jar := &requestJar{c: c}

	sid, ok := jar.Get(sessionCookie)
	if !ok {
		sid = ident.NewGUID()
		jar.Set(store.NewCookie(sessionCookie, sid))
	}

	return dispatch.Session{
		Store: store.Namespaced(h.backing, "visitor:"+sid),
		Jar:   jar,
	}
}

func (h *Handler) countRequest(endpoint string, status int) {
	if h.metrics != nil {
		h.metrics.IncrementHTTPRequests(endpoint, strconv.Itoa(status))
	}
}

// requestJar adapts the CookieJar capability onto a request/response pair.
// Values written during the request are readable again within it, matching
// document.cookie semantics.
type requestJar struct {
	c       *gin.Context
	written map[string]string
}

func (j *requestJar) Get(name string) (string, bool) {
	if v, ok := j.written[name]; ok {
		return v, v != ""
	}
	v, err := j.c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (j *requestJar) Set(ck store.Cookie) {
	j.c.SetSameSite(http.SameSiteLaxMode)
	j.c.SetCookie(ck.Name, ck.Value, int(ck.MaxAge.Seconds()), ck.Path, "", false, false)
	if j.written == nil {
		j.written = make(map[string]string)
	}
	j.written[ck.Name] = ck.Value
}
