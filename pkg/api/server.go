// Package api provides the REST and websocket API for launchkeyctl
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/launchkeyctl/pkg/clock"
	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/state"
	"github.com/james-see/launchkeyctl/pkg/surface"
)

// @title launchkeyctl API
// @version 1.0
// @description Control surface API for Launchkey grid controllers
// @host localhost:8080
// @BasePath /api/v1

// Server serves the API for one surface
type Server struct {
	surface *surface.Surface
	engine  *gin.Engine
	hub     *hub
	unsub   []func()
}

// NewServer builds the router and subscribes the websocket hub to the
// surface
func NewServer(s *surface.Surface) *Server {
	srv := &Server{
		surface: s,
		engine:  gin.Default(),
		hub:     newHub(),
	}
	srv.routes()

	srv.unsub = append(srv.unsub,
		s.SubscribeState(func(snap state.Snapshot) { srv.hub.broadcast("state", snap) }),
		s.History().Subscribe(func(e history.Entry) { srv.hub.broadcast("history", e) }),
		s.SubscribeSettings(func(m settings.Map) { srv.hub.broadcast("settings", m) }),
	)
	return srv
}

func (srv *Server) routes() {
	r := srv.engine

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)
	r.GET("/ws", srv.handleWebsocket)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/ports", srv.listPorts)
		v1.GET("/selection", srv.getSelection)
		v1.PUT("/selection", srv.putSelection)
		v1.POST("/connect", srv.connect)
		v1.POST("/disconnect", srv.disconnect)
		v1.GET("/state", srv.getState)
		v1.PUT("/mode", srv.putMode)

		v1.GET("/settings", srv.getSettings)
		v1.PUT("/settings", srv.putSettings)
		v1.PUT("/settings/pads/:mode", srv.putPads)
		v1.PUT("/settings/pads/:mode/:index", srv.putPad)
		v1.DELETE("/settings/pads/:mode/:index", srv.deletePad)
		v1.PUT("/settings/controls/:cc", srv.putControl)
		v1.DELETE("/settings/controls/:cc", srv.deleteControl)
		v1.POST("/sync", srv.sync)

		v1.POST("/send/raw", srv.sendRaw)
		v1.POST("/send/:name", srv.sendNamed)
		v1.GET("/messages", listMessages)

		v1.GET("/history", srv.getHistory)
		v1.DELETE("/history", srv.clearHistory)
		v1.PUT("/history/logging", srv.putLogging)
		v1.PUT("/throttling", srv.putThrottling)

		v1.GET("/clock", srv.getClock)
		v1.POST("/clock/start", srv.startClock)
		v1.POST("/clock/stop", srv.stopClock)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler returns the HTTP handler. JSON responses are gzip compressed;
// the websocket endpoint bypasses compression since it must hijack the
// connection.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", srv.engine)
	mux.Handle("/", handlers.CompressHandler(srv.engine))
	return mux
}

// Close detaches the server from the surface
func (srv *Server) Close() {
	for _, fn := range srv.unsub {
		fn()
	}
	srv.unsub = nil
}

// StartServer serves the API for s on addr
func StartServer(s *surface.Surface, addr string) error {
	srv := NewServer(s)
	defer srv.Close()
	return http.ListenAndServe(addr, srv.Handler())
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, message.ErrInvalidByte),
		errors.Is(err, settings.ErrInvalidMode),
		errors.Is(err, settings.ErrInvalidIndex),
		errors.Is(err, settings.ErrInvalidControl),
		errors.Is(err, settings.ErrInvalidColor),
		errors.Is(err, settings.ErrInvalidDocument),
		errors.Is(err, settings.ErrShiftNotConfigurable):
		return http.StatusBadRequest
	case errors.Is(err, surface.ErrUnknownMessage):
		return http.StatusNotFound
	case errors.Is(err, surface.ErrNoOutput), errors.Is(err, clock.ErrNoOutput):
		return http.StatusConflict
	case errors.Is(err, port.ErrUnavailable), errors.Is(err, port.ErrPortNotFound):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "launchkeyctl",
	})
}

// listPorts godoc
// @Summary List MIDI ports
// @Description Returns the input and output port names reported by the driver
// @Tags ports
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 503 {object} map[string]string
// @Router /ports [get]
func (srv *Server) listPorts(c *gin.Context) {
	inputs, outputs, err := srv.surface.Ports()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inputs": inputs, "outputs": outputs})
}

func (srv *Server) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, srv.surface.Selection())
}

// putSelection godoc
// @Summary Select ports
// @Description Sets the general input, DAW input and output ports
// @Tags ports
// @Accept json
// @Produce json
// @Success 200 {object} surface.Selection
// @Failure 400 {object} map[string]string
// @Router /selection [put]
func (srv *Server) putSelection(c *gin.Context) {
	var sel surface.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, err.Error())
		return
	}
	srv.surface.Select(sel)
	c.JSON(http.StatusOK, srv.surface.Selection())
}

// connect godoc
// @Summary Enter DAW mode
// @Description Sends DAW mode on, the current pad mode and every LED color
// @Tags device
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 409 {object} map[string]string
// @Router /connect [post]
func (srv *Server) connect(c *gin.Context) {
	n, err := srv.surface.Connect(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "sent": n})
}

// disconnect godoc
// @Summary Leave DAW mode
// @Tags device
// @Produce json
// @Success 200 {object} map[string]int
// @Router /disconnect [post]
func (srv *Server) disconnect(c *gin.Context) {
	n, err := srv.surface.Disconnect(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": false, "sent": n})
}

// getState godoc
// @Summary Device state
// @Description Returns the live device state and connection flags
// @Tags device
// @Produce json
// @Success 200 {object} surface.Status
// @Router /state [get]
func (srv *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, srv.surface.Status())
}

type modeRequest struct {
	Mode int `json:"mode"`
}

// putMode godoc
// @Summary Change pad mode
// @Tags device
// @Accept json
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /mode [put]
func (srv *Server) putMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	mode, ok := layout.ParseMode(strconv.Itoa(req.Mode))
	if !ok {
		fail(c, settings.ErrInvalidMode)
		return
	}
	n, err := srv.surface.SetMode(c.Request.Context(), mode)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "sent": n})
}

// getSettings godoc
// @Summary Settings document
// @Description Returns the per-mode pad and control color settings
// @Tags settings
// @Produce json
// @Success 200 {object} settings.Map
// @Router /settings [get]
func (srv *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, srv.surface.Settings().Snapshot())
}

// putSettings godoc
// @Summary Import settings
// @Description Replaces the whole settings document. Invalid documents are rejected unchanged.
// @Tags settings
// @Accept json
// @Produce json
// @Success 200 {object} settings.Map
// @Failure 400 {object} map[string]string
// @Router /settings [put]
func (srv *Server) putSettings(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := settings.ParseMap(data)
	if err != nil {
		fail(c, err)
		return
	}
	if err := srv.surface.Settings().ReplaceAll(m); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, srv.surface.Settings().Snapshot())
}

func modeParam(c *gin.Context) (layout.Mode, bool) {
	mode, ok := layout.ParseMode(c.Param("mode"))
	if !ok {
		fail(c, settings.ErrInvalidMode)
	}
	return mode, ok
}

func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, settings.ErrInvalidIndex)
		return 0, false
	}
	return i, true
}

func ccParam(c *gin.Context) (uint8, bool) {
	cc, err := strconv.ParseUint(c.Param("cc"), 10, 8)
	if err != nil {
		fail(c, settings.ErrInvalidControl)
		return 0, false
	}
	return uint8(cc), true
}

func bindButton(c *gin.Context) (*settings.ButtonSettings, bool) {
	var b settings.ButtonSettings
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	return &b, true
}

// putPad godoc
// @Summary Configure one pad
// @Tags settings
// @Accept json
// @Produce json
// @Param mode path string true "Pad mode"
// @Param index path int true "Pad index 0-15"
// @Success 200 {object} settings.ButtonSettings
// @Failure 400 {object} map[string]string
// @Router /settings/pads/{mode}/{index} [put]
func (srv *Server) putPad(c *gin.Context) {
	mode, ok := modeParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	b, ok := bindButton(c)
	if !ok {
		return
	}
	if err := srv.surface.Settings().SetPad(mode, index, b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (srv *Server) deletePad(c *gin.Context) {
	mode, ok := modeParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := srv.surface.Settings().SetPad(mode, index, nil); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type padsRequest struct {
	Indices  []int                    `json:"indices"`
	Settings *settings.ButtonSettings `json:"settings"`
}

// putPads godoc
// @Summary Configure several pads
// @Description Applies one setting to every listed pad. A null setting clears them.
// @Tags settings
// @Accept json
// @Produce json
// @Param mode path string true "Pad mode"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /settings/pads/{mode} [put]
func (srv *Server) putPads(c *gin.Context) {
	mode, ok := modeParam(c)
	if !ok {
		return
	}
	var req padsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := srv.surface.Settings().SetPads(mode, req.Indices, req.Settings); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indices": req.Indices, "settings": req.Settings})
}

// putControl godoc
// @Summary Configure a control button
// @Tags settings
// @Accept json
// @Produce json
// @Param cc path int true "Control CC"
// @Success 200 {object} settings.ButtonSettings
// @Failure 400 {object} map[string]string
// @Router /settings/controls/{cc} [put]
func (srv *Server) putControl(c *gin.Context) {
	cc, ok := ccParam(c)
	if !ok {
		return
	}
	b, ok := bindButton(c)
	if !ok {
		return
	}
	if err := srv.surface.Settings().SetControl(cc, b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (srv *Server) deleteControl(c *gin.Context) {
	cc, ok := ccParam(c)
	if !ok {
		return
	}
	if err := srv.surface.Settings().SetControl(cc, nil); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// sync godoc
// @Summary Push every LED color
// @Description Sends the full LED plan, or returns it when dry_run is set
// @Tags settings
// @Produce json
// @Param dry_run query bool false "Return the plan without sending"
// @Success 200 {object} map[string]interface{}
// @Router /sync [post]
func (srv *Server) sync(c *gin.Context) {
	if dry, _ := strconv.ParseBool(c.Query("dry_run")); dry {
		c.JSON(http.StatusOK, gin.H{"plan": srv.surface.Plan()})
		return
	}
	n, err := srv.surface.Sync(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": n})
}

type rawRequest struct {
	Bytes []string `json:"bytes"`
	Base  string   `json:"base"`
}

// sendRaw godoc
// @Summary Send a raw message
// @Description Sends three manually entered bytes unmodified
// @Tags send
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /send/raw [post]
func (srv *Server) sendRaw(c *gin.Context) {
	var req rawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, n, err := srv.surface.SendRaw(c.Request.Context(), req.Bytes, message.ParseBase(req.Base))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": m, "sent": n})
}

type namedRequest struct {
	Data2 *uint8 `json:"data2"`
}

// sendNamed godoc
// @Summary Send a registry message
// @Tags send
// @Accept json
// @Produce json
// @Param name path string true "Message name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /send/{name} [post]
func (srv *Server) sendNamed(c *gin.Context) {
	var req namedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if req.Data2 != nil && *req.Data2 > 127 {
		fail(c, message.ErrInvalidByte)
		return
	}
	m, n, err := srv.surface.SendNamed(c.Request.Context(), c.Param("name"), req.Data2)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": m, "sent": n})
}

type namedMessage struct {
	Name    string          `json:"name"`
	Message message.Message `json:"message"`
	Text    string          `json:"text"`
}

func listMessages(c *gin.Context) {
	names := message.Names()
	out := make([]namedMessage, 0, len(names))
	for _, name := range names {
		m, _ := message.Lookup(name)
		out = append(out, namedMessage{Name: name, Message: m, Text: m.String()})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// getHistory godoc
// @Summary Message history
// @Tags history
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} map[string]interface{}
// @Router /history [get]
func (srv *Server) getHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	h := srv.surface.History()
	c.JSON(http.StatusOK, gin.H{
		"enabled": h.Enabled(),
		"entries": h.Entries(limit),
	})
}

func (srv *Server) clearHistory(c *gin.Context) {
	srv.surface.History().Clear()
	c.Status(http.StatusNoContent)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func bindToggle(c *gin.Context) (bool, bool) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return false, false
	}
	if req.Enabled == nil {
		badRequest(c, "enabled is required")
		return false, false
	}
	return *req.Enabled, true
}

func (srv *Server) putLogging(c *gin.Context) {
	enabled, ok := bindToggle(c)
	if !ok {
		return
	}
	srv.surface.SetLogging(enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func (srv *Server) putThrottling(c *gin.Context) {
	enabled, ok := bindToggle(c)
	if !ok {
		return
	}
	srv.surface.SetThrottling(enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func (srv *Server) getClock(c *gin.Context) {
	c.JSON(http.StatusOK, srv.surface.Clock().Status())
}

type clockRequest struct {
	BPM int `json:"bpm"`
}

// startClock godoc
// @Summary Start MIDI clock
// @Description Sends Start then timing clock pulses at the requested BPM (20-300)
// @Tags clock
// @Accept json
// @Produce json
// @Success 200 {object} clock.Status
// @Failure 409 {object} map[string]string
// @Router /clock/start [post]
func (srv *Server) startClock(c *gin.Context) {
	var req clockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if err := srv.surface.StartClock(req.BPM); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, srv.surface.Clock().Status())
}

func (srv *Server) stopClock(c *gin.Context) {
	if err := srv.surface.StopClock(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, srv.surface.Clock().Status())
}

func (srv *Server) handleWebsocket(c *gin.Context) {
	srv.hub.serve(c,
		Frame{Type: "state", Data: srv.surface.Status()},
		Frame{Type: "settings", Data: srv.surface.Settings().Snapshot()},
	)
}
