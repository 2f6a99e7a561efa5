package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/camera"
	"github.com/annel0/gridkit/internal/footprint"
	"github.com/annel0/gridkit/internal/history"
	"github.com/annel0/gridkit/internal/logging"
	"github.com/annel0/gridkit/internal/middleware"
	"github.com/annel0/gridkit/internal/placement"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	manager *placement.Manager
	history *history.History
	camera  *camera.Limiter
	drag    footprint.ShapeOptions
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr        string                 // адрес для запуска сервера
	ServiceName string                 // имя сервиса в трассировке и метриках
	Manager     *placement.Manager     // менеджер размещения
	History     *history.History       // история действий; nil – создаётся своя
	Camera      *camera.Limiter        // ограничитель дальности; nil – без /api/camera
	Drag        footprint.ShapeOptions // ограничения протягивания по умолчанию
	Registerer  prometheus.Registerer
	Logger      *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "gridkit"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}
	if cfg.History == nil {
		cfg.History = history.New(cfg.Manager, 0)
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())
	router.Use(middleware.NewPrometheusMiddleware(cfg.ServiceName, cfg.Registerer).Handler())

	rs := &RestServer{
		router:  router,
		manager: cfg.Manager,
		history: cfg.History,
		camera:  cfg.Camera,
		drag:    cfg.Drag,
		metrics: NewServerMetrics(),
		logger:  cfg.Logger,
	}
	rs.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/descriptors", rs.handleDescriptors)

		api.GET("/grids", rs.handleGrids)
		api.PUT("/grids/:name/active", rs.handleSetActiveGrid)
		api.GET("/grids/:name/cells/:x/:y", rs.handleCell)

		api.POST("/pointer", rs.handlePointer)
		api.POST("/preview", rs.handlePreview)
		api.POST("/drag", rs.handleDrag)
		api.POST("/path", rs.handlePath)

		api.GET("/objects", rs.handleObjects)
		api.POST("/objects", rs.handlePlace)
		api.GET("/objects/:id", rs.handleObject)
		api.DELETE("/objects/:id", rs.handleDestroy)
		api.POST("/objects/:id/move", rs.handleMove)
		api.POST("/objects/:id/rotate", rs.handleRotate)
		api.POST("/objects/:id/flip", rs.handleFlip)

		api.POST("/undo", rs.handleUndo)
		api.POST("/redo", rs.handleRedo)

		api.GET("/heatmap/:grid/:layer/:name", rs.handleHeatMap)

		if rs.camera != nil {
			api.POST("/camera", rs.handleCamera)
		}
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь текущих запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// statusFor переводит ошибку размещения в HTTP-статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, placement.ErrUnknownGrid),
		errors.Is(err, placement.ErrUnknownDescriptor),
		errors.Is(err, placement.ErrUnknownObject):
		return http.StatusNotFound
	case errors.Is(err, placement.ErrNotFinalized):
		return http.StatusServiceUnavailable
	case errors.Is(err, placement.ErrNotDestructible),
		errors.Is(err, placement.ErrNotMovable):
		return http.StatusForbidden
	case errors.Is(err, placement.ErrTransactionRollback),
		errors.Is(err, placement.ErrOutOfBounds),
		errors.Is(err, placement.ErrOccupied),
		errors.Is(err, placement.ErrAreaDisabled),
		errors.Is(err, placement.ErrTooFar),
		errors.Is(err, placement.ErrInvalidVerticalLayer),
		errors.Is(err, history.ErrNothingToUndo),
		errors.Is(err, history.ErrNothingToRedo):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func fail(c *gin.Context, err error, data interface{}) {
	c.JSON(statusFor(err), GenericResponse{Success: false, Message: err.Error(), Data: data})
}

// failResult добавляет к ошибке итог проверки, если размещение отклонено
func failResult(c *gin.Context, err error, res placement.Result) {
	if res.Decision.Allowed() {
		fail(c, err, nil)
		return
	}
	fail(c, err, resultView(res))
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: true, Message: message, Data: data})
}

// request собирает запрос размещения из JSON
func (rs *RestServer) request(body PlacementRequest) (placement.Request, error) {
	if body.Descriptor == "" {
		return placement.Request{}, fmt.Errorf("не указан descriptor")
	}
	desc, found := rs.manager.Registry().Get(body.Descriptor)
	if !found {
		return placement.Request{}, fmt.Errorf("%w: %q", placement.ErrUnknownDescriptor, body.Descriptor)
	}
	p, err := body.toPlacement(desc)
	if err != nil {
		return placement.Request{}, err
	}
	return placement.Request{Descriptor: desc.ID, Placement: p}, nil
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	ok(c, http.StatusOK, "Статистика получена", gin.H{
		"grids":    len(rs.manager.Grids()),
		"objects":  len(rs.manager.Objects()),
		"can_undo": rs.history.CanUndo(),
		"can_redo": rs.history.CanRedo(),
		"server":   rs.metrics.Snapshot(),
	})
}

func (rs *RestServer) handleDescriptors(c *gin.Context) {
	reg := rs.manager.Registry()
	out := make([]DescriptorView, 0)
	for _, id := range reg.IDs() {
		if d, found := reg.Get(id); found {
			out = append(out, descriptorView(d))
		}
	}
	ok(c, http.StatusOK, "Типы объектов", out)
}

func (rs *RestServer) handleGrids(c *gin.Context) {
	active := rs.manager.ActiveGrid()
	specs := rs.manager.Grids()
	out := make([]GridView, 0, len(specs))
	for _, s := range specs {
		out = append(out, GridView{
			Name:        s.Name,
			Orientation: s.Orientation.String(),
			Origin:      s.Origin,
			Width:       s.Width,
			Length:      s.Length,
			CellSize:    s.CellSize,
			Layers:      s.Layers,
			LayerHeight: s.LayerHeight,
			Active:      s.Name == active,
		})
	}
	ok(c, http.StatusOK, "Сетки", out)
}

func (rs *RestServer) handleSetActiveGrid(c *gin.Context) {
	if err := rs.manager.SetActiveGrid(c.Param("name")); err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Активная сетка изменена", gin.H{"active": c.Param("name")})
}

func (rs *RestServer) handleCell(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	layer, errL := strconv.Atoi(c.DefaultQuery("layer", "0"))
	if errX != nil || errY != nil || errL != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверные координаты ячейки"})
		return
	}

	cell := vec.Vec2{X: x, Y: y}
	rec, err := rs.manager.CellData(c.Param("name"), layer, cell)
	if errors.Is(err, placement.ErrOutOfBounds) {
		c.JSON(http.StatusNotFound, GenericResponse{Message: err.Error()})
		return
	}
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Ячейка", cellView(cell, layer, rec))
}

// PointerRequest луч указателя
type PointerRequest struct {
	Grid       string        `json:"grid"`
	Layer      int           `json:"layer"`
	Origin     vec.Vec3Float `json:"origin"`
	Direction  vec.Vec3Float `json:"direction"`
	Descriptor string        `json:"descriptor"`
}

func (rs *RestServer) handlePointer(c *gin.Context) {
	var body PointerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	hit, found, err := rs.manager.Pointer(body.Grid, body.Layer, body.Origin, body.Direction, body.Descriptor)
	if err != nil {
		fail(c, err, nil)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "Луч не попал в сетку"})
		return
	}
	ok(c, http.StatusOK, "Попадание", gin.H{
		"grid":            hit.Grid,
		"point":           hit.Point,
		"cell":            cellOf(hit.Cell),
		"layer":           hit.Layer,
		"corner":          hit.Corner.String(),
		"corner_position": hit.CornerPosition,
		"edge":            hit.Edge.String(),
	})
}

func (rs *RestServer) handlePreview(c *gin.Context) {
	var body PlacementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	req, err := rs.request(body)
	if err != nil {
		fail(c, err, nil)
		return
	}
	preview, err := rs.manager.Preview(req)
	if err != nil {
		fail(c, err, nil)
		return
	}
	desc, _ := rs.manager.Registry().Get(req.Descriptor)
	ok(c, http.StatusOK, "Предпросмотр", PreviewView{
		Decision: decisionView(preview.Decision),
		Position: preview.Position,
		Slots:    slotsView(desc.Kind, preview.Slots),
	})
}

// DragRequest протягивание формы от якоря placement до To
type DragRequest struct {
	Placement     PlacementRequest `json:"placement"`
	To            Cell             `json:"to"`
	Shape         string           `json:"shape"`
	EndpointsOnly bool             `json:"endpoints_only"`
	MaxCount      int              `json:"max_count"`
	Commit        bool             `json:"commit"`
}

func (rs *RestServer) handleDrag(c *gin.Context) {
	var body DragRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	shape, err := footprint.ParsePlacementShape(body.Shape)
	if err != nil {
		fail(c, err, nil)
		return
	}
	req, err := rs.request(body.Placement)
	if err != nil {
		fail(c, err, nil)
		return
	}
	opts := rs.drag
	opts.EndpointsOnly = opts.EndpointsOnly || body.EndpointsOnly
	if body.MaxCount > 0 && (opts.MaxCount == 0 || body.MaxCount < opts.MaxCount) {
		opts.MaxCount = body.MaxCount
	}
	drag, err := rs.manager.StartDrag(req, shape, opts)
	if err != nil {
		fail(c, err, nil)
		return
	}

	previews, err := drag.Update(body.To.toVec())
	if err != nil {
		fail(c, err, nil)
		return
	}
	if !body.Commit {
		drag.Cancel()
		out := make([]DecisionView, 0, len(previews))
		for _, p := range previews {
			out = append(out, decisionView(p.Decision))
		}
		ok(c, http.StatusOK, "Предпросмотр формы", out)
		return
	}

	results, err := drag.Commit()
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Форма размещена", resultsView(results))
}

// PathRequest размещение free-объектов вдоль ломаной
type PathRequest struct {
	Placement PlacementRequest `json:"placement"`
	Points    []vec.Vec3Float  `json:"points" binding:"required"`
	Spacing   float64          `json:"spacing"`
}

func (rs *RestServer) handlePath(c *gin.Context) {
	var body PathRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	if len(body.Points) > 0 && body.Placement.Position == nil {
		start := body.Points[0]
		body.Placement.Position = &start
	}
	req, err := rs.request(body.Placement)
	if err != nil {
		fail(c, err, nil)
		return
	}
	results, err := rs.manager.PlaceAlongPath(req, body.Points, body.Spacing)
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Путь размещён", resultsView(results))
}

func resultsView(results []placement.Result) gin.H {
	out := make([]ResultView, 0, len(results))
	placed := 0
	for _, r := range results {
		if r.Success {
			placed++
		}
		out = append(out, resultView(r))
	}
	return gin.H{"placed": placed, "results": out}
}

func (rs *RestServer) handleObjects(c *gin.Context) {
	gridName := c.Query("grid")
	out := make([]ObjectView, 0)
	for _, obj := range rs.manager.Objects() {
		if gridName != "" && obj.Placement.Grid != gridName {
			continue
		}
		out = append(out, objectView(obj))
	}
	ok(c, http.StatusOK, "Объекты", out)
}

func (rs *RestServer) handleObject(c *gin.Context) {
	obj, found := rs.manager.Object(buildable.ObjectID(c.Param("id")))
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "Объект не найден"})
		return
	}
	ok(c, http.StatusOK, "Объект", objectView(obj))
}

func (rs *RestServer) handlePlace(c *gin.Context) {
	var body PlacementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	req, err := rs.request(body)
	if err != nil {
		fail(c, err, nil)
		return
	}
	res, err := rs.history.Place(req)
	if err != nil {
		failResult(c, err, res)
		return
	}
	ok(c, http.StatusCreated, "Объект размещён", resultView(res))
}

func (rs *RestServer) handleDestroy(c *gin.Context) {
	id := buildable.ObjectID(c.Param("id"))
	destroyed, err := rs.history.DestroyByUser(id)
	if err != nil {
		fail(c, err, nil)
		return
	}
	if !destroyed {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "Объект не найден"})
		return
	}
	ok(c, http.StatusOK, "Объект уничтожен", gin.H{"id": id})
}

func (rs *RestServer) handleMove(c *gin.Context) {
	id := buildable.ObjectID(c.Param("id"))
	obj, found := rs.manager.Object(id)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "Объект не найден"})
		return
	}

	var body PlacementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	target, err := body.toPlacement(obj.Descriptor)
	if err != nil {
		fail(c, err, nil)
		return
	}
	if target.Grid == "" {
		target.Grid = obj.Placement.Grid
	}
	res, err := rs.history.Move(id, target)
	if err != nil {
		failResult(c, err, res)
		return
	}
	ok(c, http.StatusOK, "Объект перемещён", resultView(res))
}

func (rs *RestServer) handleRotate(c *gin.Context) {
	clockwise := c.DefaultQuery("dir", "cw") != "ccw"
	res, err := rs.history.Rotate(buildable.ObjectID(c.Param("id")), clockwise)
	if err != nil {
		failResult(c, err, res)
		return
	}
	ok(c, http.StatusOK, "Объект повёрнут", resultView(res))
}

func (rs *RestServer) handleFlip(c *gin.Context) {
	res, err := rs.history.Flip(buildable.ObjectID(c.Param("id")))
	if err != nil {
		failResult(c, err, res)
		return
	}
	ok(c, http.StatusOK, "Объект отражён", resultView(res))
}

func (rs *RestServer) handleUndo(c *gin.Context) {
	if err := rs.history.Undo(); err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Действие отменено", gin.H{"can_undo": rs.history.CanUndo(), "can_redo": rs.history.CanRedo()})
}

func (rs *RestServer) handleRedo(c *gin.Context) {
	if err := rs.history.Redo(); err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, "Действие повторено", gin.H{"can_undo": rs.history.CanUndo(), "can_redo": rs.history.CanRedo()})
}

func (rs *RestServer) handleHeatMap(c *gin.Context) {
	layer, err := strconv.Atoi(c.Param("layer"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный слой"})
		return
	}
	spec, err := rs.manager.Grid(c.Param("grid"))
	if err != nil {
		fail(c, err, nil)
		return
	}
	heat, err := rs.manager.HeatMap(spec.Name, layer)
	if err != nil {
		fail(c, err, nil)
		return
	}
	name := c.Param("name")
	min, max := heat.Range(name)
	ok(c, http.StatusOK, "Тепловая карта", HeatMapView{
		Name:   name,
		Width:  spec.Width,
		Length: spec.Length,
		Min:    min,
		Max:    max,
		Values: heat.Normalized(name),
	})
}

// CameraRequest обновляет положение камеры и персонажа
type CameraRequest struct {
	Mode     string         `json:"mode"`
	Position *vec.Vec3Float `json:"position"`
	Target   *vec.Vec3Float `json:"target"`
}

func (rs *RestServer) handleCamera(c *gin.Context) {
	var body CameraRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса: " + err.Error()})
		return
	}
	if body.Mode != "" {
		mode, err := camera.ParseMode(body.Mode)
		if err != nil {
			fail(c, err, nil)
			return
		}
		rs.camera.SetMode(mode)
	}
	if body.Position != nil {
		rs.camera.SetCamera(*body.Position)
	}
	if body.Target != nil {
		rs.camera.SetTarget(*body.Target)
	}
	ok(c, http.StatusOK, "Камера обновлена", gin.H{"unrestricted": rs.camera.Unrestricted()})
}
