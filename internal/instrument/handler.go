package instrument

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazi-backend/internal/store"
)

// EventHandler exposes REST endpoints for querying and emitting events.
type EventHandler struct {
	db      *sql.DB
	dialect store.Dialect
}

// NewEventHandler creates an EventHandler backed by the given db and dialect.
func NewEventHandler(db *sql.DB, dialect store.Dialect) *EventHandler {
	return &EventHandler{db: db, dialect: dialect}
}

// RegisterEventRoutes mounts the event endpoints. Emitting needs any valid
// token; querying is admin only. The emit route must be registered before
// the admin group is created so its requests never pass through adminMW.
func RegisterEventRoutes(app *fiber.App, h *EventHandler, authMW, adminMW fiber.Handler) {
	api := app.Group("/api/events", authMW)
	api.Post("/", h.Emit)

	admin := app.Group("/api/events", authMW, adminMW)
	admin.Get("/", h.List)
	admin.Get("/trace/:traceId", h.GetTrace)
	admin.Get("/stats", h.GetStats)
}

const eventColumns = "id, trace_id, span_id, parent_span_id, event_type, source, component, action, category, rule_code, user_id, duration_ms, status, metadata, created_at"

// eventFilter maps one query parameter onto one WHERE predicate.
type eventFilter struct {
	param string
	col   string
	op    string
}

var listFilters = []eventFilter{
	{"source", "source", "="},
	{"component", "component", "="},
	{"action", "action", "="},
	{"category", "category", "="},
	{"rule_code", "rule_code", "="},
	{"event_type", "event_type", "="},
	{"trace_id", "trace_id", "="},
	{"user_id", "user_id", "="},
	{"status", "status", "="},
	{"from", "created_at", ">="},
	{"to", "created_at", "<="},
}

// statsFilters is the slice of listFilters that makes sense for aggregates.
var statsFilters = []eventFilter{
	{"category", "category", "="},
	{"from", "created_at", ">="},
	{"to", "created_at", "<="},
}

// whereFrom collects the predicates for the request's query parameters
// into pb and returns the WHERE clause, or "" when nothing filters.
func whereFrom(c *fiber.Ctx, pb store.ParamBuilder, filters []eventFilter, fixed ...string) string {
	conds := append([]string(nil), fixed...)
	for _, f := range filters {
		if v := c.Query(f.param); v != "" {
			conds = append(conds, fmt.Sprintf("%s %s %s", f.col, f.op, pb.Add(v)))
		}
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// Emit handles POST /api/events. Any authenticated caller may record a
// business event; it rides the request's trace.
func (h *EventHandler) Emit(c *fiber.Ctx) error {
	var body struct {
		Action   string         `json:"action"`
		Category string         `json:"category"`
		RuleCode string         `json:"rule_code"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": fiber.Map{"code": "INVALID_PAYLOAD", "message": "Invalid JSON body"}})
	}
	if body.Action == "" {
		return c.Status(422).JSON(fiber.Map{"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "action is required"}})
	}

	inst := GetInstrumenter(c.UserContext())
	inst.EmitBusinessEvent(c.UserContext(), body.Action, body.Category, body.RuleCode, body.Metadata)

	return c.JSON(fiber.Map{"data": fiber.Map{"status": "ok"}})
}

// List handles GET /api/events. Every event column except the payload is
// filterable; results are paginated and ordered by created_at.
func (h *EventHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 100 {
		perPage = 100
	}

	orderBy := "created_at DESC"
	if c.Query("sort", "-created_at") == "created_at" {
		orderBy = "created_at ASC"
	}

	pb := h.dialect.NewParamBuilder()
	where := whereFrom(c, pb, listFilters)

	countRow, err := store.QueryRow(ctx, h.db, "SELECT COUNT(*) AS count FROM _events"+where, pb.Params()...)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	total := toInt(countRow["count"])

	// The WHERE placeholders stay valid when limit and offset extend the
	// same builder.
	dataSQL := fmt.Sprintf("SELECT %s FROM _events%s ORDER BY %s LIMIT %s OFFSET %s",
		eventColumns, where, orderBy, pb.Add(perPage), pb.Add((page-1)*perPage))
	rows, err := store.QueryRows(ctx, h.db, dataSQL, pb.Params()...)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{
		"data": rows,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// GetTrace handles GET /api/events/trace/:traceId. It returns every span
// of the trace in start order plus a parent/child waterfall.
func (h *EventHandler) GetTrace(c *fiber.Ctx) error {
	ctx := c.UserContext()
	traceID := c.Params("traceId")
	if traceID == "" {
		return c.Status(422).JSON(fiber.Map{"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "trace_id is required"}})
	}

	pb := h.dialect.NewParamBuilder()
	rows, err := store.QueryRows(ctx, h.db,
		fmt.Sprintf("SELECT %s FROM _events WHERE trace_id = %s ORDER BY created_at ASC",
			eventColumns, pb.Add(traceID)), pb.Params()...)
	if err != nil {
		return fmt.Errorf("get trace: %w", err)
	}
	if len(rows) == 0 {
		return c.Status(404).JSON(fiber.Map{"error": fiber.Map{"code": "NOT_FOUND", "message": "Trace not found: " + traceID}})
	}

	children := make(map[string][]map[string]any, len(rows))
	var root map[string]any
	for _, row := range rows {
		if parent, ok := row["parent_span_id"].(string); ok && parent != "" {
			children[parent] = append(children[parent], row)
		} else if root == nil {
			root = row
		}
	}
	for _, row := range rows {
		spanID, _ := row["span_id"].(string)
		kids := children[spanID]
		if kids == nil {
			kids = []map[string]any{}
		}
		row["children"] = kids
	}
	// Orphaned traces (root span not flushed yet) fall back to the
	// earliest span.
	if root == nil {
		root = rows[0]
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"trace_id":          traceID,
			"root_span":         root,
			"spans":             rows,
			"total_duration_ms": root["duration_ms"],
		},
	})
}

// GetStats handles GET /api/events/stats: request totals, latency and
// error rate, overall and per source. from, to and category narrow the
// window.
func (h *EventHandler) GetStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	errCount := h.dialect.FilterCountExpr("status = 'error'")

	p95 := "NULL"
	if h.dialect.SupportsPercentile() {
		p95 = h.dialect.PercentileExpr(0.95, "duration_ms")
	}

	// Per-source rows only aggregate spans that carry a duration.
	spb := h.dialect.NewParamBuilder()
	sourceWhere := whereFrom(c, spb, statsFilters, "duration_ms IS NOT NULL")
	sourceRows, err := store.QueryRows(ctx, h.db, fmt.Sprintf(
		"SELECT source, COUNT(*) AS count, AVG(duration_ms) AS avg_duration_ms, %s AS p95_duration_ms, %s AS error_count FROM _events%s GROUP BY source ORDER BY count DESC",
		p95, errCount, sourceWhere), spb.Params()...)
	if err != nil {
		return fmt.Errorf("stats by source: %w", err)
	}

	opb := h.dialect.NewParamBuilder()
	overallWhere := whereFrom(c, opb, statsFilters)
	totalRow, err := store.QueryRow(ctx, h.db, fmt.Sprintf(
		"SELECT COUNT(*) AS total_events, AVG(duration_ms) AS avg_latency_ms, %s AS p95_latency_ms, %s AS error_count FROM _events%s",
		p95, errCount, overallWhere), opb.Params()...)
	if err != nil {
		return fmt.Errorf("overall stats: %w", err)
	}

	totalEvents := toInt(totalRow["total_events"])
	avgLatency := totalRow["avg_latency_ms"]
	p95Latency := totalRow["p95_latency_ms"]
	var errorRate float64
	if totalEvents > 0 {
		errorRate = math.Round(float64(toInt(totalRow["error_count"]))/float64(totalEvents)*10000) / 10000
	}

	bySource := make([]fiber.Map, 0, len(sourceRows))
	for _, row := range sourceRows {
		bySource = append(bySource, fiber.Map{
			"source":          row["source"],
			"count":           toInt(row["count"]),
			"avg_duration_ms": row["avg_duration_ms"],
			"p95_duration_ms": row["p95_duration_ms"],
			"error_count":     toInt(row["error_count"]),
		})
	}

	// SQLite has no percentile_cont; one pass over the measured spans
	// fills the p95 columns instead.
	if !h.dialect.SupportsPercentile() {
		overall, perSource, err := h.durationsBySource(c)
		if err != nil {
			return err
		}
		p95Latency = nil
		if v, ok := percentile(overall, 0.95); ok {
			p95Latency = v
		}
		for _, bs := range bySource {
			bs["p95_duration_ms"] = nil
			if src, ok := bs["source"].(string); ok {
				if v, ok := percentile(perSource[src], 0.95); ok {
					bs["p95_duration_ms"] = v
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"total_events":   totalEvents,
			"avg_latency_ms": avgLatency,
			"p95_latency_ms": p95Latency,
			"error_rate":     errorRate,
			"by_source":      bySource,
		},
	})
}

// durationsBySource fetches every measured duration in the request's
// window, grouped by source.
func (h *EventHandler) durationsBySource(c *fiber.Ctx) ([]float64, map[string][]float64, error) {
	pb := h.dialect.NewParamBuilder()
	where := whereFrom(c, pb, statsFilters, "duration_ms IS NOT NULL")
	rows, err := store.QueryRows(c.UserContext(), h.db,
		"SELECT source, duration_ms FROM _events"+where, pb.Params()...)
	if err != nil {
		return nil, nil, fmt.Errorf("stats durations: %w", err)
	}

	var overall []float64
	perSource := make(map[string][]float64)
	for _, row := range rows {
		d := toFloat(row["duration_ms"])
		overall = append(overall, d)
		if src, ok := row["source"].(string); ok {
			perSource[src] = append(perSource[src], d)
		}
	}
	return overall, perSource, nil
}

// percentile sorts values in place and picks the pct-th one. ok is false
// when there is nothing to measure.
func percentile(values []float64, pct float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sort.Float64s(values)
	idx := int(float64(len(values)) * pct)
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx], true
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
