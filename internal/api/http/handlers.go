package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deviceos/pkgmap/internal/codec"
	"github.com/deviceos/pkgmap/internal/domain/uidmap"
	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
	"github.com/deviceos/pkgmap/internal/shared/id"
	"github.com/deviceos/pkgmap/internal/shared/types"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	tracker *uidmap.Tracker
	logger  *logging.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(tracker *uidmap.Tracker, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracker: tracker,
		logger:  logger,
	}
}

// Root returns the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "pkgmap",
		"status":  "running",
	})
}

// Health returns liveness plus tracker statistics
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stats":  h.tracker.Stats(),
	})
}

// ListEntries returns the full live uid map
func (h *Handlers) ListEntries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entries": h.tracker.Entries(),
	})
}

// DumpEntries writes the live table as plain text, one package per line
func (h *Handlers) DumpEntries(c *gin.Context) {
	var sb strings.Builder
	h.tracker.Dump(&sb)
	c.String(http.StatusOK, sb.String())
}

// ReplaceAll installs a complete new uid map state
func (h *Handlers) ReplaceAll(c *gin.Context) {
	var req types.ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.tracker.ReplaceAll(orNow(req.TimestampNs), req.Entries)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"installed": len(req.Entries),
	})
}

// UpsertApp adds or updates a single package at a uid
func (h *Handlers) UpsertApp(c *gin.Context) {
	var req types.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.tracker.Upsert(orNow(req.TimestampNs), req.Uid, req.PackageName, req.VersionCode)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveApp removes a single package at a uid
func (h *Handlers) RemoveApp(c *gin.Context) {
	var req types.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.tracker.Remove(orNow(req.TimestampNs), req.Uid, req.PackageName)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AppNames returns the package names hosted at a uid
func (h *Handlers) AppNames(c *gin.Context) {
	uid, ok := uidQuery(c, "uid")
	if !ok {
		return
	}
	normalized := c.Query("normalized") == "true"

	c.JSON(http.StatusOK, gin.H{
		"uid":      uid,
		"packages": h.tracker.AppNames(uid, normalized),
	})
}

// AppVersion returns the version code for a (uid, package) pair
func (h *Handlers) AppVersion(c *gin.Context) {
	uid, ok := uidQuery(c, "uid")
	if !ok {
		return
	}
	pkg := c.Query("package")
	if pkg == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "missing package parameter",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid":          uid,
		"package_name": pkg,
		"version_code": h.tracker.AppVersion(uid, pkg),
		"installed":    h.tracker.HasApp(uid, pkg),
	})
}

// UidsForPackage returns every uid hosting a package
func (h *Handlers) UidsForPackage(c *gin.Context) {
	pkg := c.Query("package")
	if pkg == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "missing package parameter",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"package_name": pkg,
		"uids":         h.tracker.UidsForPackage(pkg),
	})
}

// RegisterConsumer registers a drain consumer, generating a key when the
// caller supplies none
func (h *Handlers) RegisterConsumer(c *gin.Context) {
	var req types.ConsumerRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	key := req.Key
	if key == "" {
		key = id.NewConsumerID().String()
	}
	h.tracker.RegisterConsumer(key)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"key":     key,
	})
}

// DeregisterConsumer removes a drain consumer
func (h *Handlers) DeregisterConsumer(c *gin.Context) {
	h.tracker.DeregisterConsumer(c.Param("key"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Drain emits unread history for a consumer as a protowire report and
// advances its watermark
func (h *Handlers) Drain(c *gin.Context) {
	var req types.DrainRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	w := codec.NewReportWriter()
	h.tracker.Drain(c.Param("key"), orNow(req.TimestampNs), w)
	c.Data(http.StatusOK, "application/x-protobuf", w.Bytes())
}

// AssignIsolated maps an isolated uid to its parent uid
func (h *Handlers) AssignIsolated(c *gin.Context) {
	var req types.IsolatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.tracker.AssignIsolated(req.IsolatedUid, req.ParentUid)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReleaseIsolated removes an isolated uid mapping
func (h *Handlers) ReleaseIsolated(c *gin.Context) {
	var req types.IsolatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.tracker.ReleaseIsolated(req.IsolatedUid, req.ParentUid)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveUid maps an isolated uid back to its parent; unknown uids resolve
// to themselves
func (h *Handlers) ResolveUid(c *gin.Context) {
	uid, ok := uidQuery(c, "uid")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid":      uid,
		"resolved": h.tracker.ResolveUid(uid),
	})
}

// ClearHistory wipes the retained history logs (admin/test hook)
func (h *Handlers) ClearHistory(c *gin.Context) {
	h.tracker.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func uidQuery(c *gin.Context, name string) (int32, bool) {
	raw := c.Query(name)
	uid, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid uid parameter: " + raw,
		})
		return 0, false
	}
	return int32(uid), true
}

// orNow substitutes the server clock for an unset timestamp.
func orNow(timestampNs int64) int64 {
	if timestampNs == 0 {
		return time.Now().UnixNano()
	}
	return timestampNs
}
