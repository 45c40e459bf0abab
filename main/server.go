package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"k8s.io/klog/v2"

	"suratgen"
	"suratgen/assembly"
	"suratgen/placeholders"
	"suratgen/records"
	"suratgen/templatestore"
)

// ---------- daemon ----------
func runServer(a *app) {
	r := newRouter(a)
	klog.Infof("🦌  listening on port %s", a.cfg.Server.Port)
	if err := r.Run(":" + a.cfg.Server.Port); err != nil {
		klog.Fatalf("server: %v", err)
	}
}

type handler struct {
	app    *app
	policy *bluemonday.Policy
}

func newRouter(a *app) *gin.Engine {
	if a.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	policy := bluemonday.UGCPolicy()
	policy.AllowStyles("text-align", "background-color").Globally()
	h := &handler{app: a, policy: policy}

	api := r.Group("/api")
	{
		api.POST("/generate", h.generate)

		tpl := api.Group("/templates")
		{
			tpl.GET("", h.listTemplates)
			tpl.POST("", h.uploadTemplate)
			tpl.GET("/:name/placeholders", h.placeholders)
			tpl.GET("/:name/preview", h.preview)
		}

		rec := api.Group("/records")
		{
			rec.GET("", h.listRecords)
			rec.GET("/export", h.exportRecords)
			rec.GET("/stats", h.stats)
			rec.GET("/:id", h.getRecord)
			rec.DELETE("/:id", h.deleteRecord)
		}
	}
	return r
}

// statusFor maps domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, templatestore.ErrTemplateNotFound), errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, templatestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, templatestore.ErrUnsupportedFormat), errors.Is(err, suratgen.ErrMalformedTemplate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// generate - POST /api/generate with a form body. ?download=1 streams the
// docx instead of returning the result.
func (h *handler) generate(c *gin.Context) {
	var f assembly.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	// workbooks are a CLI feature, the daemon takes rows inline
	f.RowsXLSX = ""
	if strings.TrimSpace(f.Template) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template is required"})
		return
	}
	if _, err := f.Mapping(time.Now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, rec, err := h.app.generate(c.Request.Context(), f, nil)
	if err != nil {
		fail(c, err)
		return
	}

	if c.Query("download") != "" {
		c.FileAttachment(res.DocxPath, filepath.Base(res.DocxPath))
		return
	}

	body := gin.H{
		"docx_path":  res.DocxPath,
		"pdf_path":   res.PDFPath,
		"unresolved": res.Unresolved,
	}
	if res.PDFErr != nil {
		body["pdf_error"] = res.PDFErr.Error()
	}
	if rec != nil {
		body["record_id"] = rec.ID
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) listTemplates(c *gin.Context) {
	var category templatestore.Category
	if raw := c.Query("category"); raw != "" {
		var err error
		if category, err = templatestore.ParseCategory(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	entries := h.app.store.List(category)
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"name":        e.Name,
			"category":    e.Category,
			"version":     e.Version,
			"is_new":      e.IsNew,
			"imported_at": e.ImportedAt,
			"description": e.Description,
			"cached":      len(e.Content) > 0,
		})
	}
	c.JSON(http.StatusOK, out)
}

// uploadTemplate - multipart "file" plus optional "category".
func (h *handler) uploadTemplate(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	name := filepath.Base(fh.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		fail(c, fmt.Errorf("%w: %s, only .docx is accepted", templatestore.ErrUnsupportedFormat, name))
		return
	}
	if fh.Size > templatestore.MaxTemplateSize {
		fail(c, fmt.Errorf("%w: %s", templatestore.ErrTooLarge, name))
		return
	}

	var category templatestore.Category
	if raw := c.PostForm("category"); raw != "" {
		category, err = templatestore.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer func() {
		_ = src.Close()
	}()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(src, templatestore.MaxTemplateSize+1)); err != nil {
		fail(c, err)
		return
	}
	if _, err := suratgen.OpenBytes(buf.Bytes()); err != nil {
		fail(c, err)
		return
	}

	e, err := h.app.store.ImportEntry(templatestore.Entry{
		Name:     name,
		Content:  buf.Bytes(),
		Category: category,
		IsNew:    true,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": e.Name, "category": e.Category, "version": e.Version})
}

func (h *handler) openTemplate(name string) (*suratgen.Docx, error) {
	data, err := h.app.store.Resolve(name)
	if err != nil {
		return nil, err
	}
	return suratgen.OpenBytes(data)
}

// placeholders - tokens in a template and which of them the registry knows.
func (h *handler) placeholders(c *gin.Context) {
	doc, err := h.openTemplate(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	names := doc.Placeholders()
	unknown := []string{}
	for _, n := range names {
		if !placeholders.Default().Known(n) && !suratgen.IsTableToken(n) {
			unknown = append(unknown, n)
		}
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "placeholders": names, "unknown": unknown})
}

func (h *handler) preview(c *gin.Context) {
	doc, err := h.openTemplate(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	page := suratgen.WrapHTML(h.policy.Sanitize(doc.BodyHTML()))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h *handler) needRecords(c *gin.Context) bool {
	if h.app.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled without a database"})
		return false
	}
	return true
}

func (h *handler) listRecords(c *gin.Context) {
	if !h.needRecords(c) {
		return
	}
	var (
		recs []records.Record
		err  error
	)
	if q := c.Query("q"); q != "" {
		recs, err = h.app.records.Search(q, c.Query("form_type"))
	} else {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		recs, err = h.app.records.List(c.Query("form_type"), limit)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *handler) getRecord(c *gin.Context) {
	if !h.needRecords(c) {
		return
	}
	rec, err := h.app.records.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	trail, err := h.app.records.AuditTrail(rec.ID, 50)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec, "audit": trail})
}

func (h *handler) deleteRecord(c *gin.Context) {
	if !h.needRecords(c) {
		return
	}
	if err := h.app.records.Delete(c.Param("id"), c.DefaultQuery("user", "system")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

const exportLimit = 100000

func (h *handler) exportRecords(c *gin.Context) {
	if !h.needRecords(c) {
		return
	}
	recs, err := h.app.records.List(c.Query("form_type"), exportLimit)
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		err = records.WriteCSV(&buf, recs)
		c.Header("Content-Disposition", `attachment; filename="sejarah.csv"`)
		if err == nil {
			c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		}
	case "xlsx":
		err = records.WriteXLSX(&buf, recs)
		c.Header("Content-Disposition", `attachment; filename="sejarah.xlsx"`)
		if err == nil {
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	if err != nil {
		fail(c, err)
	}
}

func (h *handler) stats(c *gin.Context) {
	if !h.needRecords(c) {
		return
	}
	s, err := h.app.records.Stats(c.Query("form_type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
