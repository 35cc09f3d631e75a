package main

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asistencia/internal/attendance"
	"asistencia/internal/auth"
	"asistencia/internal/capture"
	"asistencia/internal/config"
	"asistencia/internal/export"
	"asistencia/internal/geocode"
	"asistencia/internal/httpmiddleware"
	"asistencia/internal/pipeline"
	"asistencia/internal/queue"
	"asistencia/internal/share"
	"asistencia/internal/store"
	"asistencia/internal/timeclient"
	"asistencia/internal/watermark"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable yet: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "asistencia:bajas")
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, cfg.DedupWindow, cfg.CompanyDomain)

	var logo image.Image
	if strings.HasPrefix(cfg.LogoPath, "http://") || strings.HasPrefix(cfg.LogoPath, "https://") {
		logo = watermark.FetchLogo(context.Background(), cfg.LogoPath)
	} else {
		logo = watermark.LoadLogo(cfg.LogoPath)
	}
	stamper := watermark.NewStamper(logo)
	times := timeclient.New(cfg.TimeAPIURL)
	places := geocode.New(cfg.GeocodeURL, redisClient.Client, cfg.GeocodeCacheTTL)
	runner := pipeline.NewRunner(times, places, stamper, cfg.LocateTimeout)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/login", func(c *gin.Context) {
		var req struct {
			Usuario  string `json:"usuario" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		emp, err := svc.VerifyLogin(c.Request.Context(), req.Usuario, req.Password)
		if err != nil {
			if errors.Is(err, attendance.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "usuario o contraseña incorrectos"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		tokens, err := auth.Issue(emp.Email, auth.RoleEmployee, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
			"usuario":       emp.Email,
		})
	})

	authGroup := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Admin gate: a logged-in employee exchanges the shared passphrase for
	// an admin-role token. The passphrase is checked server side.
	authGroup.POST("/admin/gate", func(c *gin.Context) {
		var req struct {
			Passphrase string `json:"passphrase" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.VerifyAdminGate(c.Request.Context(), req.Passphrase); err != nil {
			if errors.Is(err, attendance.ErrBadPassphrase) {
				c.JSON(http.StatusForbidden, gin.H{"error": "clave incorrecta"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		claims := auth.FromContext(c)
		tokens, err := auth.Issue(claims.Subject, auth.RoleAdmin, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": tokens.AccessToken,
			"expires_at":   tokens.AccessExp.Unix(),
		})
	})

	// Stamp endpoint runs the watermark pipeline for the authenticated
	// actor and returns the composited evidence plus the assembled record.
	// Nothing is persisted until the caller confirms via /v1/checkins.
	authGroup.POST("/stamps", func(c *gin.Context) {
		var req struct {
			Mode     string   `json:"mode" binding:"required"`
			Frame    string   `json:"frame" binding:"required"`
			Lat      *float64 `json:"lat"`
			Lng      *float64 `json:"lng"`
			Accuracy float64  `json:"accuracy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind, err := attendance.ParseKind(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var loc pipeline.Locator
		if req.Lat != nil && req.Lng != nil {
			loc = pipeline.Fixed{Lat: *req.Lat, Lng: *req.Lng, Accuracy: req.Accuracy}
		} else {
			loc = noFix{}
		}

		claims := auth.FromContext(c)
		res, err := runner.Run(c.Request.Context(), capture.NewDataURL(req.Frame), loc, claims.Subject, kind)
		if err != nil {
			switch {
			case errors.Is(err, pipeline.ErrLocationUnavailable):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no se pudo obtener la ubicación"})
			case errors.Is(err, capture.ErrCameraNotReady), errors.Is(err, capture.ErrImageDecode):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		if c.Query("format") == "jpeg" {
			share.WriteJPEG(c.Writer, share.EvidenceFileName(res.Record), res.Image)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"image":     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(res.Image),
			"record":    res.Record,
			"timestamp": res.Timestamp,
			"coords":    res.Coords,
			"warning":   res.Warning,
			"filename":  share.EvidenceFileName(res.Record),
			"summary":   share.SummaryText(res.Record),
		})
	})

	// Confirm endpoint persists the record produced by /stamps. On failure
	// the caller keeps its preview state and may retry.
	authGroup.POST("/checkins", func(c *gin.Context) {
		var rec attendance.Record
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims := auth.FromContext(c)
		if claims.Subject != "" && claims.Subject != rec.Actor {
			c.JSON(http.StatusForbidden, gin.H{"error": "actor mismatch"})
			return
		}
		saved, err := svc.CheckIn(c.Request.Context(), rec)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"record": saved})
	})

	admin := authGroup.Group("", auth.RequireRole(auth.RoleAdmin))

	admin.GET("/records", func(c *gin.Context) {
		from, to, err := dayRange(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		records, err := svc.Records(c.Request.Context(), c.Query("usuario"), from, to, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	admin.GET("/records/export", func(c *gin.Context) {
		from, to, err := dayRange(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		records, err := svc.Records(c.Request.Context(), c.Query("usuario"), from, to, 100000, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out, err := export.RecordsCSV(records)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		name := export.FileName(c.Query("from"), c.Query("to"))
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
	})

	admin.DELETE("/records", func(c *gin.Context) {
		from, to, err := dayRange(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if from == nil || to == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to required"})
			return
		}
		removed, err := svc.Purge(c.Request.Context(), *from, *to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	})

	admin.GET("/employees", func(c *gin.Context) {
		employees, err := svc.Roster(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": employees})
	})

	admin.POST("/employees", func(c *gin.Context) {
		var req struct {
			Usuario  string `json:"usuario" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		emp, err := svc.RegisterEmployee(c.Request.Context(), req.Usuario, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, attendance.ErrEmployeeExists):
				c.JSON(http.StatusConflict, gin.H{"error": "este usuario ya existe"})
			case errors.Is(err, attendance.ErrWeakPassword):
				c.JSON(http.StatusBadRequest, gin.H{"error": "la contraseña debe tener al menos 6 caracteres"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusCreated, gin.H{"employee": emp})
	})

	admin.DELETE("/employees/:id", func(c *gin.Context) {
		entry, err := svc.Deactivate(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "empleado no encontrado"})
			return
		}
		if err := q.Publish(c.Request.Context(), queue.Message{Type: "baja", Body: []byte(entry.ID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"queued": entry})
	})

	admin.GET("/employees/bajas", func(c *gin.Context) {
		entries, err := svc.DeletionQueue(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// noFix is the locator used when the device sent no coordinates; the
// pipeline treats it as a failed fix.
type noFix struct{}

func (noFix) Position(ctx context.Context) (pipeline.Position, error) {
	return pipeline.Position{}, errors.New("no position provided")
}

// dayRange parses optional from/to day bounds in ISO form (2006-01-02).
func dayRange(fromStr, toStr string) (from, to *time.Time, err error) {
	if fromStr != "" {
		t, perr := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if toStr != "" {
		t, perr := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if perr != nil {
			return nil, nil, perr
		}
		to = &t
	}
	return from, to, nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
