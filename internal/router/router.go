package router

import (
	"time"

	"sinai/internal/config"
	"sinai/internal/handler"
	"sinai/internal/infra"
	"sinai/internal/middleware"
	"sinai/internal/repository"
	"sinai/internal/service"
	"sinai/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	saldoCache := infra.NewSaldoCache(rdb, time.Duration(cfg.SaldoCacheTTLSeconds)*time.Second)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	loteRepo := repository.NewLoteRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	cierreRepo := repository.NewCierreRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	planRepo := repository.NewPlanPagoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg.JWTSecret, cfg.JWTExpirationHours, cfg.JWTRefreshHours)
	cajaSvc := service.NewCajaService(cajaRepo, planRepo, saldoCache)
	cierreSvc := service.NewCierreService(cierreRepo, cajaRepo, saldoCache)
	planSvc := service.NewPlanPagoService(planRepo, cfg.MorosidadGraciaDias)
	pagoSvc := service.NewPagoService(planRepo, cajaRepo, saldoCache, dispatcher, cfg.MorosidadGraciaDias)
	ventaSvc := service.NewVentaService(ventaRepo, planRepo, cajaRepo, loteRepo, saldoCache, cfg.MorosidadGraciaDias)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	cajaH := handler.NewCajaHandler(cajaSvc, cierreSvc)
	pagosH := handler.NewPagosHandler(pagoSvc, planSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	clientesH := handler.NewClientesHandler(clienteRepo)
	lotesH := handler.NewLotesHandler(loteRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole("vendedor", "supervisor", "administrador")
	supervisores := middleware.RequireRole("supervisor", "administrador")
	admin := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", jwtMW)
	{
		cajas := v1.Group("/cajas")
		{
			cajas.POST("", supervisores, cajaH.Crear)
			cajas.GET("", todos, cajaH.Listar)
			cajas.GET("/:id", todos, cajaH.Obtener)
			cajas.POST("/:id/abrir", todos, cajaH.Abrir)
			cajas.POST("/:id/cerrar", todos, cajaH.Cerrar)
			cajas.GET("/:id/saldo", todos, cajaH.ObtenerSaldo)
			cajas.GET("/:id/movimientos", todos, cajaH.ListarMovimientos)
			cajas.GET("/:id/cierres/ultimo", supervisores, cajaH.UltimoCierre)
			cajas.POST("/movimientos", todos, cajaH.RegistrarMovimiento)
			cajas.DELETE("/:id", admin, cajaH.Eliminar)
		}

		pagos := v1.Group("/pagos")
		{
			pagos.POST("", todos, pagosH.Registrar)
			pagos.PUT("/:id", supervisores, pagosH.Actualizar)
			pagos.DELETE("/:id", supervisores, pagosH.Eliminar)
		}

		planes := v1.Group("/planes-pago")
		{
			planes.GET("/:id", todos, pagosH.ObtenerPlan)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", todos, ventasH.Crear)
			ventas.GET("", todos, ventasH.Listar)
			ventas.GET("/:id", todos, ventasH.Obtener)
			ventas.GET("/:id/plan-pago", todos, pagosH.ObtenerPlanPorVenta)
			ventas.PUT("/:id/monto-inicial", supervisores, pagosH.ActualizarMontoInicial)
			ventas.DELETE("/:id", supervisores, ventasH.Anular)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", todos, clientesH.Crear)
			clientes.GET("", todos, clientesH.Listar)
			clientes.GET("/:id", todos, clientesH.Obtener)
		}

		lotes := v1.Group("/lotes")
		{
			lotes.POST("", supervisores, lotesH.Crear)
			lotes.GET("", todos, lotesH.Listar)
			lotes.GET("/:id", todos, lotesH.Obtener)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
