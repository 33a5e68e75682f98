package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/config"
	"github.com/tacofish-app/tacofish-backend/internal/http/handlers"
	"github.com/tacofish-app/tacofish-backend/internal/http/middleware"
	"github.com/tacofish-app/tacofish-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	catalogoHandler *handlers.CatalogoHandler,
	calificacionHandler *handlers.CalificacionHandler,
	mediaHandler *handlers.MediaHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/images", http.Dir(cfg.MediaStoragePath))

	// Аутентификация и регистрация. SMS стоят денег, поэтому
	// эти маршруты закрыты rate limit-ом.
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	r.POST("/registro", authRateLimit, authHandler.Registro)
	r.POST("/verificar-codigo", authRateLimit, authHandler.VerificarCodigo)
	r.POST("/login", authRateLimit, authHandler.Login)
	r.GET("/verify-token", authHandler.VerifyToken)

	// Каталог (публичный).
	r.GET("/categorias", catalogoHandler.ListCategorias)
	r.GET("/categorias/:id", catalogoHandler.GetCategoria)
	r.GET("/categorias/:id/platillos", catalogoHandler.ListPlatillosByCategoria)
	r.GET("/platillos", catalogoHandler.ListPlatillos)
	r.GET("/platillos/:id", catalogoHandler.GetPlatillo)
	r.GET("/platillos/:id/calificaciones", calificacionHandler.Listar)
	r.GET("/platillos/:id/calificaciones/resumen", calificacionHandler.Resumen)

	// Защищённые маршруты.
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/platillos", catalogoHandler.CreatePlatillo)
		protected.POST("/platillos/:id/imagen", mediaHandler.UploadImagen)
		protected.POST("/platillos/:id/calificaciones", calificacionHandler.Calificar)
		protected.DELETE("/platillos/:id/calificaciones", calificacionHandler.Eliminar)
		protected.DELETE("/platillos/:id/calificaciones/:usuarioId", calificacionHandler.Eliminar)
	}

	return r
}
