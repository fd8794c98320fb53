package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers the ledger routes.
func NewRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, headerCaller, headerRequestID)
	corsCfg.ExposeHeaders = []string{headerRequestID}
	r.Use(cors.New(corsCfg))

	r.GET("/health", app.health)
	r.GET("/balance", app.balance)
	r.GET("/events", app.listEvents)

	products := r.Group("/products")
	products.POST("", app.createProduct)
	products.GET("/:id", app.getProduct)
	products.POST("/:id/quantity", app.addQuantity)
	products.POST("/:id/purchases", app.createPurchase)
	products.GET("/:id/purchases/:buyer", app.purchaseCount)

	r.GET("/buyers/:buyer/purchases", app.listPurchases)

	escrows := r.Group("/escrows")
	escrows.GET("/:ref", app.getEscrow)
	escrows.POST("/:ref/deposits", app.deposit)
	escrows.POST("/:ref/cancel", app.cancelPurchase)

	accounts := r.Group("/accounts")
	accounts.GET("/:id", app.getAccount)
	accounts.POST("/:id/fund", app.fundAccount)

	return r
}
