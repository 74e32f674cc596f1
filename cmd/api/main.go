package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/minhtran-dev/shop-backend/internal/awsx"
	"github.com/minhtran-dev/shop-backend/internal/drive"
	"github.com/minhtran-dev/shop-backend/internal/handlers"
	"github.com/minhtran-dev/shop-backend/internal/orders"
)

func setupRouter(ordersCfg handlers.OrdersConfig, uploadCfg handlers.UploadConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, ordersCfg)
	handlers.RegisterUploadRoutes(r, uploadCfg)
	handlers.RegisterNotFound(r)

	return r
}

// Missing credentials disable the dependent endpoints instead of crashing
// the process: the handlers respond with a fixed "not configured" error.
func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	clients, err := awsx.NewClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	ordersCfg := handlers.OrdersConfig{}
	if table := os.Getenv("ORDERS_TABLE"); table != "" {
		ordersCfg.Store = orders.NewStore(clients.DynamoDB, table)
	} else {
		log.Printf("ORDERS_TABLE not set; order endpoints are disabled")
	}
	if queueURL := os.Getenv("ORDERS_QUEUE_URL"); queueURL != "" {
		ordersCfg.Publisher = awsx.NewPublisher(clients.SQS, queueURL)
	}

	uploadCfg := handlers.UploadConfig{}
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	refreshToken := os.Getenv("GOOGLE_REFRESH_TOKEN")
	if clientID != "" && clientSecret != "" && refreshToken != "" {
		svc, err := drive.NewService(ctx, clientID, clientSecret, refreshToken)
		if err != nil {
			log.Printf("failed to init google drive client: %v; image uploads are disabled", err)
		} else {
			uploadCfg.Uploader = drive.NewUploader(drive.NewAPI(svc))
		}
	} else {
		log.Printf("google drive credentials not configured; image uploads are disabled")
	}

	r := setupRouter(ordersCfg, uploadCfg)

	// inside Lambda, proxy API Gateway events through the gin adapter
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		adapter := ginadapter.New(r)
		lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
		return
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("server is running on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
