package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jun/letterdrive/backend/internal/adapter"
	"github.com/jun/letterdrive/backend/internal/adapter/googledrive"
	"github.com/jun/letterdrive/backend/internal/adapter/memory"
	"github.com/jun/letterdrive/backend/internal/auth"
	"github.com/jun/letterdrive/backend/internal/config"
	"github.com/jun/letterdrive/backend/internal/crypto"
	"github.com/jun/letterdrive/backend/internal/handler"
	"github.com/jun/letterdrive/backend/internal/listcache"
	"github.com/jun/letterdrive/backend/internal/secret"
)

// HybridProvider keeps local accounts' letters in the letter store and
// Google users' letters in their Drive.
type HybridProvider struct {
	googleProvider adapter.StorageProvider
	memoryProvider adapter.StorageProvider
}

func (h *HybridProvider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	if auth.IsLocalUser(userID) {
		return h.memoryProvider.GetAdapter(ctx, userID)
	}
	return h.googleProvider.GetAdapter(ctx, userID)
}

// Dependencies are the services the router dispatches to.
type Dependencies struct {
	AuthService      *auth.AuthService
	Accounts         *auth.AccountService
	Storage          adapter.StorageProvider
	Cache            listcache.Cache
	JWTSecret        string
	APIGatewaySecret string
}

// App holds the dependencies for the Lambda function.
type App struct {
	cfg              config.Config
	authHandler      *handler.AuthHandler
	letterHandler    *handler.LetterHandler
	apiGatewaySecret string
}

// New wires the handlers over deps.
func New(cfg config.Config, deps Dependencies) *App {
	sessions := handler.SessionConfig{
		JWTSecret:   deps.JWTSecret,
		TTL:         cfg.SessionTTL,
		SameSite:    cfg.CookieSameSite(),
		FrontendURL: cfg.FrontendURL,
	}
	limiter := handler.NewUploadLimiter(cfg.UploadsPerMinute, cfg.UploadBurst)

	return &App{
		cfg:              cfg,
		authHandler:      handler.NewAuthHandler(deps.AuthService, deps.Accounts, sessions),
		letterHandler:    handler.NewLetterHandler(deps.Storage, deps.Cache, limiter, deps.JWTSecret, cfg.LettersFolder),
		apiGatewaySecret: deps.APIGatewaySecret,
	}
}

// NewApp initializes the application dependencies from the environment.
func NewApp(ctx context.Context) *App {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("unable to load config, %v", err))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	var kmsService crypto.Encryptor
	var resolver secret.Resolver
	if cfg.DevMode {
		kmsService = crypto.NewMockEncryptor()
		resolver = secret.NewEnvResolver()
		fmt.Println("Using MockEncryptor and EnvResolver (DEV_MODE=true)")
	} else {
		kmsService = crypto.NewKMSService(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
		fmt.Println("Using KMS and SSMResolver (SSM Parameter Store)")
	}

	googleClientSecret := secret.Lookup(ctx, resolver, cfg.GoogleClientSecretParam, "")
	jwtSecret := secret.Lookup(ctx, resolver, cfg.JWTSecretParam, "default-dev-secret")
	apiGatewaySecret := secret.Lookup(ctx, resolver, cfg.APIGatewaySecretParam, "")

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: googleClientSecret,
		RedirectURL:  cfg.RedirectURL(),
		Scopes: []string{
			"https://www.googleapis.com/auth/drive.file",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	authService := auth.NewAuthService(oauthConfig, dynamoClient, cfg.UserTokensTable, kmsService)
	accounts := auth.NewAccountService(dynamoClient, cfg.AccountsTable)

	storage := &HybridProvider{
		googleProvider: googledrive.NewProvider(authService, cfg.LettersFolder),
		memoryProvider: memory.NewProvider(dynamoClient, cfg.LetterTable, kmsService, cfg.PublicURL),
	}

	var cache listcache.Cache = listcache.NewMemory(cfg.ListCacheTTL)
	if cfg.RedisAddr != "" {
		redisCache, err := listcache.NewRedis(ctx, cfg.DevMode, cfg.RedisAddr, cfg.ListCacheTTL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, caching listings in memory: %v", err)
		} else {
			cache = redisCache
			fmt.Println("Caching listings in Redis")
		}
	}

	return New(cfg, Dependencies{
		AuthService:      authService,
		Accounts:         accounts,
		Storage:          storage,
		Cache:            cache,
		JWTSecret:        jwtSecret,
		APIGatewaySecret: apiGatewaySecret,
	})
}

// ListenAddr is where the local server listens.
func (app *App) ListenAddr() string {
	return app.cfg.ListenAddr
}

func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	fmt.Printf("Request: %s %s\n", method, path)

	// CORS Preflight
	if method == http.MethodOptions {
		return app.corsResponse(events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}), nil
	}

	// Requests must come through CloudFront outside dev mode
	if !app.cfg.DevMode && header(req, "X-Origin-Verify") != app.apiGatewaySecret {
		fmt.Printf("Security Block: Missing or invalid X-Origin-Verify header\n")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusForbidden,
			Body:       "Forbidden: Access denied",
		}, nil
	}

	// Strip /api prefix if present (for CloudFront proxying)
	path = strings.TrimPrefix(path, "/api")

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	type route struct {
		method, path string
		handle       func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
	}
	routes := []route{
		{http.MethodGet, "/auth/google/login", app.authHandler.GoogleLogin},
		{http.MethodGet, "/auth/google/callback", app.authHandler.GoogleCallback},
		{http.MethodGet, "/auth/user", app.authHandler.GetUser},
		{http.MethodPost, "/auth/register", app.authHandler.Register},
		{http.MethodPost, "/auth/login", app.authHandler.Login},
		{http.MethodGet, "/auth/check-session", app.authHandler.CheckSession},
		{http.MethodPost, "/auth/logout", app.authHandler.Logout},
		{http.MethodGet, "/list-files-oauth", app.letterHandler.ListFilesOAuth},
		{http.MethodGet, "/list-files", app.letterHandler.ListFiles},
		{http.MethodPost, "/upload", app.letterHandler.Upload},
	}
	for _, r := range routes {
		if r.method == method && r.path == path {
			return app.corsResponse(must(r.handle(ctx, req))), nil
		}
	}

	// /letters/{id}
	if id := strings.TrimPrefix(path, "/letters/"); id != path && id != "" && !strings.Contains(id, "/") && method == http.MethodGet {
		req.PathParameters["id"] = id
		return app.corsResponse(must(app.letterHandler.GetLetter(ctx, req))), nil
	}

	return app.corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func (app *App) corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = app.cfg.FrontendURL
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, ignoring the error.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		fmt.Printf("Handler error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
