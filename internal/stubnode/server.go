// Package stubnode runs an in-memory stand-in for a Nexus-style node: the
// wire surface consumed by pkg/nexus, backed by fabricated profiles and
// balances. It exists for integration tests and local development, not for
// anything resembling consensus.
package stubnode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/distordia/walletcore/pkg/nexus"
)

const nodeVersion = "stubnode 0.1.0"

// Server holds the fabricated chain state behind the HTTP surface.
type Server struct {
	mu             sync.Mutex
	signingKey     []byte
	sessionTTL     time.Duration
	initialBalance decimal.Decimal
	logger         *zap.Logger
	now            func() time.Time

	profiles  map[string]*profileState
	sessions  map[string]*sessionState
	addresses map[string]*accountState
}

// NewServer wires a Server from validated config.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	return &Server{
		signingKey:     []byte(cfg.SigningKey),
		sessionTTL:     cfg.SessionTTL,
		initialBalance: cfg.InitialBalance,
		logger:         logger,
		now:            time.Now,
		profiles:       map[string]*profileState{},
		sessions:       map[string]*sessionState{},
		addresses:      map[string]*accountState{},
	}
}

// Run boots the stub node using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	node := NewServer(cfg, logger)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: node.Router(cfg.AllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stubnode listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Router registers the node procedure routes.
func (server *Server) Router(allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Origin", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.POST("/"+nexus.ProcedureCreateSession, server.handleCreateSession)
	router.POST("/"+nexus.ProcedureTerminateSession, server.handleTerminateSession)
	router.POST("/"+nexus.ProcedureUnlockSession, server.handleUnlockSession)
	router.POST("/"+nexus.ProcedureLockSession, server.handleLockSession)
	router.POST("/"+nexus.ProcedureSessionStatus, server.handleSessionStatus)
	router.POST("/"+nexus.ProcedureCreateProfile, server.handleCreateProfile)
	router.POST("/"+nexus.ProcedureGetProfile, server.handleGetProfile)
	router.POST("/"+nexus.ProcedureGetAccount, server.handleGetAccount)
	router.POST("/"+nexus.ProcedureListAccounts, server.handleListAccounts)
	router.POST("/"+nexus.ProcedureGetBalances, server.handleGetBalances)
	router.POST("/"+nexus.ProcedureCreateAccount, server.handleCreateAccount)
	router.POST("/"+nexus.ProcedureDebitAccount, server.handleDebitAccount)
	router.POST("/"+nexus.ProcedureCreditAccount, server.handleCreditAccount)
	router.POST("/"+nexus.ProcedureTransactions, server.handleTransactions)
	router.POST("/"+nexus.ProcedureSystemInfo, server.handleSystemInfo)
	return router
}

func respondResult(ctx *gin.Context, payload any) {
	ctx.JSON(http.StatusOK, gin.H{"result": payload})
}

func respondError(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func (server *Server) issueToken(genesis string, username string) (string, error) {
	now := server.now()
	claims := jwt.MapClaims{
		"sub":      genesis,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(server.sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(server.signingKey)
}

// resolveSession validates the token signature and expiry, then resolves the
// live session state. Callers hold the lock.
func (server *Server) resolveSession(token string) (*sessionState, *profileState, error) {
	parsed, err := jwt.Parse(token, func(parsedToken *jwt.Token) (any, error) {
		if parsedToken.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", parsedToken.Header["alg"])
		}
		return server.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil, errors.New("Invalid session")
	}
	session, present := server.sessions[token]
	if !present {
		return nil, nil, errors.New("Invalid session")
	}
	profile, present := server.profiles[session.username]
	if !present {
		return nil, nil, errors.New("Invalid session")
	}
	session.accessed = server.now()
	return session, profile, nil
}
