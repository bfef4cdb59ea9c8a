package main

import (
	"context"
	"os"

	"github.com/aws/aws-xray-sdk-go/xray"
	adaptermiddleware "taller-access/internal/adapters/http/middleware"
	adapterlogger "taller-access/internal/adapters/logger"
	"taller-access/internal/application"
	"taller-access/internal/infrastructure/auth"
	"taller-access/internal/infrastructure/backend"
	"taller-access/internal/infrastructure/dynamodb"
	"taller-access/internal/infrastructure/menu"
	httpiface "taller-access/internal/interfaces/http"
	"taller-access/internal/ports"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		adapterlogger.New(nil).Error(context.Background(), "configuration error", "error", err)
		os.Exit(1)
	}
	logger := adapterlogger.New(adapterlogger.ParseLevel(cfg.LogLevel))
	xray.Configure(xray.Config{LogLevel: "error"})

	items, err := menu.Load(cfg.MenuFile)
	if err != nil {
		logger.Error(context.Background(), "failed to load menu", "error", err, "file", cfg.MenuFile)
		os.Exit(1)
	}

	var verifier ports.TokenVerifier = auth.PassthroughVerifier{}
	if cfg.mode() == auth.ModeJWKS {
		verifier = auth.NewJWKSVerifier(cfg.JWKSURL, cfg.BackendTimeout)
	}

	creds := auth.NewCredentialStore()
	source := backend.NewClient(cfg.BackendURL, cfg.BackendIdentityPath, cfg.BackendTimeout)
	store := application.NewPermissionStore(source, creds, logger.With("component", "permission_store"),
		application.WithAdminRole(cfg.AdminRole))
	gate := application.NewGate(store)
	session := application.NewSessionService(creds, verifier, store, logger)

	// Nothing is stored yet, so this settles the store on an empty snapshot.
	ctx, seg := xray.BeginSegment(context.Background(), "taller-access-startup")
	store.Refetch(ctx)
	seg.Close(nil)

	handlers := httpiface.Handlers{
		Session:    httpiface.NewSessionHandler(session, store),
		Capability: httpiface.NewCapabilityHandler(store, items),
	}
	if cfg.roleEditorEnabled() {
		ddbClient, err := dynamodb.NewClient(context.Background(), cfg.Region, cfg.TableName)
		if err != nil {
			logger.Error(context.Background(), "failed to initialize dynamodb client", "error", err)
			os.Exit(1)
		}
		editor := application.NewRoleEditorService(
			dynamodb.NewRoleRepository(ddbClient),
			dynamodb.NewPermissionCatalog(ddbClient),
			logger.With("component", "role_editor"),
		)
		handlers.RoleEditor = httpiface.NewRoleEditorHandler(editor)
	} else {
		logger.Info(context.Background(), "role editor disabled, no table configured")
	}

	mw := httpiface.Middleware{
		XRay:          adaptermiddleware.XRayMiddleware("taller-access-http"),
		RequestLogger: adaptermiddleware.RequestLogger(logger),
		RoleView:      adaptermiddleware.RequirePermission(gate, "roles:ver", "roles:editar"),
		RoleEdit:      adaptermiddleware.RequirePermission(gate, "roles:editar"),
	}

	e := httpiface.NewMainRouter(handlers, mw)
	logger.Info(context.Background(), "starting http server", "port", cfg.Port, "auth_mode", cfg.AuthMode, "admin_role", store.AdminRole())
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
