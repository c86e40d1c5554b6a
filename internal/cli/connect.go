package cli

import (
	"context"

	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/pkg/config"
	"github.com/prohmpiriya/servus/pkg/database"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/security"
)

// MongoConnector opens the MongoDB configured by the server's environment.
// Logs go to stderr so they never mix with command output.
func MongoConnector(ctx context.Context) (*Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "servusctl",
		Development: true,
		OutputPath:  "stderr",
	}); err != nil {
		return nil, err
	}

	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoDB.URI
	mongoCfg.Database = cfg.MongoDB.Database
	mongoCfg.MaxRetries = 0
	mongo, err := database.NewMongo(ctx, mongoCfg)
	if err != nil {
		return nil, err
	}

	db := mongo.Database()
	return &Store{
		Tenants:     repository.NewMongoTenantRepository(db),
		References:  repository.NewTenantReferences(db),
		Users:       repository.NewMongoUserRepository(db),
		Collections: repository.TenantReferencedCollections,
		Hasher:      security.NewHasher(cfg.Security.BcryptCost),
		Close:       mongo.Close,
	}, nil
}
