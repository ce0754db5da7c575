package svc

import (
	"log"
	"time"

	"flowforge/internal/config"
	"flowforge/internal/logic/onboarding"
	"flowforge/internal/model"
	"flowforge/internal/pkg/auth"
	"flowforge/internal/pkg/chainreader"
	"flowforge/internal/pkg/provider"
	"flowforge/internal/pkg/retry"
	"flowforge/internal/pkg/safeapi"
	"flowforge/internal/pkg/userstore"
	"flowforge/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceContext struct {
	Config       config.Config
	DB           *gorm.DB
	UsersDao     model.UsersDao
	OwnerKeysDao model.OwnerKeysDao
	Chains       []types.ChainTarget
	ChainPool    *chainreader.Pool
	ModuleReader *chainreader.ModuleReader
	SafeApi      *safeapi.Client
	Sessions     *Sessions
}

func NewServiceContext(c config.Config) *ServiceContext {
	db, err := initDB(c.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	pool := chainreader.NewPool(c.Chains)
	reader, err := chainreader.NewModuleReader(pool, c.Chains)
	logx.Must(err)

	svcCtx := &ServiceContext{
		Config:       c,
		DB:           db,
		UsersDao:     model.NewUsersDao(db),
		OwnerKeysDao: model.NewOwnerKeysDao(db),
		Chains:       ChainTargets(c.Chains),
		ChainPool:    pool,
		ModuleReader: reader,
		SafeApi:      safeapi.NewClient(c.SafeApi.ApiUrl, c.SafeApi.Timeout),
	}

	sessions, err := NewSessions(c.Onboarding.SessionExpiry, svcCtx.newOrchestrator)
	logx.Must(err)
	svcCtx.Sessions = sessions

	return svcCtx
}

// ChainTargets 转换配置的链, 保持顺序
func ChainTargets(chains []config.ChainConf) []types.ChainTarget {
	targets := make([]types.ChainTarget, 0, len(chains))
	for _, chain := range chains {
		targets = append(targets, types.ChainTarget{
			Id:      chain.Id,
			Name:    chain.Name,
			ChainId: chain.ChainId,
			Testnet: chain.Testnet,
		})
	}
	return targets
}

// OrchestratorOptions onboarding 配置转为 orchestrator 参数
func OrchestratorOptions(c config.OnboardingConf) onboarding.Options {
	return onboarding.Options{
		SwitchTimeout:  c.SwitchTimeout,
		SwitchInterval: c.SwitchInterval,
		Verify: retry.Policy{
			MaxAttempts: c.VerifyAttempts,
			BaseDelay:   c.VerifyBaseDelay,
			Growth:      c.VerifyGrowth,
		},
	}
}

func (s *ServiceContext) newOrchestrator(id auth.Identity, token string) (*onboarding.Orchestrator, TokenSetter) {
	wallet := provider.New(id.Address, s.OwnerKeysDao, s.ChainPool)
	api := s.SafeApi.ForUser(token, wallet)

	orch := onboarding.New(id.UserId, id.Address, s.Chains, onboarding.Deps{
		Records:  userstore.New(s.UsersDao),
		Wallets:  api,
		Switcher: wallet,
		Signer:   api,
		Reader:   s.ModuleReader,
	}, OrchestratorOptions(s.Config.Onboarding))
	return orch, api
}

// Stop 释放 RPC 连接和数据库连接池
func (s *ServiceContext) Stop() {
	s.ChainPool.Close()
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func initDB(dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}
