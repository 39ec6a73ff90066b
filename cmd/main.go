package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pot-code/learn-gateway/internal/activity"
	"github.com/pot-code/learn-gateway/internal/course"
	infra "github.com/pot-code/learn-gateway/internal/infrastructure"
	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
	"github.com/pot-code/learn-gateway/internal/infrastructure/uuid"
	ihttp "github.com/pot-code/learn-gateway/internal/interfaces/http"
	"github.com/pot-code/learn-gateway/internal/navigation"
	"github.com/pot-code/learn-gateway/internal/progress"
	"github.com/pot-code/learn-gateway/internal/progression"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	policy, err := progression.ParseSectionPolicy(option.Navigation.SectionPolicy)
	if err != nil {
		logger.Fatal("Failed to parse section policy", zap.Error(err))
	}

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		logger.Fatal("Failed to create DB connection", zap.Error(err))
	}
	logger.Debug("Create DB connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)

	rdb := driver.NewRedisClient(&driver.KVConfig{
		Host:     option.KVStore.Host,
		Port:     option.KVStore.Port,
		Password: option.KVStore.Password,
	})
	api := restapi.NewClient(option.API.BaseURL, option.API.Timeout)

	ActivityIDGenerator := uuid.NewNanoIDGenerator(option.Security.IDLength).WithPrefix("act_")
	ActivityRepo := activity.NewActivityRepository(dbConn)
	ActivityUseCase := activity.NewActivityUseCase(ActivityRepo, ActivityIDGenerator)

	CourseRepo := course.NewCourseAPIRepository(api)
	CourseUseCase := course.NewCourseUseCase(CourseRepo)

	ProgressRepo := progress.NewProgressAPIRepository(api)
	CursorStore := progress.NewCursorKV(rdb, option.Progress.CursorTTL)
	Tracker := progress.NewTracker(ProgressRepo, CursorStore, ActivityUseCase)

	StateStore := navigation.NewStateKV(rdb, option.Navigation.StateTTL)
	NavigationUseCase := navigation.NewController(CourseUseCase, Tracker, StateStore, policy)

	app := ihttp.NewApp(option, dbConn, rdb,
		CourseUseCase, Tracker, NavigationUseCase, ActivityUseCase, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		logger.Info("Shutting down", zap.String("signal", s.String()))
		cancel()
	}()
	if err := ihttp.Serve(ctx, app, option, logger); err != nil {
		logger.Error("Server exited", zap.Error(err))
	}
	cancel()

	if err := dbConn.Close(); err != nil {
		logger.Warn("Failed to close DB connection", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("Failed to close kv connection", zap.Error(err))
	}
}
