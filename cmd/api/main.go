package main

import (
	"context"
	"net/http"

	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/Seg0r/MuShee-sub000/pkg/database"
	"github.com/Seg0r/MuShee-sub000/pkg/migrations"
	"github.com/Seg0r/MuShee-sub000/pkg/server"
	"github.com/Seg0r/MuShee-sub000/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting mushee", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	blobs, err := blobstore.New(ctx, cfg)
	if err != nil {
		log.Err(err).Fatal("blob store error")
	}
	log.Info("blob store ready", logger.Data{"driver": cfg.BlobStoreDriver})

	srv, err := server.New(cfg, db, blobs)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
