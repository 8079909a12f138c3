package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bal-board/internal/config"
	"bal-board/internal/i18n"
	"bal-board/internal/mattermost"
	"bal-board/internal/service"
	"bal-board/internal/store"
	"bal-board/internal/week"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bal-board",
	Short: "BAL production and staffing board",
	Long:  "Tracks BAL production per machine and team, estimates staffing needs, plans crews and rolls production weeks over.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		if err := i18n.Init(cfg.Locale.Default); err != nil {
			return eris.Wrap(err, "init i18n")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore connects the configured backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close(ctx) //nolint:errcheck
			return nil, err
		}
		return s, nil
	default:
		db, err := store.NewMongoDB(cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s, err := store.NewMongoStore(ctx, db)
		if err != nil {
			db.Close(ctx) //nolint:errcheck
			return nil, err
		}
		return s, nil
	}
}

// openBoard opens the store and loads the board on the production week.
// The caller closes the returned store.
func openBoard(ctx context.Context) (*service.Board, store.Store, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	weeks := week.NewManager(st, week.WithOffsetWeeks(cfg.Week.ShiftOffsetWeeks))
	var opts []service.Option
	if cfg.Notify.Enabled() {
		client := mattermost.NewClient(cfg.Notify.MattermostURL, cfg.Notify.BotToken)
		opts = append(opts, service.WithNotifier(mattermost.NewNotifier(client, cfg.Notify.ChannelID)))
	}

	board, err := service.NewBoard(st, weeks, opts...)
	if err != nil {
		st.Close(ctx) //nolint:errcheck
		return nil, nil, err
	}
	if err := board.Load(ctx); err != nil {
		st.Close(ctx) //nolint:errcheck
		return nil, nil, eris.Wrap(err, "load board")
	}
	return board, st, nil
}

func closeStore(st store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		zap.L().Warn("closing store", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
