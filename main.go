package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"mindquest/mindquest"
)

// noinspection GoUnusedExportedFunction
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	logger.Info("Loading MindQuest Nakama plugin...")

	_, err := mindquest.Init(ctx, logger, nk, initializer,
		mindquest.WithQuestsSystem("data/lifequest-quests.json", true),
		mindquest.WithBattlesSystem("data/lifequest-battles.json", true),
	)
	if err != nil {
		logger.Error("Failed to initialize MindQuest systems: %v", err)
		return err
	}

	logger.Info("MindQuest Nakama plugin loaded in '%d' msec.", time.Now().Sub(initStart).Milliseconds())
	return nil
}

func main() {}
