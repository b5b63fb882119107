package mindquest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RPC identifiers registered for the quests system.
const (
	RpcIdQuestsGet            = "lifequest_get"
	RpcIdQuestsComplete       = "lifequest_quest_complete"
	RpcIdQuestsPowerUpUse     = "lifequest_powerup_use"
	RpcIdQuestsAllyAdd        = "lifequest_ally_add"
	RpcIdQuestsAllyRemove     = "lifequest_ally_remove"
	RpcIdQuestsAdversaryAdd   = "lifequest_adversary_add"
	RpcIdQuestsDailyReset     = "lifequest_daily_reset"
	RpcIdQuestsProgressReset  = "lifequest_progress_reset"
	RpcIdQuestsSnapshotExport = "lifequest_snapshot_export"
	RpcIdQuestsSnapshotImport = "lifequest_snapshot_import"
)

type QuestCompleteRequest struct {
	Id string `json:"id"`
}

type PowerUpUseRequest struct {
	Id string `json:"id"`
}

type AllyRemoveRequest struct {
	Id string `json:"id"`
}

type SnapshotExportResponse struct {
	Snapshot string `json:"snapshot"`
}

type SnapshotImportRequest struct {
	Snapshot string `json:"snapshot"`
}

func sessionUserId(ctx context.Context) (string, error) {
	userId, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userId == "" {
		return "", runtime.NewError("user id not found in context", INVALID_ARGUMENT_ERROR_CODE)
	}
	return userId, nil
}

func marshalRpcResponse(logger runtime.Logger, response any) (string, error) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return "", runtime.NewError("failed to marshal response", INTERNAL_ERROR_CODE)
	}
	return string(data), nil
}

func rpcQuestsGet(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		snapshot, err := questsSystem.GetSnapshot(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsComplete(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request QuestCompleteRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal QuestCompleteRequest: %v", err)
			return "", runtime.NewError("failed to unmarshal quest complete request", INVALID_ARGUMENT_ERROR_CODE)
		}

		if request.Id == "" {
			return "", runtime.NewError("quest id is required", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.CompleteQuest(ctx, logger, nk, userId, request.Id)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsPowerUpUse(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request PowerUpUseRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal PowerUpUseRequest: %v", err)
			return "", runtime.NewError("failed to unmarshal power-up use request", INVALID_ARGUMENT_ERROR_CODE)
		}

		if request.Id == "" {
			return "", runtime.NewError("power-up id is required", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.UsePowerUp(ctx, logger, nk, userId, request.Id)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsAllyAdd(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request AllyDefinition
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal AllyDefinition: %v", err)
			return "", runtime.NewError("failed to unmarshal ally add request", INVALID_ARGUMENT_ERROR_CODE)
		}

		if request.Name == "" {
			return "", runtime.NewError("ally name is required", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.AddAlly(ctx, logger, nk, userId, &request)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsAllyRemove(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request AllyRemoveRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal AllyRemoveRequest: %v", err)
			return "", runtime.NewError("failed to unmarshal ally remove request", INVALID_ARGUMENT_ERROR_CODE)
		}

		if request.Id == "" {
			return "", runtime.NewError("ally id is required", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.RemoveAlly(ctx, logger, nk, userId, request.Id)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsAdversaryAdd(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request AdversaryDefinition
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal AdversaryDefinition: %v", err)
			return "", runtime.NewError("failed to unmarshal adversary add request", INVALID_ARGUMENT_ERROR_CODE)
		}

		if request.Name == "" {
			return "", runtime.NewError("adversary name is required", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.AddAdversary(ctx, logger, nk, userId, &request)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsDailyReset(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		snapshot, err := questsSystem.ResetDailyQuests(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsProgressReset(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		snapshot, err := questsSystem.ResetProgress(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcQuestsSnapshotExport(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		raw, err := questsSystem.ExportSnapshot(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, &SnapshotExportResponse{Snapshot: raw})
	}
}

func rpcQuestsSnapshotImport(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		questsSystem := p.GetQuestsSystem()
		if questsSystem == nil {
			return "", runtime.NewError("quests system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		var request SnapshotImportRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal SnapshotImportRequest: %v", err)
			return "", runtime.NewError("failed to unmarshal snapshot import request", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := questsSystem.ImportSnapshot(ctx, logger, nk, userId, request.Snapshot)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}
