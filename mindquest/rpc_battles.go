package mindquest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RPC identifiers registered for the battles system.
const (
	RpcIdBattlesGet            = "mindbattle_get"
	RpcIdBattlesScenarios      = "mindbattle_scenarios"
	RpcIdBattlesRecordOutcome  = "mindbattle_record_outcome"
	RpcIdBattlesProgressReset  = "mindbattle_progress_reset"
	RpcIdBattlesSnapshotExport = "mindbattle_snapshot_export"
	RpcIdBattlesSnapshotImport = "mindbattle_snapshot_import"
)

type BattleOutcomeRequest struct {
	Correct bool `json:"correct"`
}

type BattleScenarioList struct {
	Scenarios []*BattleScenario `json:"scenarios,omitempty"`
}

func rpcBattlesGet(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		snapshot, err := battlesSystem.GetSnapshot(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcBattlesScenarios(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		response := &BattleScenarioList{Scenarios: battlesSystem.ListScenarios()}
		return marshalRpcResponse(logger, response)
	}
}

func rpcBattlesRecordOutcome(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		if payload == "" {
			return "", ErrPayloadEmpty
		}

		var request BattleOutcomeRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal BattleOutcomeRequest: %v", err)
			return "", runtime.NewError("failed to unmarshal battle outcome request", INVALID_ARGUMENT_ERROR_CODE)
		}

		snapshot, err := battlesSystem.RecordOutcome(ctx, logger, nk, userId, request.Correct)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcBattlesProgressReset(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		snapshot, err := battlesSystem.ResetProgress(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}

func rpcBattlesSnapshotExport(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
		}

		userId, err := sessionUserId(ctx)
		if err != nil {
			return "", err
		}

		raw, err := battlesSystem.ExportSnapshot(ctx, logger, nk, userId)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, &SnapshotExportResponse{Snapshot: raw})
	}
}

func rpcBattlesSnapshotImport(p *mindQuestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		battlesSystem := p.GetBattlesSystem()
		if battlesSystem == nil {
			return "", runtime.NewError("battles system not available", UNIMPLEMENTED_ERROR_CODE)
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

		snapshot, err := battlesSystem.ImportSnapshot(ctx, logger, nk, userId, request.Snapshot)
		if err != nil {
			return "", err
		}

		return marshalRpcResponse(logger, snapshot)
	}
}
