package mindquest

import (
	"context"
	"encoding/json"
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
)

// mindQuestImpl implements the MindQuest interface
type mindQuestImpl struct {
	publishers []Publisher

	// Store systems in a map by type
	systems map[SystemType]System
}

// Init initializes a MindQuest type with the configurations provided.
func Init(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, configs ...SystemConfig) (MindQuest, error) {
	mq := &mindQuestImpl{
		publishers: make([]Publisher, 0),
		systems:    make(map[SystemType]System),
	}

	for _, config := range configs {
		if err := mq.initSystem(ctx, logger, nk, initializer, config); err != nil {
			return nil, err
		}
	}

	return mq, nil
}

// initSystem initializes a specific system based on its type
func (p *mindQuestImpl) initSystem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, config SystemConfig) error {
	logger.Info("Initializing system type: %v, config file: %s", config.GetType(), config.GetConfigFile())

	configData, err := nk.ReadFile(config.GetConfigFile())
	if err != nil {
		logger.Error("Failed to read config file %s: %v", config.GetConfigFile(), err)
		return err
	}

	configBytes, err := io.ReadAll(configData)
	if err != nil {
		logger.Error("Failed to read config file contents: %v", err)
		return err
	}
	defer configData.Close()

	var system System

	switch config.GetType() {
	case SystemTypeQuests:
		questsConfig := &QuestsConfig{}
		if err := json.Unmarshal(configBytes, questsConfig); err != nil {
			logger.Error("Failed to parse Quests system config: %v", err)
			return err
		}
		if err := validateQuestsConfig(questsConfig); err != nil {
			logger.Error("Invalid Quests system config: %v", err)
			return err
		}
		questsSystem := NewNakamaQuestsSystem(questsConfig)
		questsSystem.SetMindQuest(p)
		system = questsSystem

	case SystemTypeBattles:
		battlesConfig := &BattlesConfig{}
		if err := json.Unmarshal(configBytes, battlesConfig); err != nil {
			logger.Error("Failed to parse Battles system config: %v", err)
			return err
		}
		if err := validateBattlesConfig(battlesConfig); err != nil {
			logger.Error("Invalid Battles system config: %v", err)
			return err
		}
		battlesSystem := NewNakamaBattlesSystem(battlesConfig)
		battlesSystem.SetMindQuest(p)
		system = battlesSystem

	default:
		logger.Error("Unknown system type: %v", config.GetType())
		return runtime.NewError("unknown system type", INVALID_ARGUMENT_ERROR_CODE)
	}

	p.systems[config.GetType()] = system

	if config.GetRegister() {
		if err := p.registerSystemRpcs(initializer, config.GetType()); err != nil {
			return err
		}
	}

	return nil
}

// registerSystemRpcs registers the appropriate RPCs for a given system type
func (p *mindQuestImpl) registerSystemRpcs(initializer runtime.Initializer, systemType SystemType) error {
	switch systemType {
	case SystemTypeQuests:
		if err := initializer.RegisterRpc(RpcIdQuestsGet, rpcQuestsGet(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsComplete, rpcQuestsComplete(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsPowerUpUse, rpcQuestsPowerUpUse(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsAllyAdd, rpcQuestsAllyAdd(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsAllyRemove, rpcQuestsAllyRemove(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsAdversaryAdd, rpcQuestsAdversaryAdd(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsDailyReset, rpcQuestsDailyReset(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsProgressReset, rpcQuestsProgressReset(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsSnapshotExport, rpcQuestsSnapshotExport(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdQuestsSnapshotImport, rpcQuestsSnapshotImport(p)); err != nil {
			return err
		}

	case SystemTypeBattles:
		if err := initializer.RegisterRpc(RpcIdBattlesGet, rpcBattlesGet(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdBattlesScenarios, rpcBattlesScenarios(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdBattlesRecordOutcome, rpcBattlesRecordOutcome(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdBattlesProgressReset, rpcBattlesProgressReset(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdBattlesSnapshotExport, rpcBattlesSnapshotExport(p)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdBattlesSnapshotImport, rpcBattlesSnapshotImport(p)); err != nil {
			return err
		}

	default:
		// Unknown system type, no RPCs to register
	}

	return nil
}

// AddPublisher adds a publisher to the chain
func (p *mindQuestImpl) AddPublisher(publisher Publisher) {
	p.publishers = append(p.publishers, publisher)
}

// SendPublisherEvents broadcasts events to all registered publishers
func (p *mindQuestImpl) SendPublisherEvents(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	if len(p.publishers) == 0 || len(events) == 0 {
		return
	}

	for _, publisher := range p.publishers {
		publisher.Send(ctx, logger, nk, userID, events)
	}
}

// System getter implementations
func (p *mindQuestImpl) GetQuestsSystem() QuestsSystem {
	if sys, ok := p.systems[SystemTypeQuests].(QuestsSystem); ok {
		return sys
	}
	return nil
}

func (p *mindQuestImpl) GetBattlesSystem() BattlesSystem {
	if sys, ok := p.systems[SystemTypeBattles].(BattlesSystem); ok {
		return sys
	}
	return nil
}
