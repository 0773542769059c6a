// Package stage implements the per-conversation stage state machine.
package stage

import (
	"context"
	"fmt"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// Machine validates stage transitions against a business's stage set and
// handles first-interaction bootstrapping.
type Machine struct {
	store *store.Store
}

// NewMachine creates a stage machine.
func NewMachine(st *store.Store) *Machine {
	return &Machine{store: st}
}

// Bootstrap picks the stage a brand-new conversation starts in: the stage
// tagged first_interaction, or the first stage by creation order.
func (m *Machine) Bootstrap(ctx context.Context, businessID string) (*models.Stage, error) {
	stages, err := m.store.ListStages(ctx, businessID, "")
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, store.ErrNoStages
	}
	for i := range stages {
		if stages[i].StageType == models.StageTypeFirstInteraction {
			return &stages[i], nil
		}
	}
	return &stages[0], nil
}

// Current returns the conversation's current stage, bootstrapping (and
// persisting the choice) when the conversation has none yet.
func (m *Machine) Current(ctx context.Context, conv *models.Conversation) (*models.Stage, error) {
	if conv.CurrentStageID != "" {
		return m.store.GetStage(ctx, conv.BusinessID, conv.CurrentStageID)
	}

	stg, err := m.Bootstrap(ctx, conv.BusinessID)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetConversationStage(ctx, conv.ID, stg.ID); err != nil {
		return nil, err
	}
	conv.CurrentStageID = stg.ID
	return stg, nil
}

// Transition moves the conversation to newStage after verifying ownership
// and, when explicit transition rows exist for the current stage, that the
// pair is among them. Every transition writes an audit entry.
func (m *Machine) Transition(ctx context.Context, conv *models.Conversation, newStage *models.Stage) error {
	if newStage.BusinessID != conv.BusinessID {
		return store.ErrForbidden
	}
	if conv.CurrentStageID == newStage.ID {
		return nil
	}

	if conv.CurrentStageID != "" {
		allowed, err := m.transitionAllowed(ctx, conv.CurrentStageID, newStage.ID)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("transition from %s to %s is not allowed", conv.CurrentStageID, newStage.ID)
		}
	}

	if err := m.store.SetConversationStage(ctx, conv.ID, newStage.ID); err != nil {
		return err
	}

	if err := m.store.WriteAudit(ctx, conv.BusinessID, conv.UserID, models.AuditActionStageTransition, models.JSONMap{
		"conversation_id": conv.ID,
		"from_stage_id":   conv.CurrentStageID,
		"to_stage_id":     newStage.ID,
		"to_stage_name":   newStage.StageName,
	}); err != nil {
		return err
	}

	conv.CurrentStageID = newStage.ID
	return nil
}

// transitionAllowed checks explicit transition rows; no rows means every
// same-business stage is reachable.
func (m *Machine) transitionAllowed(ctx context.Context, fromStageID, toStageID string) (bool, error) {
	transitions, err := m.store.ListTransitionsFrom(ctx, fromStageID)
	if err != nil {
		return false, err
	}
	if len(transitions) == 0 {
		return true, nil
	}
	for _, tr := range transitions {
		if tr.ToStageID == toStageID {
			return true, nil
		}
	}
	return false, nil
}
