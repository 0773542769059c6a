package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// newTestStore opens an in-memory SQLite database with the full schema.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	// A named in-memory database so every pooled connection sees the
	// same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Business{},
		&models.PlatformBinding{},
		&models.Agent{},
		&models.User{},
		&models.Template{},
		&models.TemplateVariable{},
		&models.TemplateVariableUsage{},
		&models.Stage{},
		&models.StageTransition{},
		&models.Conversation{},
		&models.Message{},
		&models.ExtractedData{},
		&models.LLMCall{},
		&models.AuditLog{},
		&models.AIControlSetting{},
	))

	return New(db)
}

func seedBusiness(t *testing.T, st *Store, name string) *models.Business {
	t.Helper()
	business, _, err := st.CreateBusiness(context.Background(), CreateBusinessRequest{
		OwnerID:      "owner-1",
		BusinessName: name,
	})
	require.NoError(t, err)
	return business
}

// seedStage creates the three templates a stage needs, then the stage itself.
func seedStage(t *testing.T, st *Store, businessID, name string) *models.Stage {
	t.Helper()
	ctx := context.Background()

	templateIDs := make(map[string]string, 3)
	for _, tplType := range []string{
		models.TemplateTypeStageSelection,
		models.TemplateTypeDataExtraction,
		models.TemplateTypeResponseGeneration,
	} {
		tpl, err := st.InsertTemplate(ctx, CreateTemplateRequest{
			BusinessID:   businessID,
			TemplateName: name + " " + tplType,
			TemplateType: tplType,
			Content:      "{{user_message}}",
		})
		require.NoError(t, err)
		templateIDs[tplType] = tpl.ID
	}

	stg, err := st.CreateStage(ctx, CreateStageRequest{
		BusinessID:                   businessID,
		StageName:                    name,
		StageDescription:             name + " stage",
		StageSelectionTemplateID:     templateIDs[models.TemplateTypeStageSelection],
		DataExtractionTemplateID:     templateIDs[models.TemplateTypeDataExtraction],
		ResponseGenerationTemplateID: templateIDs[models.TemplateTypeResponseGeneration],
	})
	require.NoError(t, err)
	return stg
}
