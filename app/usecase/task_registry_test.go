package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaengine/internal/domain/entity"
)

func TestValidateTask(t *testing.T) {
	for _, task := range Tasks() {
		assert.NoError(t, ValidateTask(task), string(task))
	}

	err := ValidateTask("blog_post")
	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindInvalidTask))
	assert.Contains(t, err.Error(), "meta_ad_variants")
}

func TestTaskCost(t *testing.T) {
	assert.Equal(t, 2, TaskCost(entity.TaskMetaAdVariants))
	assert.Equal(t, 3, TaskCost(entity.TaskEmailPromo))
	assert.Equal(t, 4, TaskCost(entity.TaskCampaignPlan))
	assert.Equal(t, 4, TaskCost(entity.TaskLandingPageSection))
	assert.Equal(t, 2, TaskCost(entity.TaskImagePrompt))
	assert.Equal(t, defaultTaskCost, TaskCost("unknown"))
}

func TestTasksIsACopy(t *testing.T) {
	tasks := Tasks()
	tasks[0] = "mutated"
	assert.Equal(t, entity.TaskMetaAdVariants, Tasks()[0])
}
