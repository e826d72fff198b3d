package usecase

import (
	"novaengine/internal/domain/entity"
)

// allTasks fixes the enumeration order used in error messages.
var allTasks = []entity.Task{
	entity.TaskMetaAdVariants,
	entity.TaskTikTokScript,
	entity.TaskGoogleAds,
	entity.TaskEmailPromo,
	entity.TaskEmailWelcome,
	entity.TaskLandingPageSection,
	entity.TaskCampaignPlan,
	entity.TaskAngleBank,
	entity.TaskCreativeBrief,
	entity.TaskImagePrompt,
}

var taskCosts = map[entity.Task]int{
	entity.TaskMetaAdVariants:     2,
	entity.TaskTikTokScript:       2,
	entity.TaskGoogleAds:          2,
	entity.TaskEmailPromo:         3,
	entity.TaskEmailWelcome:       3,
	entity.TaskLandingPageSection: 4,
	entity.TaskCampaignPlan:       4,
	entity.TaskAngleBank:          4,
	entity.TaskCreativeBrief:      3,
	entity.TaskImagePrompt:        2,
}

// defaultTaskCost covers tasks missing from the cost table; unreachable
// after ValidateTask but kept as a floor.
const defaultTaskCost = 3

// Tasks returns the fixed set of generation task kinds.
func Tasks() []entity.Task {
	out := make([]entity.Task, len(allTasks))
	copy(out, allTasks)
	return out
}

// ValidateTask rejects anything outside the enumerated task set.
func ValidateTask(task entity.Task) error {
	if _, ok := taskCosts[task]; !ok {
		return entity.NewInvalidTask(string(task), allTasks)
	}
	return nil
}

// TaskCost returns the credit cost of a task.
func TaskCost(task entity.Task) int {
	if cost, ok := taskCosts[task]; ok {
		return cost
	}
	return defaultTaskCost
}
