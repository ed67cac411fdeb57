package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// Import outcomes reported in ImportParkResult.Action.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// ImportParkInput is the input for the import workflow.
type ImportParkInput struct {
	Park      domain.Park
	Overwrite bool // replace the stored park when the park code already exists
}

// ImportParkResult reports what the workflow did.
type ImportParkResult struct {
	ParkCode string
	Action   string
}

// WorkflowID is the workflow ID used for importing the park with parkCode.
func WorkflowID(parkCode string) string {
	return "import-" + parkCode
}

// ImportParkWorkflow creates a park and, when the park code is taken and
// Overwrite is set, updates the stored park instead.
func ImportParkWorkflow(ctx workflow.Context, input ImportParkInput) (*ImportParkResult, error) {
	logger := workflow.GetLogger(ctx)
	parkCode := domain.DeriveParkCode(input.Park.Name, input.Park.StateCode)
	logger.Info("Starting park import", "park_code", parkCode, "overwrite", input.Overwrite)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	result := &ImportParkResult{ParkCode: parkCode}

	var created domain.Park
	err := workflow.ExecuteActivity(ctx, "CreatePark", input.Park).Get(ctx, &created)
	switch {
	case err == nil:
		result.ParkCode = created.ParkCode
		result.Action = ActionCreated
	case isConflict(err) && input.Overwrite:
		var updated domain.Park
		if err := workflow.ExecuteActivity(ctx, "UpdatePark", parkCode, input.Park).Get(ctx, &updated); err != nil {
			_ = workflow.ExecuteActivity(ctx, "RecordImport", "failed").Get(ctx, nil)
			return nil, err
		}
		result.Action = ActionUpdated
	case isConflict(err):
		logger.Info("Park exists, skipping", "park_code", parkCode)
		result.Action = ActionSkipped
	default:
		_ = workflow.ExecuteActivity(ctx, "RecordImport", "failed").Get(ctx, nil)
		return nil, err
	}

	_ = workflow.ExecuteActivity(ctx, "RecordImport", result.Action).Get(ctx, nil)
	logger.Info("Park import finished", "park_code", result.ParkCode, "action", result.Action)
	return result, nil
}

func isConflict(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == ErrTypeConflict
}
