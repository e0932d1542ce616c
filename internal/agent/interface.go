package agent

import "context"

// Agent is a background job the scheduler can run on a cron schedule or on
// demand.
type Agent interface {
	// Name identifies the agent in logs, locks and the CLI.
	Name() string

	// Schedule returns a standard five-field cron expression. An empty
	// schedule registers the agent as on-demand only.
	Schedule() string

	Execute(ctx context.Context) error
}
