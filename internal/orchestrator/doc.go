// Package orchestrator runs the site generation pipeline.
//
// # Architecture
//
// A run executes five stages in a fixed order:
//
//	Planning → Content → Design → Plugins → Deployment
//
// Content, design and plugin selection consume the planning payload;
// deployment consumes all three plus the planned menus. Stages run strictly
// one after another within a run. Separate runs share nothing.
//
// # Failure Boundary
//
// A stage that returns a Result never stops the run, whatever status the
// result carries. A stage that returns an error (or panics) aborts every
// remaining stage. The WorkflowResult then reports workflow_status=failed
// together with the stages that completed and their payloads.
//
// # Quality Gates
//
// Gates inspect each finished stage and raise warnings. They are logged and
// listed in the result but never block:
//   - ConfidenceGate: confidence below the configured threshold
//   - StatusGate: a stage embedded a failed status
//
// # Usage Example
//
//	orch, err := orchestrator.New(orchestrator.Stages{
//	    Planning:   stages.NewPlanning(gen, params, logger),
//	    Content:    stages.NewContent(gen, params, logger),
//	    Design:     stages.NewDesign(logger),
//	    Plugins:    stages.NewPlugins(logger),
//	    Deployment: deploy.New(connector, deployOpts, scrubber, logger),
//	}, orchestrator.Options{Logger: logger})
//
//	result := orch.Run(ctx, input, func(p orchestrator.Progress) {
//	    fmt.Println(p.Percentage, p.Message)
//	})
//
// Workflow adapts Run to the job tracker.
package orchestrator
