package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/distillkit/distillkit/internal/distill"
)

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_distill",
		mcp.WithDescription("Start a background distillation run for a project: builds the tag tree, generates questions, and produces the selected dataset types. Returns the run id."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project to distill into"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Root topic of the tag tree"),
		),
		mcp.WithNumber("levels",
			mcp.Required(),
			mcp.Description("Depth of the tag tree (>= 1)"),
		),
		mcp.WithNumber("tags_per_level",
			mcp.Required(),
			mcp.Description("Target sub-tags per node (>= 1)"),
		),
		mcp.WithNumber("questions_per_tag",
			mcp.Required(),
			mcp.Description("Target questions per leaf tag (>= 1)"),
		),
		mcp.WithString("dataset_type",
			mcp.Description("single-turn (default), multi-turn, or both"),
		),
		mcp.WithString("model",
			mcp.Description("Model to generate with; defaults to the configured model"),
		),
		mcp.WithString("language",
			mcp.Description("Output language; defaults to the configured language"),
		),
		mcp.WithNumber("concurrency",
			mcp.Description("Generation concurrency ceiling"),
		),
	)
	s.mcpServer.AddTool(startTool, s.handleStartDistill)

	statusTool := mcp.NewTool("distill_status",
		mcp.WithDescription("Get the status, progress counters, and recent logs of a distillation run"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run id returned by start_distill"),
		),
	)
	s.mcpServer.AddTool(statusTool, s.handleDistillStatus)

	cancelTool := mcp.NewTool("cancel_distill",
		mcp.WithDescription("Cancel a running distillation run. Work already persisted is kept."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run id returned by start_distill"),
		),
	)
	s.mcpServer.AddTool(cancelTool, s.handleCancelDistill)

	listRunsTool := mcp.NewTool("list_runs",
		mcp.WithDescription("List all distillation runs of this session, newest first"),
	)
	s.mcpServer.AddTool(listRunsTool, s.handleListRuns)

	listTagsTool := mcp.NewTool("list_tags",
		mcp.WithDescription("List a project's tag tree as an indented outline"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project whose tags to list"),
		),
	)
	s.mcpServer.AddTool(listTagsTool, s.handleListTags)

	exportTool := mcp.NewTool("export_dataset",
		mcp.WithDescription("Export a project's datasets as JSONL files: alpaca for single-turn answers, sharegpt for conversations"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project to export"),
		),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory to write the JSONL files into"),
		),
	)
	s.mcpServer.AddTool(exportTool, s.handleExportDataset)
}

func (s *Server) handleStartDistill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id parameter required"), nil
	}
	topic := request.GetString("topic", "")
	if topic == "" {
		return mcp.NewToolResultError("topic parameter required"), nil
	}

	cfg := distill.Config{
		ProjectID:       projectID,
		Topic:           topic,
		Levels:          int(request.GetFloat("levels", 0)),
		TagsPerLevel:    int(request.GetFloat("tags_per_level", 0)),
		QuestionsPerTag: int(request.GetFloat("questions_per_tag", 0)),
		DatasetType:     request.GetString("dataset_type", ""),
		Model:           request.GetString("model", s.defaultModel),
		Language:        request.GetString("language", s.defaultLanguage),
		Concurrency:     int(request.GetFloat("concurrency", 0)),
	}

	id, err := s.runner.Start(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start run: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started distillation run %s for project %s. Poll distill_status with this run id.", id, projectID)), nil
}

func (s *Server) handleDistillStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return mcp.NewToolResultError("run_id parameter required"), nil
	}

	run, ok := s.runner.Get(runID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("run %s not found", runID)), nil
	}

	// Trim the log tail so status stays readable for the caller.
	if len(run.Logs) > 20 {
		run.Logs = run.Logs[len(run.Logs)-20:]
	}
	payload, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleCancelDistill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return mcp.NewToolResultError("run_id parameter required"), nil
	}

	if !s.runner.Cancel(runID) {
		return mcp.NewToolResultError(fmt.Sprintf("run %s not found or already finished", runID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cancellation requested for run %s", runID)), nil
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs := s.runner.List()
	if len(runs) == 0 {
		return mcp.NewToolResultText("No runs yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d run(s):\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(&b, "- %s  project=%s  status=%s  stage=%s  tags=%d/%d questions=%d/%d datasets=%d/%d\n",
			run.ID, run.ProjectID, run.Status, run.Progress.Stage,
			run.Progress.TagsBuilt, run.Progress.TagsTotal,
			run.Progress.QuestionsBuilt, run.Progress.QuestionsTotal,
			run.Progress.DatasetsBuilt, run.Progress.DatasetsTotal)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id parameter required"), nil
	}

	tags, err := s.store.ListTags(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("No tags in this project."), nil
	}

	children := make(map[string][]int)
	for i, t := range tags {
		children[t.ParentID] = append(children[t.ParentID], i)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d tag(s):\n", len(tags))
	var walk func(parentID string, depth int)
	walk = func(parentID string, depth int) {
		for _, i := range children[parentID] {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", depth), tags[i].Label)
			walk(tags[i].ID, depth+1)
		}
	}
	walk("", 0)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleExportDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id parameter required"), nil
	}
	dir := request.GetString("dir", "")
	if dir == "" {
		return mcp.NewToolResultError("dir parameter required"), nil
	}

	res, err := s.exporter.ExportProject(ctx, projectID, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	var b strings.Builder
	if res.SingleTurnCount > 0 {
		fmt.Fprintf(&b, "Wrote %d single-turn record(s) to %s\n", res.SingleTurnCount, res.SingleTurnPath)
	}
	if res.MultiTurnCount > 0 {
		fmt.Fprintf(&b, "Wrote %d conversation(s) to %s\n", res.MultiTurnCount, res.MultiTurnPath)
	}
	if b.Len() == 0 {
		b.WriteString("Nothing to export: the project has no generated datasets yet.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
