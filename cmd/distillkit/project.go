package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/distillkit/distillkit/internal/store"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage distillation projects",
}

var projectCreateFlags struct {
	name         string
	topic        string
	scenario     string
	roleA        string
	roleB        string
	rounds       int
	systemPrompt string
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project. The multi-turn flags configure role-played dialogue
generation; all of --scenario, --role-a, --role-b, and --rounds must be set
before a multi-turn run can start.`,
	RunE: projectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  projectList,
}

var projectMultiTurnCmd = &cobra.Command{
	Use:   "multiturn <project-id>",
	Short: "Set a project's multi-turn dialogue configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  projectMultiTurn,
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.name, "name", "", "project name (required)")
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.topic, "topic", "", "default run topic (required)")
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.scenario, "scenario", "", "multi-turn dialogue scenario")
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.roleA, "role-a", "", "multi-turn questioner role")
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.roleB, "role-b", "", "multi-turn answerer role")
	projectCreateCmd.Flags().IntVar(&projectCreateFlags.rounds, "rounds", 0, "multi-turn dialogue rounds")
	projectCreateCmd.Flags().StringVar(&projectCreateFlags.systemPrompt, "system-prompt", "", "multi-turn system prompt")
	_ = projectCreateCmd.MarkFlagRequired("name")
	_ = projectCreateCmd.MarkFlagRequired("topic")

	projectMultiTurnCmd.Flags().StringVar(&projectCreateFlags.scenario, "scenario", "", "dialogue scenario")
	projectMultiTurnCmd.Flags().StringVar(&projectCreateFlags.roleA, "role-a", "", "questioner role")
	projectMultiTurnCmd.Flags().StringVar(&projectCreateFlags.roleB, "role-b", "", "answerer role")
	projectMultiTurnCmd.Flags().IntVar(&projectCreateFlags.rounds, "rounds", 0, "dialogue rounds")
	projectMultiTurnCmd.Flags().StringVar(&projectCreateFlags.systemPrompt, "system-prompt", "", "system prompt")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectMultiTurnCmd)
}

func projectCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := &store.Project{
		ID:                    uuid.NewString(),
		Name:                  projectCreateFlags.name,
		Topic:                 projectCreateFlags.topic,
		MultiTurnScenario:     projectCreateFlags.scenario,
		MultiTurnRoleA:        projectCreateFlags.roleA,
		MultiTurnRoleB:        projectCreateFlags.roleB,
		MultiTurnRounds:       projectCreateFlags.rounds,
		MultiTurnSystemPrompt: projectCreateFlags.systemPrompt,
	}
	if err := st.CreateProject(cmd.Context(), p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	fmt.Printf("Created project %q\n  id: %s\n", p.Name, p.ID)
	return nil
}

func projectList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	projects, err := st.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("No projects. Create one with: distillkit project create --name ... --topic ...")
		return nil
	}

	for _, p := range projects {
		multiTurn := "not configured"
		if p.MultiTurnScenario != "" && p.MultiTurnRoleA != "" && p.MultiTurnRoleB != "" && p.MultiTurnRounds >= 1 {
			multiTurn = fmt.Sprintf("%s vs %s, %d rounds", p.MultiTurnRoleA, p.MultiTurnRoleB, p.MultiTurnRounds)
		}
		fmt.Printf("%s  %-24s topic=%q  multi-turn: %s\n", p.ID, p.Name, p.Topic, multiTurn)
	}
	return nil
}

func projectMultiTurn(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.GetProject(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return fmt.Errorf("project %q not found", args[0])
	}

	if cmd.Flags().Changed("scenario") {
		p.MultiTurnScenario = projectCreateFlags.scenario
	}
	if cmd.Flags().Changed("role-a") {
		p.MultiTurnRoleA = projectCreateFlags.roleA
	}
	if cmd.Flags().Changed("role-b") {
		p.MultiTurnRoleB = projectCreateFlags.roleB
	}
	if cmd.Flags().Changed("rounds") {
		p.MultiTurnRounds = projectCreateFlags.rounds
	}
	if cmd.Flags().Changed("system-prompt") {
		p.MultiTurnSystemPrompt = projectCreateFlags.systemPrompt
	}

	if err := st.UpdateProject(cmd.Context(), p); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	fmt.Printf("Updated multi-turn configuration for %q\n", p.Name)
	return nil
}
