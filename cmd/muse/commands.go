package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appconfig "github.com/manthysbr/muse/internal/config"
	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/services"
)

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var personaDomain string

	cmd := &cobra.Command{
		Use:   "generate <task> <input> [input...]",
		Short: "Run one task against the configured backends and print the JSON result",
		Long: `Tasks: inspire, synthesize, critique, refine-title.
synthesize takes two or three concepts; every other task takes one input.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := domain.ParseTaskKind(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := loadConfig(flags, false)
			if err != nil {
				return err
			}
			personas, err := domain.BuiltinPersonas()
			if err != nil {
				return err
			}
			orch := services.NewOrchestrator(logger, buildRegistry(cfg, logger), services.NewPromptBuilder(personas))

			result, backend, err := runTask(cmd.Context(), orch, task, args[1:], personaDomain)
			if err != nil {
				return err
			}
			logger.Info("task complete", "task", task, "backend", backend)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&personaDomain, "domain", "d", "", "Domain persona (e.g. product, science, story)")
	return cmd
}

// runTask dispatches one task to the orchestrator.
func runTask(ctx context.Context, orch *services.Orchestrator, task domain.TaskKind, inputs []string, dom string) (any, domain.BackendID, error) {
	switch task {
	case domain.TaskInspire:
		res, err := orch.Inspire(ctx, strings.Join(inputs, " "), dom)
		return res, res.Backend, err
	case domain.TaskSynthesize:
		res, err := orch.Synthesize(ctx, inputs, dom)
		return res, res.Backend, err
	case domain.TaskCritique:
		res, err := orch.Critique(ctx, strings.Join(inputs, " "), dom)
		return res, res.Backend, err
	case domain.TaskRefineTitle:
		res, err := orch.RefineTitle(ctx, strings.Join(inputs, " "), dom)
		return res, res.Backend, err
	}
	return nil, "", fmt.Errorf("unknown task %q", task)
}

func newPolicyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the fallback order of every task for the current config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags, false)
			if err != nil {
				return err
			}
			printPolicy(cmd.OutOrStdout(), buildRegistry(cfg, logger).Policy())
			return nil
		},
	}
}

func printPolicy(w io.Writer, policy domain.RoutingPolicy) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tORDER")
	for _, task := range domain.AllTasks() {
		seq := policy.For(task)
		order := "(none)"
		if len(seq) > 0 {
			names := make([]string, len(seq))
			for i, id := range seq {
				names[i] = string(id)
			}
			order = strings.Join(names, " -> ")
		}
		fmt.Fprintf(tw, "%s\t%s\n", task, order)
	}
	_ = tw.Flush()
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage encrypted credentials for the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a credential with the local secret key and print the enc: value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := appconfig.NewSecretKey()
			if err != nil {
				return err
			}
			enc, err := key.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	})
	return cmd
}
