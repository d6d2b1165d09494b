package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/taskpad/actions"
)

func listCmd(withApp appWrapper) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			f, err := actions.ParseFilter(filter)
			if err != nil {
				return err
			}
			tasks, err := a.svc.ListTasks(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTaskTable(out, tasks)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(actions.FilterAll), "which tasks to show: all, active or completed")
	return cmd
}

func addCmd(withApp appWrapper) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			t, err := a.svc.CreateTask(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %s: %s\n", t.ID, t.Title)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	return cmd
}

func showCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			t, err := a.svc.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), t)
			return nil
		}),
	}
}

func editCmd(withApp appWrapper) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") {
				return fmt.Errorf("%w: nothing to change, pass --title or --description", actions.ErrInvalidInput)
			}
			current, err := a.svc.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !flags.Changed("title") {
				title = current.Title
			}
			if !flags.Changed("description") {
				description = current.Description
			}
			t, err := a.svc.EditTask(cmd.Context(), args[0], title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task %s: %s\n", t.ID, t.Title)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title (at least 2 characters)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func toggleCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done; its subtasks follow",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			t, err := a.svc.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "reopened"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %s %s\n", t.ID, state)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
}

func subtaskCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "subtask <id> <n>",
		Short: "Check or uncheck the n-th subtask (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: subtask number %q is not a number", actions.ErrInvalidInput, args[1])
			}
			t, err := a.svc.ToggleSubtask(cmd.Context(), args[0], n-1)
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), t)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
}

func generateCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <id>",
		Short: "Replace a task's subtasks with an AI-generated breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			t, err := a.svc.GenerateSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d subtasks\n", len(t.Subtasks))
			printTask(cmd.OutOrStdout(), t)
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
}

func removeCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.svc.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", args[0])
			warnIfEphemeral(cmd.ErrOrStderr(), a)
			return nil
		}),
	}
}
