package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/GoCodeAlone/taskpad/task"
)

func printTaskTable(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	fmt.Fprintf(w, "%-6s %-4s %-32s %-9s %s\n", "ID", "DONE", "TITLE", "SUBTASKS", "CREATED")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, t := range tasks {
		fmt.Fprintf(w, "%-6s %-4s %-32s %-9s %s\n",
			t.ID,
			checkbox(t.Completed),
			truncate(t.Title, 31),
			progress(t),
			humanize.Time(t.CreatedAt),
		)
	}
}

func printTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%s %s  (#%s, created %s)\n", checkbox(t.Completed), t.Title, t.ID, humanize.Time(t.CreatedAt))
	if t.Description != "" {
		fmt.Fprintf(w, "    %s\n", t.Description)
	}
	for i, st := range t.Subtasks {
		fmt.Fprintf(w, "  %2d. %s %s\n", i+1, checkbox(st.Completed), st.Text)
	}
}

func warnIfEphemeral(w io.Writer, a *app) {
	if !a.svc.Persistent() {
		fmt.Fprintln(w, "note: task storage is not persistent, changes last until the program exits")
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func progress(t task.Task) string {
	done, total := t.Progress()
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", done, total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
