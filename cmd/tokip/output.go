package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatParent(rec domain.Record) string {
	kind, id, ok := rec.ParentRef()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s/%d", kind, id)
}

func formatStatus(rec domain.Record) string {
	if rec.Status == "" {
		return "-"
	}
	return rec.Status.Label()
}

func printRecord(rec domain.Record) {
	printKV([][2]string{
		{"kind", rec.Kind.Label()},
		{"id", uintToString(rec.ID)},
		{"parent", formatParent(rec)},
		{"title", rec.Title},
		{"status", formatStatus(rec)},
		{"created_at", formatTime(rec.CreatedAt)},
		{"updated_at", formatTime(rec.UpdatedAt)},
	})
}

func printRecords(items []domain.Record) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			formatParent(item),
			item.Title,
			formatStatus(item),
			formatTime(item.UpdatedAt),
		})
	}
	printTable([]string{"ID", "PARENT", "TITLE", "STATUS", "UPDATED_AT"}, rows)
}

// printTree draws the forest with one record per line, indented by depth.
func printTree(w io.Writer, forest []application.TreeNode) {
	if len(forest) == 0 {
		_, _ = fmt.Fprintln(w, "no themes")
		return
	}
	for _, node := range forest {
		printNode(w, node, "", "")
	}
}

func printNode(w io.Writer, node application.TreeNode, prefix, branch string) {
	rec := node.Record
	line := fmt.Sprintf("%s%s%s #%d %s", prefix, branch, rec.Kind.Label(), rec.ID, rec.Title)
	if rec.Status != "" {
		line += " [" + rec.Status.Label() + "]"
	}
	_, _ = fmt.Fprintln(w, line)

	childPrefix := prefix
	switch branch {
	case "├── ":
		childPrefix += "│   "
	case "└── ":
		childPrefix += "    "
	}
	for i, child := range node.Children {
		next := "├── "
		if i == len(node.Children)-1 {
			next = "└── "
		}
		printNode(w, child, childPrefix, next)
	}
}
