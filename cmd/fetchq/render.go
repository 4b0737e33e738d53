package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/fetchq/fetchq/internal/model"
)

func renderSummary(items []*model.Item) {
	if len(items) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Title", "Status", "Size", "Time", "File")

	for _, item := range items {
		_ = table.Append(
			item.DisplayTitle(),
			item.Status.String(),
			sizeString(item.FileSize),
			elapsedString(item),
			item.Filename,
		)
	}

	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering summary: %v\n", err)
	}
}

func sizeString(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/1024/1024)
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/1024/1024/1024)
	}
}
