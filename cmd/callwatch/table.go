package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column; numeric columns are right-aligned.
type column struct {
	title   string
	numeric bool
}

var (
	watchColumns = []column{
		{title: "#", numeric: true},
		{title: "Directory"},
		{title: "Type"},
		{title: "Ext"},
		{title: "System"},
		{title: "Talkgroup"},
		{title: "Frequency", numeric: true},
		{title: "Delete"},
		{title: "Status"},
	}
	callColumns = []column{
		{title: "ID", numeric: true},
		{title: "Time"},
		{title: "Source"},
		{title: "System", numeric: true},
		{title: "Talkgroup", numeric: true},
		{title: "Frequency", numeric: true},
		{title: "Audio"},
		{title: "Size", numeric: true},
	}
)

// renderTable draws rows under columns. Short rows are padded with blanks.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
