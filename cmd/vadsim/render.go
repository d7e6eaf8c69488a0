package main

import (
	"fmt"

	"github.com/ajwerner/avltable/internal/addrspace"
	"github.com/ajwerner/avltable/internal/workload"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

func renderSteps(rep *workload.Report) string {
	tbl := newTable()
	tbl.SetTitle("workload %s", rep.Workload)
	tbl.AppendHeader(table.Row{"#", "Op", "Region", "Outcome"})
	for _, res := range rep.Results {
		region := ""
		if res.Region != nil {
			region = fmt.Sprintf("%#x %s", res.Region.Base, res.Region.Name)
		}
		outcome := "ok"
		if res.Err != nil {
			outcome = res.Err.Error()
		}
		if res.Unexpected {
			outcome = text.FgRed.Sprint("UNEXPECTED " + outcome)
		}
		tbl.AppendRow(table.Row{res.Step, res.Op, region, outcome})
	}
	tbl.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d unexpected", rep.Unexpected())})
	return tbl.Render()
}

func renderRegions(regions []addrspace.Region, st addrspace.Stats) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Base", "End", "Size", "Prot", "Name"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for _, r := range regions {
		tbl.AppendRow(table.Row{
			fmt.Sprintf("%#x", r.Base),
			fmt.Sprintf("%#x", r.End()),
			humanize.IBytes(r.Size),
			r.Protection.String(),
			r.Name,
		})
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d regions", st.Regions), "", humanize.IBytes(st.Reserved),
		"", fmt.Sprintf("depth %d", st.Depth),
	})
	return tbl.Render()
}
