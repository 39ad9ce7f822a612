package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ngosdi/osdi"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle = cellStyle.
		Foreground(lipgloss.Color("#90EE90"))

	failedStyle = cellStyle.
			Foreground(lipgloss.Color("#FFD166"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

const statusCol = 3

// renderReports 每个流程一张表
func renderReports(reports []*osdi.Report) string {
	var blocks []string
	for _, rep := range reports {
		blocks = append(blocks, renderReport(rep))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderReport(rep *osdi.Report) string {
	rows := make([][]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		states := ""
		if r.States > 0 {
			states = fmt.Sprintf("%d..%d", r.StateStart, r.StateStart+r.States-1)
		}
		rows = append(rows, []string{
			string(r.Kind), r.Name, r.Model, r.Status.String(),
			strconv.Itoa(r.Nodes), strconv.Itoa(r.Collapsed), strconv.Itoa(r.Internal), states, msg,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))).
		Headers("KIND", "NAME", "MODEL", "STATUS", "NODES", "COLLAPSED", "INTERNAL", "STATES", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == statusCol && rows[row][col] == osdi.StatusOK.String():
				return okStyle
			case col == statusCol:
				return failedStyle
			}
			return cellStyle
		})
	title := titleStyle.Render(fmt.Sprintf("%s %s (%s)", rep.Pass, rep.Device, rep.Duration))
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}

// renderNodes 卸载前后的节点数
func renderNodes(before, after int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "LIVE NODES").
		Row("before unsetup", strconv.Itoa(before)).
		Row("after unsetup", strconv.Itoa(after)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
