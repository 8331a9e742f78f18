package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/pipeline"
)

// Palette. ANSI 256 codes.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Shared styles, also used by the relax monitor.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).PaddingRight(1)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

type statusLevel int

const (
	levelSuccess statusLevel = iota
	levelError
	levelWarning
	levelInfo
)

var icons = map[statusLevel]string{
	levelSuccess: lipgloss.NewStyle().Foreground(colorGreen).Render("✓"),
	levelError:   lipgloss.NewStyle().Foreground(colorRed).Render("✗"),
	levelWarning: lipgloss.NewStyle().Foreground(colorYellow).Render("!"),
	levelInfo:    lipgloss.NewStyle().Foreground(colorGray).Render("›"),
}

func status(l statusLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l == levelWarning {
		msg = StyleWarning.Render(msg)
	}
	fmt.Println(icons[l] + " " + msg)
}

func printSuccess(format string, args ...any) { status(levelSuccess, format, args...) }
func printError(format string, args ...any)   { status(levelError, format, args...) }
func printWarning(format string, args ...any) { status(levelWarning, format, args...) }
func printInfo(format string, args ...any)    { status(levelInfo, format, args...) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func cacheState(hit bool) string {
	if hit {
		return "cached"
	}
	return "fresh"
}

// printStats prints the size of a compiled graph on one line.
func printStats(nodes, edges int, cached bool) {
	fmt.Println(statsLine(nodes, edges, cached))
}

// statsLine renders "  38 stitches · 44 edges · cached". Zero counts are
// left out.
func statsLine(nodes, edges int, cached bool) string {
	var parts []string
	if nodes > 0 {
		parts = append(parts, fmt.Sprintf("%d stitches", nodes))
	}
	if edges > 0 {
		parts = append(parts, fmt.Sprintf("%d edges", edges))
	}
	parts = append(parts, cacheState(cached))
	return "  " + StyleDim.Render(strings.Join(parts, " · "))
}

// summaryRows lists the figures of a relax run.
func summaryRows(stats pipeline.Stats, res *graph.Result, info pipeline.CacheInfo) [][]string {
	rows := [][]string{
		{"stitches", fmt.Sprint(stats.NodeCount)},
		{"edges", fmt.Sprint(stats.EdgeCount)},
		{"steps", fmt.Sprint(res.Steps)},
		{"relaxed", fmt.Sprint(res.Relaxed)},
		{"tension", fmt.Sprintf("%.5f", res.Tension)},
		{"mean step", fmt.Sprintf("%.5f", res.MeanStep)},
		{"centroids", fmt.Sprint(len(res.Centroids))},
	}
	if stats.CompileTime > 0 || stats.RelaxTime > 0 {
		rows = append(rows,
			[]string{"compile", fmt.Sprintf("%s (%s)", stats.CompileTime.Round(time.Millisecond), cacheState(info.CompileHit))},
			[]string{"relax", fmt.Sprintf("%s (%s)", stats.RelaxTime.Round(time.Millisecond), cacheState(info.RelaxHit))},
		)
	}
	return rows
}

func printSummary(rows [][]string) {
	fmt.Println(summaryTable(rows))
}

// summaryTable renders label/value rows in a rounded box.
func summaryTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return styleLabel
			}
			return StyleValue
		}).
		Render()
}
