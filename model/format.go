package model

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/timewinder-dev/faultchain/exec"
)

const rule = "================================================================================"

// FormatTrace lists a captured chain outermost first, marking the frame the
// fault was raised in.
func FormatTrace(t *exec.Trace) string {
	var b strings.Builder
	b.WriteString(color.Bold.Sprint("Entry:    "))
	b.WriteString(fmt.Sprintf("%s (%s)\n", t.Entry, t.Backend))
	b.WriteString(color.Bold.Sprint("Trace:    "))
	b.WriteString(color.Gray.Sprintf("%s\n", t.ID))
	b.WriteString(color.Bold.Sprint("Chain:\n"))
	last := len(t.Stack.Frames) - 1
	for i, f := range t.Stack.Frames {
		marker := " "
		if i == last {
			marker = color.Red.Sprint("❱")
		}
		b.WriteString(fmt.Sprintf("  %s %d. %s", marker, i+1, color.Cyan.Sprint(f.Name)))
		if f.File != "" {
			b.WriteString(color.Gray.Sprintf("  %s:%d", f.File, f.Line))
		}
		b.WriteString("\n")
	}
	b.WriteString(color.Bold.Sprint("Fault:    "))
	b.WriteString(color.Red.Sprintf("%s: %s\n", t.Fault.Kind, t.Fault.Message))
	return b.String()
}

func FormatViolation(v Violation) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	b.WriteString(color.Red.Sprint("SCENARIO VIOLATION"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Scenario: "))
	b.WriteString(color.Yellow.Sprintf("%s\n", v.Scenario))
	b.WriteString(color.Bold.Sprint("Entry:    "))
	b.WriteString(fmt.Sprintf("%s (%s)\n", v.Entry, v.Backend))
	b.WriteString(color.Bold.Sprint("Message:  "))
	b.WriteString(color.Red.Sprintf("%s\n", v.Message))
	b.WriteString(color.Bold.Sprint("Expected: "))
	b.WriteString(fmt.Sprintf("%s\n", v.Want))
	if v.Got != nil {
		b.WriteString(color.Gray.Sprint(strings.Repeat("-", len(rule))))
		b.WriteString("\n")
		b.WriteString(FormatTrace(v.Got))
	}
	return b.String()
}

func FormatAllViolations(violations []Violation) string {
	var b strings.Builder
	b.WriteString(color.Red.Sprintf("\nFound %d violation(s):\n", len(violations)))
	for _, v := range violations {
		b.WriteString(FormatViolation(v))
	}
	return b.String()
}

// FormatScenario is the one-line summary printed per scenario.
func FormatScenario(r ScenarioResult) string {
	status := color.Green.Sprint("✓")
	if !r.Success() {
		status = color.Red.Sprint("✗")
	}
	shape := "(no fault captured)"
	if r.Sample != nil {
		shape = r.Sample.Shape().String()
	}
	return fmt.Sprintf("%s %s: %s(%s) x%d %s\n", status, r.Name, r.Entry, r.Backend, r.Invocations, shape)
}

// FormatStatistics formats suite statistics
func FormatStatistics(stats Statistics) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Fault chain statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Scenarios run: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Scenarios))
	b.WriteString(color.Bold.Sprint("Invocations: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Invocations))
	b.WriteString(color.Bold.Sprint("Faults captured: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Captured))
	b.WriteString(color.Bold.Sprint("Unique shapes: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.UniqueShapes))
	b.WriteString(color.Bold.Sprint("Duplicate shapes: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.DuplicateShapes))

	b.WriteString(color.Bold.Sprint("Violations found: "))
	if stats.ViolationCount > 0 {
		b.WriteString(color.Red.Sprintf("%d\n", stats.ViolationCount))
	} else {
		b.WriteString(color.Green.Sprintf("%d\n", stats.ViolationCount))
	}
	return b.String()
}
