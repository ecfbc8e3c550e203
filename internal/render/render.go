// Package render formats decisions, insight cards and reflections for the
// terminal using lipgloss.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/insights"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/review"
	"github.com/BTreeMap/Pondr/internal/unlock"
	"github.com/BTreeMap/Pondr/internal/window"
)

// Lipgloss styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("183")).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(64)
)

const timeLayout = "Mon Jan 2 15:04"

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func line(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// Decision writes one decision in full.
func Decision(w io.Writer, d models.Decision) {
	line(w, titleStyle.Render(d.Title))
	line(w, field("ID", d.ID))
	cats := d.Category.Label()
	if len(d.SecondaryCategories) > 0 {
		labels := make([]string, len(d.SecondaryCategories))
		for i, c := range d.SecondaryCategories {
			labels[i] = c.Label()
		}
		cats += " (+ " + strings.Join(labels, ", ") + ")"
	}
	line(w, field("Category", cats))
	line(w, field("Confidence", strconv.Itoa(d.Confidence)+"/5"))
	line(w, field("Feeling", strconv.Itoa(d.Feeling)+"/5"))
	if d.WhyText != nil {
		line(w, field("Why", *d.WhyText))
	}
	if len(d.Tags) > 0 {
		line(w, field("Tags", strings.Join(d.Tags, ", ")))
	}
	line(w, dimStyle.Render("Logged "+d.CreatedAt.Local().Format(timeLayout)))
}

// DecisionList writes one line per decision.
func DecisionList(w io.Writer, ds []models.Decision) {
	if len(ds) == 0 {
		line(w, dimStyle.Render("No decisions logged yet."))
		return
	}
	for _, d := range ds {
		line(w, fmt.Sprintf("%s  %s  %s %s",
			dimStyle.Render(d.CreatedAt.Local().Format(timeLayout)),
			labelStyle.Render(fmt.Sprintf("%-13s", d.Category.Label())),
			valueStyle.Render(strconv.Itoa(d.Confidence)),
			d.Title))
		line(w, dimStyle.Render("  "+d.ID))
	}
}

// Snapshot writes each insight card in a bordered box.
func Snapshot(w io.Writer, s insights.Snapshot) {
	for _, c := range s.Cards {
		h := c.Header()
		line(w, cardStyle.Render(titleStyle.Render(h.Title)+"\n"+h.Copy))
	}
}

// Summary writes the weekly review numbers.
func Summary(w io.Writer, s review.Summary) {
	line(w, titleStyle.Render("This week")+"  "+dimStyle.Render(window.WeekID(s.Window.Start)))
	line(w, dimStyle.Render(s.Window.Start.Local().Format("Jan 2")+" – "+s.Window.End.Add(-time.Nanosecond).Local().Format("Jan 2")))
	line(w, field("Decisions", strconv.Itoa(s.DecisionCount)))
	line(w, field(s.AvgLabel.Label, s.AvgLabel.Value))
	if s.FocusCopy != "" {
		line(w, s.FocusCopy)
	}
	dc := confidence.CopyForDirection(s.Direction)
	line(w, field("Direction", dc.Title))
	line(w, dimStyle.Render(dc.Subtext))
	line(w, insights.TrendCardCopy(s.Trend))
	for _, p := range s.Daily {
		value := "—"
		if p.Avg != nil {
			value = strconv.FormatFloat(*p.Avg, 'f', 1, 64)
		}
		line(w, dimStyle.Render(fmt.Sprintf("  %s  %s  (%d)", p.Day.Format("Mon"), value, p.Count)))
	}
}

// LockMessage describes a locked state to the user.
func LockMessage(st unlock.State) string {
	switch st.Kind {
	case unlock.KindLockedTime:
		return "Your next reflection opens in " + days(st.DaysRemaining) + "."
	case unlock.KindLockedWeekday:
		return "Reflections open on the last day of your week, " + days(st.DaysRemaining) + " from now."
	case unlock.KindLockedData:
		return "Log at least one decision in this window to open a reflection."
	}
	return ""
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

// Outcome writes a reflection outcome: the reflection when present, the
// lock message otherwise.
func Outcome(w io.Writer, o review.Outcome) {
	if o.Reflection == nil {
		line(w, dimStyle.Render(LockMessage(o.State)))
		return
	}
	r := o.Reflection
	line(w, titleStyle.Render("Weekly Reflection"))
	line(w, dimStyle.Render(o.Window.Start.Local().Format(timeLayout)+" – "+o.Window.End.Local().Format(timeLayout)))
	line(w, "")
	line(w, r.ReflectionText)
	if r.ObservedPatternText != "" {
		line(w, "")
		line(w, field("Observed pattern", r.ObservedPatternText))
	}
	if r.GentleQuestionText != nil {
		line(w, "")
		line(w, questionStyle.Render(*r.GentleQuestionText))
	}
	if o.State.Kind == unlock.KindCached {
		line(w, "")
		line(w, dimStyle.Render("Generated "+r.GeneratedAt.Local().Format(timeLayout)+"."))
	}
}
