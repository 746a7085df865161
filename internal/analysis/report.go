package analysis

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString("STATISTICAL ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("1. GENERAL INFORMATION\n\n")
	fmt.Fprintf(&b, "Total participants: %d\n", r.Participants)
	fmt.Fprintf(&b, "Level observations: %d\n", r.Rows)
	b.WriteString("Participants per condition:\n")
	for _, c := range r.PerCondition {
		fmt.Fprintf(&b, "  - %s: %d\n", c.Condition, c.Participants)
	}
	writeList(&b, "Data issues", r.Issues)
	writeList(&b, "Skipped records", r.Skipped)
	b.WriteString("\n")

	b.WriteString("2. RESPONSE TIME ANALYSIS\n\n")
	if r.ResponseTimes.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.ResponseTimes.Error)
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "condition\tlevel\tcount\tmean\tstd\tmin\tmax\t")
		for _, c := range r.ResponseTimes.Descriptive {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t\n",
				c.Condition, c.Level, c.Count,
				num(c.Mean, 3), optNum(c.Std, 3), num(c.Min, 3), num(c.Max, 3))
		}
		tw.Flush()
		fmt.Fprintf(&b, "\nANOVA: %s\n", testLine("F", r.ResponseTimes.ANOVA))
	}
	b.WriteString("\n")

	b.WriteString("3. RATING ANALYSIS\n\n")
	if r.Ratings.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Ratings.Error)
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "condition\tlevel\tperformance mean\tstd\tstress mean\tstd\tcertitude mean\tstd\t")
		for _, c := range r.Ratings.Cells {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				c.Condition, c.Level,
				num(c.Performance.Mean, 2), optNum(c.Performance.Std, 2),
				num(c.Stress.Mean, 2), optNum(c.Stress.Std, 2),
				num(c.Certitude.Mean, 2), optNum(c.Certitude.Std, 2))
		}
		tw.Flush()
		fmt.Fprintf(&b, "\nKruskal-Wallis performance: %s\n", testLine("H", r.Ratings.KruskalPerformance))
		fmt.Fprintf(&b, "Kruskal-Wallis stress: %s\n", testLine("H", r.Ratings.KruskalStress))
	}
	b.WriteString("\n")

	b.WriteString("4. HEART RATE ANALYSIS\n\n")
	if r.HeartRate.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.HeartRate.Error)
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "condition\tcount\tmean change\tstd\t")
		for _, g := range r.HeartRate.Changes {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", g.Condition, g.Count, num(g.Mean, 2), optNum(g.Std, 2))
		}
		tw.Flush()
		b.WriteString("\n")
		for _, t := range r.HeartRate.TTests {
			fmt.Fprintf(&b, "Paired t-test %s: %s\n", t.Condition, testLine("t", t.TestResult))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}

func testLine(symbol string, t TestResult) string {
	if t.Error != "" {
		return "error: " + t.Error
	}
	return fmt.Sprintf("%s=%s, p=%s", symbol, num(t.Statistic, 3), num(t.PValue, 4))
}

func num(x float64, decimals int) string {
	return strconv.FormatFloat(x, 'f', decimals, 64)
}

func optNum(x *float64, decimals int) string {
	if x == nil {
		return "NaN"
	}
	return num(*x, decimals)
}
