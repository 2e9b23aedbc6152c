package classifier

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// ClassReport holds per-label quality figures over an evaluation set.
type ClassReport struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Evaluate scores m on examples and returns one report per model class, in
// model order, plus the overall accuracy.
func Evaluate(m *Model, examples []Example) ([]ClassReport, float64) {
	tp := make(map[string]int, len(m.Classes))
	predicted := make(map[string]int, len(m.Classes))
	support := make(map[string]int, len(m.Classes))

	correct := 0
	for _, ex := range examples {
		got := m.Predict(ex.Text).Category
		support[ex.Label]++
		predicted[got]++
		if got == ex.Label {
			tp[got]++
			correct++
		}
	}

	reports := make([]ClassReport, 0, len(m.Classes))
	for _, label := range m.Classes {
		r := ClassReport{Label: label, Support: support[label]}
		if predicted[label] > 0 {
			r.Precision = float64(tp[label]) / float64(predicted[label])
		}
		if support[label] > 0 {
			r.Recall = float64(tp[label]) / float64(support[label])
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports = append(reports, r)
	}

	accuracy := 0.0
	if len(examples) > 0 {
		accuracy = float64(correct) / float64(len(examples))
	}
	return reports, accuracy
}

// WriteReport renders reports as an aligned table.
func WriteReport(w io.Writer, reports []ClassReport, accuracy float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "class\tprecision\trecall\tf1\tsupport\t")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n", r.Label, r.Precision, r.Recall, r.F1, r.Support)
	}
	fmt.Fprintf(tw, "accuracy\t\t\t%.2f\t\t\n", accuracy)
	return tw.Flush()
}
