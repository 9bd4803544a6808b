package insight

import (
	"strings"
	"text/template"

	"fintrack/internal/core"
)

// MaxPromptTransactions caps how many recent transactions are sent to the model.
const MaxPromptTransactions = 50

var promptTemplate = template.Must(template.New("insight").Parse(
	"Act as a financial advisor. Analyze these transactions strictly in 2-3 sentences. " +
		"Give one specific compliment and one specific warning about spending habits. " +
		"Do not use markdown formatting like bolding. Data:\n" +
		"{{range $i, $t := .}}{{if $i}}\n{{end}}{{$t.Type}}: ${{$t.Amount}} on {{$t.Category}}{{end}}",
))

type promptLine struct {
	Type     string
	Amount   string
	Category string
}

// BuildPrompt renders the advisor prompt from transactions ordered newest first.
func BuildPrompt(txs []core.Transaction) (string, error) {
	if len(txs) > MaxPromptTransactions {
		txs = txs[:MaxPromptTransactions]
	}
	lines := make([]promptLine, len(txs))
	for i, tx := range txs {
		lines[i] = promptLine{
			Type:     tx.Type.String(),
			Amount:   tx.Amount.StringFixed(2),
			Category: tx.Category,
		}
	}
	var b strings.Builder
	if err := promptTemplate.Execute(&b, lines); err != nil {
		return "", err
	}
	return b.String(), nil
}
