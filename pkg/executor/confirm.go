package executor

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// PromptConfirmer asks for per-resource approval on a terminal. Accepted
// answers are y/yes, n/no, and q/quit; quit stops the remaining queue.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer reads answers from in and writes prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm shows the resource's key attributes and waits for a decision.
func (p *PromptConfirmer) Confirm(rec models.ResourceRecord, cost *float64) Decision {
	costStr := "unknown"
	if cost != nil {
		costStr = fmt.Sprintf("$%.2f/mo est.", *cost)
	}
	name := rec.Name
	if name == "" {
		name = "<unnamed>"
	}
	fmt.Fprintf(p.out, "\nDelete %s %s (%s) in %s? state=%s cost=%s\n",
		rec.Kind, rec.ID, name, rec.Region, rec.State, costStr)

	for {
		fmt.Fprint(p.out, "  [y]es / [n]o / [q]uit: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			// Treat a closed input as quit rather than deleting blind.
			return DecisionQuit
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return DecisionYes
		case "n", "no":
			return DecisionNo
		case "q", "quit":
			return DecisionQuit
		}
	}
}
