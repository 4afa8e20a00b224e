package execute

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"configSync/internal/model"
)

const confirmQuestion = "Do you want to execute the transactions? [y/N] "

// PromptConfirmer asks on out and reads one answer line from in.
// Only "y" and "yes" confirm. It blocks until a line or EOF arrives.
func PromptConfirmer(in io.Reader, out io.Writer) Confirmer {
	reader := bufio.NewReader(in)
	return func(plan model.Plan) (bool, error) {
		if _, err := fmt.Fprintf(out, "%d transaction(s) pending\n%s", len(plan.Writes), confirmQuestion); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("read answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
