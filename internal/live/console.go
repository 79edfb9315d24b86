package live

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/algo-comp/plugin"
	"github.com/cwbudde/algo-comp/plugin/param"
)

// ReadCommands reads control lines from r until EOF and applies them to
// ctrl. Replies go to w. Accepted lines:
//
//	<name> <value>   set a parameter, e.g. "threshold -12 dB"
//	show             print all parameters
//	# ...            comment
//
// A bad line is reported and reading continues.
func ReadCommands(r io.Reader, ctrl *plugin.Controller, w io.Writer) error {
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := execute(line, ctrl, w); err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}

	return sc.Err()
}

func execute(line string, ctrl *plugin.Controller, w io.Writer) error {
	name, value, _ := strings.Cut(line, " ")

	if strings.EqualFold(name, "show") {
		Show(ctrl, w)
		return nil
	}

	slot, err := param.SlotByName(name)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("missing value for %s", slot)
	}

	if err := ctrl.SetParameterText(slot, value); err != nil {
		return err
	}

	fmt.Fprintln(w, strings.TrimSpace(fmt.Sprintf("%s = %s %s", slot, ctrl.ParameterText(slot), ctrl.ParameterLabel(slot))))

	return nil
}

// Show prints every parameter with its current value.
func Show(ctrl *plugin.Controller, w io.Writer) {
	for _, slot := range param.Slots() {
		row := fmt.Sprintf("%-10s %8s %s", ctrl.ParameterName(slot), ctrl.ParameterText(slot), ctrl.ParameterLabel(slot))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}
