package commands

import (
	"slices"
	"strconv"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs"
	"github.com/spf13/cobra"
)

var proceduresCmd = &cobra.Command{
	Use:   "procedures",
	Short: "List the NFSv3 procedures nfsinspect can decode",
	RunE:  runProcedures,
}

type procedureRow struct {
	Number uint32 `json:"number" yaml:"number"`
	Name   string `json:"name" yaml:"name"`
	Call   bool   `json:"call" yaml:"call"`
	Reply  bool   `json:"reply" yaml:"reply"`
}

type procedureList []procedureRow

func (l procedureList) Headers() []string {
	return []string{"Proc", "Name", "Call", "Reply"}
}

func (l procedureList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{strconv.FormatUint(uint64(p.Number), 10), p.Name, yesNo(p.Call), yesNo(p.Reply)})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runProcedures(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd, nil)
	if err != nil {
		return err
	}

	var list procedureList
	for proc, name := range nfs.SupportedProcedures() {
		list = append(list, procedureRow{
			Number: proc,
			Name:   name,
			Call:   nfs.SupportsCall(proc),
			Reply:  nfs.SupportsReply(proc),
		})
	}
	slices.SortFunc(list, func(a, b procedureRow) int { return int(a.Number) - int(b.Number) })

	return printer.Print(list)
}
