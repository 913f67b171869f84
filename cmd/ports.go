package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Port describes a raw MIDI subdevice.
type Port struct {
	ID        string
	Card      int
	CardName  string
	Name      string
	SubName   string
	Direction string
}

// WritePorts prints ports as an aligned table.
func WritePorts(w io.Writer, ports []Port) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tCARD\tNAME\tSUBNAME\tDIR")
	for _, p := range ports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.CardName, p.Name, p.SubName, p.Direction)
	}
	return tw.Flush()
}

// CreatePortsCmd creates the ports command.
func CreatePortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List raw MIDI ports",
		Long:  `Lists every ALSA raw MIDI subdevice. Pass a DEVICE value to --port to open it directly.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No raw MIDI ports found")
				return nil
			}
			return WritePorts(cmd.OutOrStdout(), ports)
		},
	}
}
